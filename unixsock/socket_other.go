//go:build !linux

package unixsock

import "time"

// Socket is unavailable on this platform; every operation returns
// ErrNotSupported.
type Socket struct{}

// Waker is unavailable on this platform.
type Waker struct{}

func NewSocket() (*Socket, error) { return nil, ErrNotSupported }
func NewWaker() (*Waker, error)   { return nil, ErrNotSupported }

func (s *Socket) FD() int                             { return -1 }
func (s *Socket) Bind(Addr) error                     { return ErrNotSupported }
func (s *Socket) Listen(int) error                    { return ErrNotSupported }
func (s *Socket) Accept(*Waker) (*Socket, error)      { return nil, ErrNotSupported }
func (s *Socket) Connect(Addr) error                  { return ErrNotSupported }
func (s *Socket) Read([]byte, *Waker) (int, error)    { return 0, ErrNotSupported }
func (s *Socket) Write([]byte) (int, error)           { return 0, ErrNotSupported }
func (s *Socket) SetWriteTimeout(time.Duration) error { return ErrNotSupported }
func (s *Socket) Shutdown() error                     { return ErrNotSupported }
func (s *Socket) Close() error                        { return ErrNotSupported }

func (w *Waker) Wake() error  { return ErrNotSupported }
func (w *Waker) Woken() bool  { return false }
func (w *Waker) Close() error { return ErrNotSupported }

func IsTimeout(error) bool { return false }
func Unlink(Addr) error    { return ErrNotSupported }
