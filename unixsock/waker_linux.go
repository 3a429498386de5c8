//go:build linux

package unixsock

import (
	"encoding/binary"
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// Waker is an eventfd that blocking Socket calls poll alongside their own
// descriptor. Once woken it stays readable: the counter is never drained, so
// every later Read or Accept that polls it also returns ErrWoken.
type Waker struct {
	fd int
}

// NewWaker creates an unsignalled Waker.
func NewWaker() (*Waker, error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return nil, os.NewSyscallError("eventfd", err)
	}
	return &Waker{fd: fd}, nil
}

// Wake signals the Waker.
func (w *Waker) Wake() error {
	var buf [8]byte
	binary.NativeEndian.PutUint64(buf[:], 1)
	for {
		_, err := unix.Write(w.fd, buf[:])
		switch {
		case err == nil:
			return nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.EAGAIN):
			// Counter saturated; it is readable already.
			return nil
		default:
			return os.NewSyscallError("write", err)
		}
	}
}

// Woken reports whether Wake has been called, without blocking.
func (w *Waker) Woken() bool {
	fds := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}
	n, err := unix.Poll(fds, 0)
	return err == nil && n > 0 && fds[0].Revents&unix.POLLIN != 0
}

// Close releases the eventfd.
func (w *Waker) Close() error {
	return os.NewSyscallError("close", unix.Close(w.fd))
}
