//go:build linux

package unixsock

import (
	"errors"
	"io"
	"os"
	"time"

	"golang.org/x/sys/unix"
)

// Socket is a blocking AF_UNIX stream descriptor.
type Socket struct {
	fd int
}

// NewSocket creates an unbound, unconnected stream socket.
func NewSocket() (*Socket, error) {
	for {
		fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_CLOEXEC, 0)
		switch {
		case err == nil:
			return &Socket{fd: fd}, nil
		case errors.Is(err, unix.EINTR):
			continue
		default:
			return nil, os.NewSyscallError("socket", err)
		}
	}
}

// FD returns the raw descriptor.
func (s *Socket) FD() int { return s.fd }

func (a Addr) sockaddr() (*unix.SockaddrUnix, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return &unix.SockaddrUnix{Name: a.encodedName()}, nil
}

// Bind binds the socket to addr.
func (s *Socket) Bind(addr Addr) error {
	sa, err := addr.sockaddr()
	if err != nil {
		return err
	}
	return os.NewSyscallError("bind", unix.Bind(s.fd, sa))
}

// Listen marks the socket as passive.
func (s *Socket) Listen(backlog int) error {
	return os.NewSyscallError("listen", unix.Listen(s.fd, backlog))
}

// Accept blocks until a peer connects or w is woken. A nil w waits only on
// the socket.
func (s *Socket) Accept(w *Waker) (*Socket, error) {
	for {
		if err := waitReadable(s.fd, w); err != nil {
			return nil, err
		}
		fd, _, err := unix.Accept4(s.fd, unix.SOCK_CLOEXEC)
		switch {
		case err == nil:
			return &Socket{fd: fd}, nil
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.ECONNABORTED), errors.Is(err, unix.EAGAIN):
			continue
		default:
			return nil, os.NewSyscallError("accept4", err)
		}
	}
}

// Connect connects the socket to addr. On failure the socket stays
// unconnected and Connect may be called again.
func (s *Socket) Connect(addr Addr) error {
	sa, err := addr.sockaddr()
	if err != nil {
		return err
	}
	return os.NewSyscallError("connect", unix.Connect(s.fd, sa))
}

// Read blocks until data is available, the peer hangs up, or w is woken.
// It returns 0, nil at end of stream and ErrWoken when released by w.
func (s *Socket) Read(p []byte, w *Waker) (int, error) {
	for {
		if err := waitReadable(s.fd, w); err != nil {
			return 0, err
		}
		n, err := unix.Read(s.fd, p)
		switch {
		case err == nil:
			return n, nil
		case errors.Is(err, unix.EINTR), errors.Is(err, unix.EAGAIN):
			continue
		default:
			return 0, os.NewSyscallError("read", err)
		}
	}
}

// Write sends all of p. SIGPIPE is suppressed; a vanished peer shows up as
// EPIPE. When a send timeout is set a partial count may be returned along
// with EAGAIN.
func (s *Socket) Write(p []byte) (int, error) {
	var nn int
	for nn < len(p) {
		n, err := unix.SendmsgN(s.fd, p[nn:], nil, nil, unix.MSG_NOSIGNAL)
		if n > 0 {
			nn += n
		}
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return nn, os.NewSyscallError("sendmsg", err)
		case n == 0:
			return nn, io.ErrUnexpectedEOF
		}
	}
	return nn, nil
}

// SetWriteTimeout sets SO_SNDTIMEO. Zero disables the timeout.
func (s *Socket) SetWriteTimeout(d time.Duration) error {
	tv := unix.NsecToTimeval(d.Nanoseconds())
	return os.NewSyscallError("setsockopt", unix.SetsockoptTimeval(s.fd, unix.SOL_SOCKET, unix.SO_SNDTIMEO, &tv))
}

// Shutdown disables both directions, releasing any goroutine blocked in a
// send on this socket.
func (s *Socket) Shutdown() error {
	err := unix.Shutdown(s.fd, unix.SHUT_RDWR)
	if errors.Is(err, unix.ENOTCONN) {
		return nil
	}
	return os.NewSyscallError("shutdown", err)
}

// Close releases the descriptor. It must not be called while another
// goroutine is still using the socket.
func (s *Socket) Close() error {
	return os.NewSyscallError("close", unix.Close(s.fd))
}

// IsTimeout reports whether err is a send/receive timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, unix.EAGAIN) || errors.Is(err, unix.ETIMEDOUT)
}

// Unlink removes the socket file behind a filesystem address. Missing files
// and abstract addresses are not an error.
func Unlink(addr Addr) error {
	if addr.Namespace != Filesystem || addr.Name == "" {
		return nil
	}
	if err := os.Remove(addr.Name); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// waitReadable polls fd and the waker's descriptor. The waker wins when
// both are ready.
func waitReadable(fd int, w *Waker) error {
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	if w != nil {
		fds = append(fds, unix.PollFd{Fd: int32(w.fd), Events: unix.POLLIN})
	}
	for {
		_, err := unix.Poll(fds, -1)
		switch {
		case errors.Is(err, unix.EINTR):
			continue
		case err != nil:
			return os.NewSyscallError("poll", err)
		}
		if len(fds) > 1 && fds[1].Revents != 0 {
			return ErrWoken
		}
		if fds[0].Revents != 0 {
			return nil
		}
	}
}
