// Package unixsock wraps raw AF_UNIX stream descriptors. Sockets are left in
// blocking mode; reads and accepts additionally wait on a Waker so another
// goroutine can force them to return without closing the descriptor.
package unixsock

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidAddr is returned for names that cannot be encoded as a
	// sockaddr_un.
	ErrInvalidAddr = errors.New("invalid socket address")

	// ErrWoken is returned by blocking calls that were released by a Waker.
	ErrWoken = errors.New("woken")

	// ErrNotSupported is returned on platforms without AF_UNIX support.
	ErrNotSupported = errors.New("unix sockets not supported on this platform")
)

// Namespace selects how a socket name is encoded.
type Namespace uint8

const (
	// Filesystem names are paths; the listener creates a socket file there.
	Filesystem Namespace = iota
	// Abstract names live in the Linux abstract namespace and never touch
	// the filesystem. They are encoded with a leading NUL byte.
	Abstract
)

func (n Namespace) String() string {
	switch n {
	case Filesystem:
		return "filesystem"
	case Abstract:
		return "abstract"
	default:
		return fmt.Sprintf("namespace(%d)", uint8(n))
	}
}

// ParseNamespace parses "filesystem" or "abstract". An empty string selects
// Filesystem.
func ParseNamespace(s string) (Namespace, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "filesystem", "path":
		return Filesystem, nil
	case "abstract":
		return Abstract, nil
	}
	return 0, fmt.Errorf("unknown socket namespace %q", s)
}

// sun_path is 108 bytes on Linux. Filesystem names need a trailing NUL;
// abstract names spend their first byte on the NUL marker instead.
const maxNameLen = 107

// Addr is a local socket address.
type Addr struct {
	Name      string
	Namespace Namespace
}

// Network implements net.Addr.
func (a Addr) Network() string { return "unix" }

// String implements net.Addr. Abstract names are shown with the
// conventional '@' prefix.
func (a Addr) String() string {
	if a.Namespace == Abstract {
		return "@" + a.Name
	}
	return a.Name
}

// Validate reports whether the address can be encoded.
func (a Addr) Validate() error {
	switch {
	case a.Name == "":
		return fmt.Errorf("%w: empty name", ErrInvalidAddr)
	case strings.IndexByte(a.Name, 0) >= 0:
		return fmt.Errorf("%w: name contains NUL", ErrInvalidAddr)
	case len(a.Name) > maxNameLen:
		return fmt.Errorf("%w: name is %d bytes, limit is %d", ErrInvalidAddr, len(a.Name), maxNameLen)
	}
	switch a.Namespace {
	case Filesystem:
		// A leading '@' is how the kernel-facing encoding marks abstract
		// names, so a path cannot start with it.
		if a.Name[0] == '@' {
			return fmt.Errorf("%w: filesystem name %q starts with '@'", ErrInvalidAddr, a.Name)
		}
	case Abstract:
	default:
		return fmt.Errorf("%w: unknown namespace %d", ErrInvalidAddr, a.Namespace)
	}
	return nil
}

// encodedName is the Name used for unix.SockaddrUnix, where a leading '@'
// is rewritten to NUL.
func (a Addr) encodedName() string {
	if a.Namespace == Abstract {
		return "@" + a.Name
	}
	return a.Name
}
