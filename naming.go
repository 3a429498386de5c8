package ipcstream

import (
	"context"
	"errors"
	"fmt"
	"net"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gossip-lsp/ipcstream/unixsock"
)

// DefaultSocketDir is where pair names live in the filesystem namespace.
const DefaultSocketDir = "/tmp"

// Contact is where a process can be reached by whatever service paired it
// with its peer: a host and a port number. Two processes that know each
// other's contact derive the same socket name without exchanging it.
type Contact struct {
	Host string
	Port int
}

// ParseContact parses "host:port".
func ParseContact(s string) (Contact, error) {
	host, port, err := net.SplitHostPort(s)
	if err != nil {
		return Contact{}, fmt.Errorf("contact %q: %w", s, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return Contact{}, fmt.Errorf("contact %q: invalid port %q", s, port)
	}
	return Contact{Host: host, Port: n}, nil
}

func (c Contact) String() string { return net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) }

// Endpoint returns the contact as an endpoint identifier.
func (c Contact) Endpoint() Endpoint { return Endpoint(c.String()) }

// SameHost fails with ErrDifferentHosts unless both contacts name the same
// host. A local socket cannot cross machines.
func SameHost(local, remote Contact) error {
	if !strings.EqualFold(local.Host, remote.Host) {
		return fmt.Errorf("%w: %s and %s", ErrDifferentHosts, local.Host, remote.Host)
	}
	return nil
}

func pairBase(receiver, sender Contact) string {
	return fmt.Sprintf("ipcstream-%d_%d.sock", receiver.Port, sender.Port)
}

// SocketPathFor returns the filesystem name a receiver and a sender share:
// dir/ipcstream-<receiver port>_<sender port>.sock. An empty dir means
// DefaultSocketDir.
func SocketPathFor(dir string, receiver, sender Contact) string {
	if dir == "" {
		dir = DefaultSocketDir
	}
	return filepath.Join(dir, pairBase(receiver, sender))
}

// PairName returns the socket name that the side playing role uses to
// reach its peer. local is this process, remote the peer. In the abstract
// namespace dir is ignored.
func PairName(dir string, ns unixsock.Namespace, role Role, local, remote Contact) (string, error) {
	if err := SameHost(local, remote); err != nil {
		return "", err
	}
	receiver, sender := local, remote
	switch role {
	case Receiver:
	case Sender:
		receiver, sender = remote, local
	default:
		return "", fmt.Errorf("%w: %v", ErrInvalidRole, role)
	}
	if ns == unixsock.Abstract {
		return pairBase(receiver, sender), nil
	}
	return SocketPathFor(dir, receiver, sender), nil
}

// OpenPair opens a channel between local and remote in the given role. The
// socket name comes from PairName, using the directory set by
// WithSocketDir, and the contacts become the channel's endpoints.
func OpenPair(ctx context.Context, role Role, local, remote Contact, opts ...Option) (*Channel, error) {
	c := New("", opts...)
	name, err := PairName(c.opts.socketDir, c.opts.namespace, role, local, remote)
	if err != nil {
		kind := ErrDifferentHosts
		if errors.Is(err, ErrInvalidRole) {
			kind = ErrInvalidRole
		}
		return nil, c.opError("open", role, kind, err)
	}
	c.addr.Name = name
	c.SetEndpoints(local.Endpoint(), remote.Endpoint())
	if err := c.Open(ctx, role); err != nil {
		return nil, err
	}
	return c, nil
}
