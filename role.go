package ipcstream

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gossip-lsp/ipcstream/unixsock"
)

// Role is the side a Channel plays. It is fixed by Open.
type Role uint8

const (
	// Sender connects to a listening Receiver.
	Sender Role = iota + 1
	// Receiver binds the name, listens and accepts exactly one Sender.
	Receiver
)

func (r Role) String() string {
	switch r {
	case Sender:
		return "sender"
	case Receiver:
		return "receiver"
	default:
		return fmt.Sprintf("role(%d)", uint8(r))
	}
}

// ParseRole parses "sender" or "receiver".
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "sender", "send", "dial":
		return Sender, nil
	case "receiver", "recv", "listen":
		return Receiver, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// roleConn holds exactly the descriptors meaningful to one role.
type roleConn interface {
	role() Role
	// socket is the descriptor used for I/O.
	socket() *unixsock.Socket
	// release closes the descriptors and removes anything the role
	// created on the filesystem.
	release() error
}

// receiverConn is the accepted peer. The listening socket is closed as
// soon as the peer is accepted; only the name is kept for cleanup.
type receiverConn struct {
	peer *unixsock.Socket
	addr unixsock.Addr
}

func (r *receiverConn) role() Role               { return Receiver }
func (r *receiverConn) socket() *unixsock.Socket { return r.peer }

func (r *receiverConn) release() error {
	return errors.Join(r.peer.Close(), unixsock.Unlink(r.addr))
}

// senderConn is the connected client socket.
type senderConn struct {
	conn *unixsock.Socket
}

func (s *senderConn) role() Role               { return Sender }
func (s *senderConn) socket() *unixsock.Socket { return s.conn }
func (s *senderConn) release() error           { return s.conn.Close() }
