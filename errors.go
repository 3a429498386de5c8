package ipcstream

import (
	"errors"
	"fmt"

	"github.com/gossip-lsp/ipcstream/unixsock"
)

// Error kinds. Every error returned by a Channel matches exactly one of
// these with errors.Is; the underlying syscall error is wrapped as well.
var (
	ErrSocketCreate          = errors.New("cannot create socket")
	ErrBind                  = errors.New("bind failed")
	ErrListen                = errors.New("listen failed")
	ErrAccept                = errors.New("accept failed")
	ErrConnectRetryExhausted = errors.New("connect retries exhausted")
	ErrRead                  = errors.New("read failed")
	ErrWrite                 = errors.New("write failed")
	ErrWriteTimeout          = errors.New("write timed out")
	ErrClosed                = errors.New("channel closed")
	ErrAlreadyOpen           = errors.New("channel already opened")
	ErrInvalidRole           = errors.New("invalid role")
	ErrDifferentHosts        = errors.New("endpoints are on different hosts")
	ErrInvalidAddr           = unixsock.ErrInvalidAddr
)

// OpError describes a failed channel operation.
type OpError struct {
	Op   string
	Role Role
	Addr unixsock.Addr
	Kind error
	Err  error
}

func (e *OpError) Error() string {
	msg := fmt.Sprintf("ipcstream: %s %s %s: %v", e.Op, e.Role, e.Addr, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Timeout reports whether the operation failed with a transient timeout.
// The channel stays usable after such an error.
func (e *OpError) Timeout() bool { return e.Kind == ErrWriteTimeout }

func (c *Channel) opError(op string, role Role, kind, err error) error {
	return &OpError{Op: op, Role: role, Addr: c.addr, Kind: kind, Err: err}
}
