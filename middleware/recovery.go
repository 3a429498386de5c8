package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/gossip-lsp/ipcstream/transport"
)

// ErrPanic is returned in place of a panic raised below Recovery.
var ErrPanic = errors.New("panic in transport")

// Recovery returns middleware that turns a panic in an inner layer, such as
// a monitor sink, into an error wrapping ErrPanic. The stack is logged.
func Recovery(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	guard := func(op string, err *error) {
		if r := recover(); r != nil {
			logger.Error("panic recovered in transport",
				"op", op,
				"panic", fmt.Sprint(r),
				"stack", string(debug.Stack()),
			)
			*err = fmt.Errorf("%w: %s: %v", ErrPanic, op, r)
		}
	}
	return func(next transport.Transport) transport.Transport {
		return &funcs{
			read: func(p []byte) (n int, err error) {
				defer guard("read", &err)
				return next.Read(p)
			},
			write: func(p []byte) (n int, err error) {
				defer guard("write", &err)
				return next.Write(p)
			},
			close: func() (err error) {
				defer guard("close", &err)
				return next.Close()
			},
		}
	}
}
