// Package middleware provides composable decorators for transports.
// Middleware wraps a transport.Transport, so cross-cutting concerns such as
// logging, telemetry and monitor taps can be layered over an
// ipcstream.Channel without touching its I/O path.
package middleware

import "github.com/gossip-lsp/ipcstream/transport"

// Middleware wraps a Transport to add cross-cutting behavior.
type Middleware func(transport.Transport) transport.Transport

// Chain composes multiple middleware into a single middleware.
// Middleware is applied in the order given: the first middleware in the slice
// is the outermost wrapper (sees each call first).
func Chain(mws ...Middleware) Middleware {
	return func(next transport.Transport) transport.Transport {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

// funcs adapts three closures into a Transport.
type funcs struct {
	read  func([]byte) (int, error)
	write func([]byte) (int, error)
	close func() error
}

func (f *funcs) Read(p []byte) (int, error)  { return f.read(p) }
func (f *funcs) Write(p []byte) (int, error) { return f.write(p) }
func (f *funcs) Close() error                { return f.close() }
