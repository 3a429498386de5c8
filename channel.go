package ipcstream

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/gossip-lsp/ipcstream/transport"
	"github.com/gossip-lsp/ipcstream/unixsock"
)

var _ transport.Transport = (*Channel)(nil)

// Endpoint is an opaque identifier for one side of a channel. It is set by
// the integration layer and never derived from the socket.
type Endpoint string

// Channel is one end of a local IPC byte stream. A Channel is created with
// a name only and becomes usable after Open. It is safe for one goroutine to
// block in Read while others call Write, Interrupt or Close.
type Channel struct {
	addr   unixsock.Addr
	opts   options
	logger *slog.Logger

	state lifecycle

	meta          sync.RWMutex
	monitor       []byte
	local, remote Endpoint
}

// New creates an unopened channel for the given socket name.
func New(name string, opts ...Option) *Channel {
	o := defaultOptions()
	for _, fn := range opts {
		fn(&o)
	}
	c := &Channel{
		addr:   unixsock.Addr{Name: name, Namespace: o.namespace},
		opts:   o,
		logger: o.logger,
		local:  o.local,
		remote: o.remote,
	}
	c.state.init()
	return c
}

// Listen creates a Receiver channel on name and waits for one Sender.
func Listen(ctx context.Context, name string, opts ...Option) (*Channel, error) {
	c := New(name, opts...)
	if err := c.Open(ctx, Receiver); err != nil {
		return nil, err
	}
	return c, nil
}

// Dial creates a Sender channel connected to the Receiver on name.
func Dial(ctx context.Context, name string, opts ...Option) (*Channel, error) {
	c := New(name, opts...)
	if err := c.Open(ctx, Sender); err != nil {
		return nil, err
	}
	return c, nil
}

// Addr returns the socket address.
func (c *Channel) Addr() unixsock.Addr { return c.addr }

// Role returns the role passed to Open, or zero before Open.
func (c *Channel) Role() Role { return c.state.currentRole() }

// Logger returns the channel's logger.
func (c *Channel) Logger() *slog.Logger { return c.logger }

// Open establishes the connection in the given role. A Receiver removes a
// stale socket file, binds, listens and blocks until one Sender connects. A
// Sender connects, retrying while the Receiver is still starting. Open may
// be called once; a failed Open leaves the channel unusable.
//
// Cancelling ctx, or calling Interrupt or Close from another goroutine,
// aborts a pending Open.
func (c *Channel) Open(ctx context.Context, role Role) error {
	if role != Sender && role != Receiver {
		return c.opError("open", role, ErrInvalidRole, nil)
	}
	if err := c.addr.Validate(); err != nil {
		return c.opError("open", role, ErrInvalidAddr, err)
	}
	w, err := unixsock.NewWaker()
	if err != nil {
		return c.opError("open", role, ErrSocketCreate, err)
	}
	if err := c.state.beginOpen(role, w); err != nil {
		w.Close()
		return c.opError("open", role, err, nil)
	}

	stop := context.AfterFunc(ctx, func() { c.state.abortOpen() })
	defer stop()

	var conn roleConn
	switch role {
	case Receiver:
		conn, err = c.listen(w)
	case Sender:
		conn, err = c.connect(ctx)
	}
	if err == nil && !c.state.commitOpen(conn) {
		if rerr := conn.release(); rerr != nil {
			c.logger.Warn("releasing aborted connection", "name", c.addr, "error", rerr)
		}
		err = c.opError("open", role, ErrClosed, ctx.Err())
	}
	if err != nil {
		c.state.failOpen()
		w.Close()
		c.logger.Debug("open failed", "name", c.addr, "role", role, "error", err)
		return err
	}

	c.logger.Debug("channel open", "name", c.addr, "role", role)
	return nil
}

func (c *Channel) listen(w *unixsock.Waker) (roleConn, error) {
	ln, err := unixsock.NewSocket()
	if err != nil {
		return nil, c.opError("socket", Receiver, ErrSocketCreate, err)
	}
	// Only one peer is ever accepted.
	defer ln.Close()

	if err := unixsock.Unlink(c.addr); err != nil {
		c.logger.Debug("removing stale socket", "name", c.addr, "error", err)
	}
	if err := ln.Bind(c.addr); err != nil {
		return nil, c.opError("bind", Receiver, ErrBind, err)
	}
	if err := ln.Listen(c.opts.backlog); err != nil {
		unixsock.Unlink(c.addr)
		return nil, c.opError("listen", Receiver, ErrListen, err)
	}

	peer, err := ln.Accept(w)
	if err != nil {
		unixsock.Unlink(c.addr)
		if errors.Is(err, unixsock.ErrWoken) {
			return nil, c.opError("accept", Receiver, ErrClosed, nil)
		}
		return nil, c.opError("accept", Receiver, ErrAccept, err)
	}
	if err := c.applySocketOptions(peer); err != nil {
		peer.Close()
		unixsock.Unlink(c.addr)
		return nil, c.opError("accept", Receiver, ErrAccept, err)
	}
	return &receiverConn{peer: peer, addr: c.addr}, nil
}

func (c *Channel) connect(ctx context.Context) (roleConn, error) {
	sock, err := unixsock.NewSocket()
	if err != nil {
		return nil, c.opError("socket", Sender, ErrSocketCreate, err)
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.connectAttempts; attempt++ {
		lastErr = sock.Connect(c.addr)
		if lastErr == nil {
			if err := c.applySocketOptions(sock); err != nil {
				sock.Close()
				return nil, c.opError("connect", Sender, ErrSocketCreate, err)
			}
			return &senderConn{conn: sock}, nil
		}
		c.logger.Debug("connect attempt failed", "name", c.addr, "attempt", attempt, "error", lastErr)
		if attempt == c.opts.connectAttempts || ctx.Err() != nil || c.state.aborted() {
			break
		}
		c.opts.delay(c.opts.connectDelay)
	}
	sock.Close()

	if ctx.Err() != nil || c.state.aborted() {
		return nil, c.opError("connect", Sender, ErrClosed, ctx.Err())
	}
	return nil, c.opError("connect", Sender, ErrConnectRetryExhausted,
		fmt.Errorf("%d attempts: %w", c.opts.connectAttempts, lastErr))
}

func (c *Channel) applySocketOptions(s *unixsock.Socket) error {
	if c.opts.writeTimeout > 0 {
		return s.SetWriteTimeout(c.opts.writeTimeout)
	}
	return nil
}

// SetEndpoints records the endpoint identifiers for this channel.
func (c *Channel) SetEndpoints(local, remote Endpoint) {
	c.meta.Lock()
	defer c.meta.Unlock()
	c.local, c.remote = local, remote
}

// LocalEndpoint returns the identifier of this side.
func (c *Channel) LocalEndpoint() Endpoint {
	c.meta.RLock()
	defer c.meta.RUnlock()
	return c.local
}

// RemoteEndpoint returns the identifier of the peer.
func (c *Channel) RemoteEndpoint() Endpoint {
	c.meta.RLock()
	defer c.meta.RUnlock()
	return c.remote
}

func (c *Channel) String() string {
	p, faulted := c.state.snapshot()
	return fmt.Sprintf("ipcstream.Channel{%s %s %s faulted=%t}", c.Role(), c.addr, p, faulted)
}
