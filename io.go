package ipcstream

import (
	"errors"
	"io"

	"github.com/gossip-lsp/ipcstream/unixsock"
)

// Read reads from the peer. It blocks until data arrives, the peer closes
// its end, or the channel is interrupted or closed.
//
// Read fails with ErrClosed without blocking once the channel is closed or
// unhealthy. A Read released by Interrupt or Close returns ErrClosed and
// marks the channel unhealthy, as does end of stream, which returns io.EOF.
// Any other read error is returned wrapped in ErrRead and leaves the
// health flag as it was.
func (c *Channel) Read(p []byte) (int, error) {
	sock, w, ok := c.state.acquire()
	if !ok {
		return 0, ErrClosed
	}
	defer c.state.release()

	if len(p) == 0 {
		return 0, nil
	}
	n, err := sock.Read(p, w)
	switch {
	case errors.Is(err, unixsock.ErrWoken):
		c.state.fault()
		return 0, ErrClosed
	case err != nil:
		c.logger.Warn("read failed", "name", c.addr, "error", err)
		return 0, c.opError("read", c.Role(), ErrRead, err)
	case n == 0:
		c.state.fault()
		c.logger.Debug("peer closed the stream", "name", c.addr)
		return 0, io.EOF
	}
	return n, nil
}

// Write sends p to the peer.
//
// On a closed or unhealthy channel Write runs Close and returns ErrClosed.
// A write that times out (see WithWriteTimeout) drops the unsent remainder
// and returns an error matching ErrWriteTimeout; the channel stays open.
// Any other failure closes the channel.
func (c *Channel) Write(p []byte) (int, error) {
	sock, _, ok := c.state.acquire()
	if !ok {
		c.Close()
		return 0, ErrClosed
	}
	n, err := sock.Write(p)
	c.state.release()

	switch {
	case err == nil:
		return n, nil
	case c.state.closed():
		// Interrupt or Close is tearing the socket down under this write.
		return n, ErrClosed
	case unixsock.IsTimeout(err):
		c.logger.Debug("write timed out, dropping remainder",
			"name", c.addr, "written", n, "dropped", len(p)-n)
		return n, c.opError("write", c.Role(), ErrWriteTimeout, err)
	}
	c.logger.Error("write failed, closing channel", "name", c.addr, "error", err)
	c.Close()
	return n, c.opError("write", c.Role(), ErrWrite, err)
}

// IsOK reports whether the channel is usable. It turns true when Open
// succeeds and false for good on end of stream, a Read released by
// Interrupt, a fatal write error, or Close. It is the only liveness check.
func (c *Channel) IsOK() bool { return c.state.healthy() }

// Closed reports whether Interrupt or Close has run.
func (c *Channel) Closed() bool { return c.state.closed() }

// Flush is a no-op; writes are unbuffered.
func (c *Channel) Flush() error { return nil }

// Reset is a no-op.
func (c *Channel) Reset() {}

// BeginPacket is a no-op; the stream has no packet boundaries.
func (c *Channel) BeginPacket() {}

// EndPacket is a no-op.
func (c *Channel) EndPacket() {}
