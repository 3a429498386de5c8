package ipcstream

import (
	"errors"

	"github.com/gossip-lsp/ipcstream/unixsock"
)

// Interrupt forces any goroutine blocked in Read to return and stops the
// channel from starting new I/O. The descriptors stay open until Close.
//
// Concurrent callers are serialized: one of them signals the wake
// descriptor, the others block until it has finished. Interrupt on a
// channel that is not open and healthy returns immediately. During Open it
// aborts the pending accept or connect.
func (c *Channel) Interrupt() {
	if c.state.abortOpen() {
		return
	}
	w, actor := c.state.beginInterrupt()
	if !actor {
		return
	}
	defer c.state.endInterrupt()
	c.wake(w)
}

// wake signals w, retrying a bounded number of times. The retry delay is
// skipped once the channel has been marked unhealthy, which Close does
// while waiting for this to finish.
func (c *Channel) wake(w *unixsock.Waker) {
	for attempt := 1; attempt <= c.opts.wakeAttempts; attempt++ {
		err := w.Wake()
		if err == nil {
			return
		}
		c.logger.Warn("wake failed", "name", c.addr, "attempt", attempt, "error", err)
		if attempt < c.opts.wakeAttempts && c.state.healthy() {
			c.opts.delay(c.opts.wakeDelay)
		}
	}
}

// Close interrupts pending reads, shuts the socket down, waits for
// in-flight calls to return and releases the descriptors. The Receiver also
// removes its socket file. Close is idempotent; calls after the first
// return nil immediately.
func (c *Channel) Close() error {
	c.Interrupt()

	conn, w, ok := c.state.closing()
	if !ok {
		return nil
	}
	sock := conn.socket()
	if err := sock.Shutdown(); err != nil {
		c.logger.Debug("shutdown failed", "name", c.addr, "error", err)
	}
	c.state.drain()

	err := errors.Join(conn.release(), w.Close())
	if err != nil {
		c.logger.Warn("closing channel", "name", c.addr, "role", conn.role(), "error", err)
		return c.opError("close", conn.role(), ErrClosed, err)
	}
	c.logger.Debug("channel closed", "name", c.addr, "role", conn.role())
	return nil
}
