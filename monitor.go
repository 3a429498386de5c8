package ipcstream

import "bytes"

// SetMonitor stores an independent copy of p as the channel's monitor
// buffer. The monitor is for inspection only and is not fed by Read or
// Write; middleware.Tap connects it to a data path.
func (c *Channel) SetMonitor(p []byte) {
	cp := bytes.Clone(p)
	c.meta.Lock()
	defer c.meta.Unlock()
	c.monitor = cp
}

// Monitor returns a copy of the monitor buffer, or nil if none is set.
func (c *Channel) Monitor() []byte {
	c.meta.RLock()
	defer c.meta.RUnlock()
	return bytes.Clone(c.monitor)
}

// RemoveMonitor clears the monitor buffer.
func (c *Channel) RemoveMonitor() {
	c.meta.Lock()
	defer c.meta.Unlock()
	c.monitor = nil
}
