package middleware

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gossip-lsp/ipcstream/transport"
)

// Metrics holds call counts, byte counts and duration statistics per
// transport operation ("read", "write", "close").
type Metrics struct {
	mu  sync.RWMutex
	ops map[string]*OpMetrics
}

// OpMetrics holds metrics for a single operation.
type OpMetrics struct {
	Count   atomic.Int64
	Errors  atomic.Int64
	Bytes   atomic.Int64
	TotalNs atomic.Int64
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{ops: make(map[string]*OpMetrics)}
}

func (m *Metrics) getOrCreate(op string) *OpMetrics {
	m.mu.RLock()
	om, ok := m.ops[op]
	m.mu.RUnlock()
	if ok {
		return om
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if om, ok := m.ops[op]; ok {
		return om
	}
	om = &OpMetrics{}
	m.ops[op] = om
	return om
}

// Snapshot returns a point-in-time copy of all operation metrics.
func (m *Metrics) Snapshot() map[string]OpSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]OpSnapshot, len(m.ops))
	for name, om := range m.ops {
		snap[name] = OpSnapshot{
			Count:     om.Count.Load(),
			Errors:    om.Errors.Load(),
			Bytes:     om.Bytes.Load(),
			TotalTime: time.Duration(om.TotalNs.Load()),
		}
	}
	return snap
}

// OpSnapshot is a point-in-time copy of metrics for one operation.
type OpSnapshot struct {
	Count     int64
	Errors    int64
	Bytes     int64
	TotalTime time.Duration
}

func (m *Metrics) record(op string, n int, start time.Time, err error) {
	om := m.getOrCreate(op)
	om.Count.Add(1)
	om.Bytes.Add(int64(n))
	om.TotalNs.Add(int64(time.Since(start)))
	if err != nil && !errors.Is(err, io.EOF) {
		om.Errors.Add(1)
	}
}

// Telemetry returns middleware that collects per-operation metrics.
// End of stream is not counted as an error.
func Telemetry(metrics *Metrics) Middleware {
	return func(next transport.Transport) transport.Transport {
		return &funcs{
			read: func(p []byte) (int, error) {
				start := time.Now()
				n, err := next.Read(p)
				metrics.record("read", n, start, err)
				return n, err
			},
			write: func(p []byte) (int, error) {
				start := time.Now()
				n, err := next.Write(p)
				metrics.record("write", n, start, err)
				return n, err
			},
			close: func() error {
				start := time.Now()
				err := next.Close()
				metrics.record("close", 0, start, err)
				return err
			},
		}
	}
}
