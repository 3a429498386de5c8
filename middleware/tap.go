package middleware

import "github.com/gossip-lsp/ipcstream/transport"

// MonitorSink receives copies of data for inspection.
// *ipcstream.Channel implements it through SetMonitor.
type MonitorSink interface {
	SetMonitor(p []byte)
}

// Direction selects which side of the data path a tap copies.
type Direction uint8

const (
	Inbound  Direction = 1 << iota // data returned by Read
	Outbound                       // data accepted by Write
	Both     = Inbound | Outbound
)

// Tap returns middleware that copies the most recent chunk flowing in the
// selected directions into sink. Only the bytes actually transferred are
// copied; the sink owns its copy.
func Tap(sink MonitorSink, dir Direction) Middleware {
	return func(next transport.Transport) transport.Transport {
		return &funcs{
			read: func(p []byte) (int, error) {
				n, err := next.Read(p)
				if n > 0 && dir&Inbound != 0 {
					sink.SetMonitor(p[:n])
				}
				return n, err
			},
			write: func(p []byte) (int, error) {
				n, err := next.Write(p)
				if n > 0 && dir&Outbound != 0 {
					sink.SetMonitor(p[:n])
				}
				return n, err
			},
			close: next.Close,
		}
	}
}
