package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/gossip-lsp/ipcstream/transport"
)

// Logging returns middleware that logs each read, write and close with its
// byte count, duration and error. Successful calls and end of stream are
// logged at debug level, failures at error level.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next transport.Transport) transport.Transport {
		logOp := func(op string, n int, start time.Time, err error) {
			attrs := []slog.Attr{
				slog.String("op", op),
				slog.Int("bytes", n),
				slog.Duration("duration", time.Since(start)),
			}
			if err != nil && !errors.Is(err, io.EOF) {
				attrs = append(attrs, slog.String("error", err.Error()))
				logger.LogAttrs(context.Background(), slog.LevelError, "transport call failed", attrs...)
				return
			}
			logger.LogAttrs(context.Background(), slog.LevelDebug, "transport call", attrs...)
		}
		return &funcs{
			read: func(p []byte) (int, error) {
				start := time.Now()
				n, err := next.Read(p)
				logOp("read", n, start, err)
				return n, err
			},
			write: func(p []byte) (int, error) {
				start := time.Now()
				n, err := next.Write(p)
				logOp("write", n, start, err)
				return n, err
			},
			close: func() error {
				start := time.Now()
				err := next.Close()
				logOp("close", 0, start, err)
				return err
			},
		}
	}
}
