package ipcstream

import (
	"log/slog"
	"os"
	"time"

	"github.com/gossip-lsp/ipcstream/unixsock"
)

// Defaults for the establishment and wake budgets.
const (
	DefaultBacklog         = 2
	DefaultConnectAttempts = 5
	DefaultConnectDelay    = 10 * time.Millisecond
	DefaultWakeAttempts    = 3
	DefaultWakeDelay       = 250 * time.Millisecond
)

// Option configures a Channel during construction.
type Option func(*options)

// DelayFunc blocks for d. It is the only sleep used by a Channel: between
// connect attempts and between failed wake attempts.
type DelayFunc func(d time.Duration)

type options struct {
	namespace       unixsock.Namespace
	backlog         int
	connectAttempts int
	connectDelay    time.Duration
	wakeAttempts    int
	wakeDelay       time.Duration
	writeTimeout    time.Duration
	socketDir       string
	delay           DelayFunc
	logger          *slog.Logger
	local, remote   Endpoint
}

func defaultOptions() options {
	return options{
		namespace:       unixsock.Filesystem,
		backlog:         DefaultBacklog,
		connectAttempts: DefaultConnectAttempts,
		connectDelay:    DefaultConnectDelay,
		wakeAttempts:    DefaultWakeAttempts,
		wakeDelay:       DefaultWakeDelay,
		socketDir:       DefaultSocketDir,
		delay:           time.Sleep,
		logger:          slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})),
	}
}

// WithNamespace selects filesystem or abstract addressing for the name.
func WithNamespace(ns unixsock.Namespace) Option {
	return func(o *options) { o.namespace = ns }
}

// WithAbstract is shorthand for WithNamespace(unixsock.Abstract).
func WithAbstract() Option {
	return WithNamespace(unixsock.Abstract)
}

// WithBacklog sets the Receiver's listen backlog (default 2).
func WithBacklog(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.backlog = n
		}
	}
}

// WithConnectRetry sets how many times a Sender tries to connect and how
// long it waits between attempts (default 5 attempts, 10ms apart).
func WithConnectRetry(attempts int, delay time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.connectAttempts = attempts
		}
		if delay >= 0 {
			o.connectDelay = delay
		}
	}
}

// WithWakeRetry sets how many times the interrupt actor retries a failed
// wake and how long it waits in between (default 3 attempts, 250ms).
func WithWakeRetry(attempts int, delay time.Duration) Option {
	return func(o *options) {
		if attempts > 0 {
			o.wakeAttempts = attempts
		}
		if delay >= 0 {
			o.wakeDelay = delay
		}
	}
}

// WithWriteTimeout bounds each blocking send. A write that hits the timeout
// is dropped without closing the channel. Zero (the default) means writes
// block until the peer drains the socket.
func WithWriteTimeout(d time.Duration) Option {
	return func(o *options) { o.writeTimeout = d }
}

// WithSocketDir sets the directory OpenPair puts filesystem names in
// (default DefaultSocketDir).
func WithSocketDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.socketDir = dir
		}
	}
}

// WithDelay replaces time.Sleep as the channel's delay primitive.
func WithDelay(fn DelayFunc) Option {
	return func(o *options) {
		if fn != nil {
			o.delay = fn
		}
	}
}

// WithLogger sets a custom slog logger on the channel.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEndpoints presets the endpoint identifiers reported by LocalEndpoint
// and RemoteEndpoint.
func WithEndpoints(local, remote Endpoint) Option {
	return func(o *options) {
		o.local = local
		o.remote = remote
	}
}
