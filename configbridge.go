package ipcstream

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ipcconfig "github.com/gossip-lsp/ipcstream/config"
	"github.com/gossip-lsp/ipcstream/unixsock"
)

// Config is the file form of a channel's settings, as read from TOML:
//
//	name             = "/run/app/stream.sock"
//	namespace        = "filesystem"   # or "abstract"
//	role             = "receiver"     # or "sender"
//	backlog          = 2
//	connect_attempts = 5
//	connect_delay    = "10ms"
//	wake_attempts    = 3
//	wake_delay       = "250ms"
//	write_timeout    = "0s"
//	log_level        = "info"
//	monitor          = false
//
// Only log_level and monitor are meant to change while a channel is open;
// the rest apply to the next Open.
type Config struct {
	Name            string        `toml:"name"`
	Namespace       string        `toml:"namespace"`
	Role            string        `toml:"role"`
	Backlog         int           `toml:"backlog"`
	ConnectAttempts int           `toml:"connect_attempts"`
	ConnectDelay    time.Duration `toml:"connect_delay"`
	WakeAttempts    int           `toml:"wake_attempts"`
	WakeDelay       time.Duration `toml:"wake_delay"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	LogLevel        string        `toml:"log_level"`
	Monitor         bool          `toml:"monitor"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Namespace:       unixsock.Filesystem.String(),
		Backlog:         DefaultBacklog,
		ConnectAttempts: DefaultConnectAttempts,
		ConnectDelay:    DefaultConnectDelay,
		WakeAttempts:    DefaultWakeAttempts,
		WakeDelay:       DefaultWakeDelay,
		LogLevel:        "info",
	}
}

// Validate checks the config. An empty name or role is allowed here since
// either may come from the command line instead.
func (c *Config) Validate() error {
	var errs []error
	ns, err := unixsock.ParseNamespace(c.Namespace)
	if err != nil {
		errs = append(errs, err)
	} else if c.Name != "" {
		if err := (unixsock.Addr{Name: c.Name, Namespace: ns}).Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Role != "" {
		if _, err := ParseRole(c.Role); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Backlog < 1 {
		errs = append(errs, fmt.Errorf("backlog must be at least 1, got %d", c.Backlog))
	}
	if c.ConnectAttempts < 1 {
		errs = append(errs, fmt.Errorf("connect_attempts must be at least 1, got %d", c.ConnectAttempts))
	}
	if c.WakeAttempts < 1 {
		errs = append(errs, fmt.Errorf("wake_attempts must be at least 1, got %d", c.WakeAttempts))
	}
	for key, d := range map[string]time.Duration{
		"connect_delay": c.ConnectDelay,
		"wake_delay":    c.WakeDelay,
		"write_timeout": c.WriteTimeout,
	} {
		if d < 0 {
			errs = append(errs, fmt.Errorf("%s must not be negative, got %s", key, d))
		}
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level parses LogLevel.
func (c *Config) Level() (slog.Level, error) {
	var l slog.Level
	if strings.TrimSpace(c.LogLevel) == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}

// Options converts the config into channel options.
func (c *Config) Options() ([]Option, error) {
	ns, err := unixsock.ParseNamespace(c.Namespace)
	if err != nil {
		return nil, err
	}
	return []Option{
		WithNamespace(ns),
		WithBacklog(c.Backlog),
		WithConnectRetry(c.ConnectAttempts, c.ConnectDelay),
		WithWakeRetry(c.WakeAttempts, c.WakeDelay),
		WithWriteTimeout(c.WriteTimeout),
	}, nil
}

// LoadConfig reads a TOML config file on top of DefaultConfig. A missing
// file yields the defaults.
func LoadConfig(path string) (*Config, error) {
	defaults := DefaultConfig()
	return ipcconfig.LoadTOML(path, &defaults)
}

// WatchConfig keeps store in sync with the file at path until the returned
// watcher is closed. Reload failures are logged and leave the store as is.
func WatchConfig(path string, store *ipcconfig.Store[Config], logger *slog.Logger) (*ipcconfig.Watcher, error) {
	defaults := DefaultConfig()
	bridge := ipcconfig.NewReloadBridge(store, path, &defaults)
	return ipcconfig.NewWatcher(path, func() {
		if err := bridge.Reload(); err != nil {
			logger.Warn("failed to reload config", "path", path, "error", err)
			return
		}
		logger.Info("config reloaded", "path", path)
	}, ipcconfig.WithWatcherLogger(logger))
}
