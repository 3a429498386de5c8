package ipcstream_test

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gossip-lsp/ipcstream"
	"github.com/gossip-lsp/ipcstream/config"
	"github.com/gossip-lsp/ipcstream/ipctest"
	"github.com/gossip-lsp/ipcstream/unixsock"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := ipcstream.LoadConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if *cfg != ipcstream.DefaultConfig() {
		t.Errorf("got %+v, want the defaults", *cfg)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := ipctest.WriteConfig(t, `
name = "stream"
namespace = "abstract"
role = "sender"
connect_attempts = 9
write_timeout = "150ms"
log_level = "debug"
monitor = true
`)
	cfg, err := ipcstream.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.ConnectAttempts != 9 || cfg.WriteTimeout != 150*time.Millisecond || !cfg.Monitor {
		t.Errorf("unexpected config %+v", *cfg)
	}
	if cfg.Backlog != ipcstream.DefaultBacklog {
		t.Errorf("backlog = %d, want the default", cfg.Backlog)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatal(err)
	}
	ch := ipcstream.New(cfg.Name, opts...)
	if ch.Addr().Namespace != unixsock.Abstract {
		t.Errorf("namespace = %v, want abstract", ch.Addr().Namespace)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*ipcstream.Config)
		wantErr string
	}{
		{"defaults", func(*ipcstream.Config) {}, ""},
		{"backlog", func(c *ipcstream.Config) { c.Backlog = 0 }, "backlog"},
		{"connect attempts", func(c *ipcstream.Config) { c.ConnectAttempts = 0 }, "connect_attempts"},
		{"wake attempts", func(c *ipcstream.Config) { c.WakeAttempts = -1 }, "wake_attempts"},
		{"negative delay", func(c *ipcstream.Config) { c.ConnectDelay = -time.Second }, "connect_delay"},
		{"role", func(c *ipcstream.Config) { c.Role = "observer" }, "invalid role"},
		{"namespace", func(c *ipcstream.Config) { c.Namespace = "network" }, "namespace"},
		{"level", func(c *ipcstream.Config) { c.LogLevel = "loud" }, "log_level"},
		{"name", func(c *ipcstream.Config) { c.Name = "@hidden" }, "invalid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := ipcstream.DefaultConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestWatchConfigReloads(t *testing.T) {
	path := ipctest.WriteConfig(t, "log_level = \"info\"\n")
	cfg, err := ipcstream.LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	store := config.NewStore(cfg)
	w, err := ipcstream.WatchConfig(path, store, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	rewrite(t, path, "log_level = \"debug\"\nmonitor = true\n")
	ipctest.Eventually(t, 2*time.Second, "config reload", func() bool {
		return store.Get().Monitor
	})
	if l, _ := store.Get().Level(); l.String() != "DEBUG" {
		t.Errorf("level after reload = %v, want DEBUG", l)
	}

	// A broken file leaves the last good config in place.
	rewrite(t, path, "monitor = maybe\n")
	time.Sleep(300 * time.Millisecond)
	if !store.Get().Monitor {
		t.Error("invalid config replaced the stored one")
	}
}

func rewrite(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}
