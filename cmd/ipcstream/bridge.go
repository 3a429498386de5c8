package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/gossip-lsp/ipcstream"
	"github.com/gossip-lsp/ipcstream/config"
	"github.com/gossip-lsp/ipcstream/middleware"
	"github.com/gossip-lsp/ipcstream/transport"
	"github.com/gossip-lsp/ipcstream/unixsock"
)

// monitorSwitch feeds the channel's monitor buffer while enabled. The
// monitor setting is one of the few that apply while the channel is open.
type monitorSwitch struct {
	ch      *ipcstream.Channel
	enabled atomic.Bool
}

func (m *monitorSwitch) SetMonitor(p []byte) {
	if m.enabled.Load() {
		m.ch.SetMonitor(p)
	}
}

func (m *monitorSwitch) set(on bool) {
	if !m.enabled.Swap(on) || on {
		return
	}
	m.ch.RemoveMonitor()
}

func runBridge(ctx context.Context, role ipcstream.Role, name string, opts *commandOptions) error {
	cfg, err := ipcstream.LoadConfig(opts.configFile)
	if err != nil {
		return err
	}
	applyFlags(opts, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	lvl, _ := cfg.Level()

	level := new(slog.LevelVar)
	level.Set(lvl)
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	name, err = resolveName(name, role, cfg, opts)
	if err != nil {
		return err
	}
	chOpts, err := cfg.Options()
	if err != nil {
		return err
	}
	chOpts = append(chOpts,
		ipcstream.WithLogger(logger),
		ipcstream.WithEndpoints(ipcstream.Endpoint(opts.local), ipcstream.Endpoint(opts.remote)),
	)
	ch := ipcstream.New(name, chOpts...)

	monitor := &monitorSwitch{ch: ch}
	monitor.set(cfg.Monitor)

	store := config.NewStore(cfg)
	unsubscribe := store.OnChange(func(old, new_ *ipcstream.Config) {
		// Command-line flags keep precedence over the file.
		applyFlags(opts, new_)
		if l, err := new_.Level(); err == nil {
			level.Set(l)
		}
		monitor.set(new_.Monitor)
		if old.Name != new_.Name || old.Namespace != new_.Namespace || old.WriteTimeout != new_.WriteTimeout {
			logger.Warn("address and socket settings apply on the next run only")
		}
	})
	defer unsubscribe()

	if opts.configFile != "" {
		w, err := ipcstream.WatchConfig(opts.configFile, store, logger)
		if err != nil {
			logger.Warn("config hot reload disabled", "path", opts.configFile, "error", err)
		} else {
			defer w.Close()
		}
	}

	local, err := openLocal(opts.input, opts.output)
	if err != nil {
		return err
	}
	defer local.Close()

	logger.Info("opening channel", "name", ch.Addr(), "role", role)
	if err := ch.Open(ctx, role); err != nil {
		return err
	}
	defer ch.Close()
	logger.Info("channel open", "name", ch.Addr(), "role", role)

	metrics := middleware.NewMetrics()
	stream := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
		middleware.Telemetry(metrics),
		middleware.Tap(monitor, middleware.Both),
	)(ch)

	err = bridge(ctx, stream, local, opts.closeOnEOF, logger)

	for op, s := range metrics.Snapshot() {
		logger.Info("transfer summary", "op", op, "count", s.Count, "bytes", s.Bytes, "errors", s.Errors, "time", s.TotalTime)
	}
	return err
}

// resolveName picks the socket name: the argument, then the config file,
// then the name both peers derive from their contacts.
func resolveName(arg string, role ipcstream.Role, cfg *ipcstream.Config, opts *commandOptions) (string, error) {
	switch {
	case arg != "":
		return arg, nil
	case cfg.Name != "":
		return cfg.Name, nil
	case opts.local == "" || opts.remote == "":
		return "", errors.New("no socket name: pass NAME, set name in the config file, or give --local and --remote")
	}
	local, err := ipcstream.ParseContact(opts.local)
	if err != nil {
		return "", err
	}
	remote, err := ipcstream.ParseContact(opts.remote)
	if err != nil {
		return "", err
	}
	ns, err := unixsock.ParseNamespace(cfg.Namespace)
	if err != nil {
		return "", err
	}
	return ipcstream.PairName(opts.socketDir, ns, role, local, remote)
}

// bridge copies between stream and local until the peer closes the stream
// or ctx is cancelled. The local-to-stream copy runs detached since a read
// from stdin cannot be interrupted; closing stream makes it stop on its
// next write.
func bridge(ctx context.Context, stream, local transport.Transport, closeOnEOF bool, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		_, err := io.Copy(stream, local)
		switch {
		case err != nil && !errors.Is(err, ipcstream.ErrClosed):
			logger.Error("sending to peer", "error", err)
			cancel()
		case closeOnEOF:
			logger.Debug("input ended, closing channel")
			cancel()
		default:
			logger.Debug("input ended")
		}
	}()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		_, err := io.Copy(local, stream)
		if errors.Is(err, ipcstream.ErrClosed) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receiving from peer: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		return stream.Close()
	})
	return g.Wait()
}

// openLocal returns the local side of the bridge. "-" selects stdin or
// stdout.
func openLocal(input, output string) (transport.Transport, error) {
	if input == "-" && output == "-" {
		return transport.Stdio(), nil
	}
	var in io.ReadCloser = os.Stdin
	if input != "-" {
		f, err := os.Open(input)
		if err != nil {
			return nil, err
		}
		in = f
	}
	var out io.WriteCloser = os.Stdout
	if output != "-" {
		f, err := os.Create(output)
		if err != nil {
			in.Close()
			return nil, err
		}
		out = f
	}
	return transport.Join(in, out), nil
}
