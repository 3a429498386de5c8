package main

import (
	"time"

	"github.com/spf13/pflag"

	"github.com/gossip-lsp/ipcstream"
)

const (
	flagConfigFile   = "config"
	flagAbstract     = "abstract"
	flagWriteTimeout = "write-timeout"
	flagLogLevel     = "log-level"
	flagMonitor      = "monitor"
)

type commandOptions struct {
	configFile string
	input      string
	output     string
	closeOnEOF bool
	local      string
	remote     string
	socketDir  string

	// Values below override the config file only when set on the
	// command line.
	abstract     bool
	writeTimeout time.Duration
	logLevel     string
	monitor      bool

	flags *pflag.FlagSet
}

func installFlags(opts *commandOptions, flags *pflag.FlagSet) {
	flags.StringVarP(&opts.configFile, flagConfigFile, "c", "", "TOML configuration file, reloaded on change")
	flags.StringVarP(&opts.input, "input", "i", "-", "File to send to the peer, - for stdin")
	flags.StringVarP(&opts.output, "output", "o", "-", "File to write received data to, - for stdout")
	flags.BoolVar(&opts.closeOnEOF, "close-on-eof", false, "Close the channel when the input ends")
	flags.StringVar(&opts.local, "local", "", "Identifier of this endpoint, host:port when NAME is derived")
	flags.StringVar(&opts.remote, "remote", "", "Identifier of the peer endpoint, host:port when NAME is derived")
	flags.StringVar(&opts.socketDir, "socket-dir", ipcstream.DefaultSocketDir, "Directory for derived socket names")

	flags.BoolVar(&opts.abstract, flagAbstract, false, "Use the abstract socket namespace")
	flags.DurationVar(&opts.writeTimeout, flagWriteTimeout, 0, "Drop writes that block longer than this (0 blocks forever)")
	flags.StringVar(&opts.logLevel, flagLogLevel, "info", "Log level (debug, info, warn, error)")
	flags.BoolVar(&opts.monitor, flagMonitor, false, "Keep a copy of the latest chunk in the channel's monitor buffer")
}

// applyFlags overlays explicitly set flags onto cfg.
func applyFlags(opts *commandOptions, cfg *ipcstream.Config) {
	if opts.flags.Changed(flagAbstract) {
		if opts.abstract {
			cfg.Namespace = "abstract"
		} else {
			cfg.Namespace = "filesystem"
		}
	}
	if opts.flags.Changed(flagWriteTimeout) {
		cfg.WriteTimeout = opts.writeTimeout
	}
	if opts.flags.Changed(flagLogLevel) {
		cfg.LogLevel = opts.logLevel
	}
	if opts.flags.Changed(flagMonitor) {
		cfg.Monitor = opts.monitor
	}
}
