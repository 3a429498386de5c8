// Command ipcstream bridges standard input and output to a local IPC
// stream. One side runs "ipcstream listen NAME", the other
// "ipcstream dial NAME". Two peers that know each other's host:port can
// leave NAME out and pass --local and --remote instead.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gossip-lsp/ipcstream"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ipcstream",
		Short:         "Stream bytes over a local IPC socket",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newRoleCommand(ipcstream.Receiver, "listen [NAME]", "Wait for one peer on NAME and bridge it to stdio"),
		newRoleCommand(ipcstream.Sender, "dial [NAME]", "Connect to the peer listening on NAME and bridge it to stdio"),
	)
	return cmd
}

func newRoleCommand(role ipcstream.Role, use, short string) *cobra.Command {
	var opts commandOptions
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + ".\n\nWithout NAME the name comes from the config file or, failing that,\n" +
			"is derived from --local and --remote (host:port), which must be on the same host.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.flags = cmd.Flags()
			var name string
			if len(args) == 1 {
				name = args[0]
			}
			return runBridge(cmd.Context(), role, name, &opts)
		},
	}
	installFlags(&opts, cmd.Flags())
	return cmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "ipcstream:", err)
		stop()
		os.Exit(1)
	}
}
