package cli

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/capitalize-ai/support-router/internal/ingest"
)

func newWatchCommand(open openFunc) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <dir>",
		Short: "Ingest documents as they are created or changed in a directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "watching %s (Ctrl-C to stop)\n", args[0])
			return ingest.NewWatcher(args[0], a.Processor, a.Logger).Run(ctx)
		},
	}
}
