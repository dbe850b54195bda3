package commands

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// run: start the coordinator and the relay poller and stay online until
// interrupted. Incoming events are written to the log.
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Stay online and process relay events until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(false)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().
				Stringer("self", settings.Self).
				Str("relay", settings.RelayURL).
				Str("home", settings.Home).
				Msg("chatterbox online")
			return a.Run(ctx)
		},
	}
}
