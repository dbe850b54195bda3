package commands

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"chatterbox/internal/simulate"
)

// simulate <script.jsonl>: replay a script without a relay and print the
// resulting sessions, sent messages and events as JSON.
func simulateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate <script.jsonl>",
		Short: "Replay a scripted conversation against an in-memory coordinator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			steps, err := simulate.ParseScript(f)
			if err != nil {
				return err
			}

			opts := simulate.Options{Self: settings.Self, SelfName: settings.DisplayName, Timeout: settings.NegotiationTimeout, Log: logger}
			res, err := simulate.Run(cmd.Context(), steps, opts)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}
}
