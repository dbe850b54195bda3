package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"chatterbox/internal/domain"
	"chatterbox/internal/store"
)

// historyCmd prints the tail of a transcript written under --home.
func historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [log-name]",
		Short: "Print a stored transcript, or list transcripts without an argument",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ts := store.NewTranscriptFileStore(settings.Home, logger)
			defer ts.Close()
			out := cmd.OutOrStdout()

			if len(args) == 0 {
				entries, err := ts.Index().List()
				if err != nil {
					return err
				}
				for _, e := range entries {
					fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", e.LastActivity.Format("2006-01-02 15:04"), e.Kind, e.LastKey, e.LogName)
				}
				return nil
			}

			entries, err := ts.History(domain.TranscriptHandle(args[0]), limit)
			if err != nil {
				return err
			}
			for _, e := range entries {
				fmt.Fprintf(out, "[%s] %s: %s\n", e.Time.Format("15:04:05"), e.Author, e.Text)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "number of lines to print (0 for all)")
	return cmd
}
