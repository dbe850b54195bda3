package commands

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"chatterbox/internal/domain"
	"chatterbox/internal/protocol/sessionkey"
)

// keyCmd prints session keys the way the coordinator derives them.
func keyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Derive session keys",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "direct <peer> [self]",
		Short: "Key of the one-to-one session between self and peer",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			self := settings.Self
			if len(ids) == 2 {
				self = ids[1]
			}
			if self == domain.NullID {
				return fmt.Errorf("self id required (--self or second argument)")
			}
			fmt.Fprintln(cmd.OutOrStdout(), sessionkey.DirectKey(self, ids[0]))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "adhoc <participant>...",
		Short: "Match digest of an ad-hoc invitee set",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), sessionkey.AdHocMatchDigest(ids))
			return nil
		},
	})
	return cmd
}

func parseIDs(args []string) ([]domain.ParticipantID, error) {
	ids := make([]domain.ParticipantID, 0, len(args))
	for _, a := range args {
		id, err := uuid.Parse(a)
		if err != nil {
			return nil, fmt.Errorf("participant %q: %w", a, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
