package commands

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"chatterbox/internal/domain"
	"chatterbox/internal/store"
)

func lognameCmd() *cobra.Command {
	var (
		kind    string
		name    string
		key     string
		other   string
		targets []string
	)
	cmd := &cobra.Command{
		Use:   "logname",
		Short: "Print the transcript log name of a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := domain.LogNameInput{Kind: domain.Kind(kind), Name: name}
			if !in.Kind.Valid() {
				return fmt.Errorf("unknown kind %q", kind)
			}
			var err error
			if key != "" {
				if in.Key, err = uuid.Parse(key); err != nil {
					return fmt.Errorf("--key: %w", err)
				}
			} else {
				in.Key = uuid.New()
			}
			if other != "" {
				if in.Other, err = uuid.Parse(other); err != nil {
					return fmt.Errorf("--other: %w", err)
				}
			}
			if in.InitialTargets, err = parseIDs(targets); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), store.DeriveLogName(in, store.StaticResolver(settings.Handles), time.Now()))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(domain.KindOneToOne), "session kind (one_to_one, group, ad_hoc, bridge)")
	cmd.Flags().StringVar(&name, "name", "", "session or counterpart display name")
	cmd.Flags().StringVar(&key, "key", "", "session key")
	cmd.Flags().StringVar(&other, "other", "", "counterpart id for direct sessions")
	cmd.Flags().StringSliceVar(&targets, "targets", nil, "ad-hoc invitee ids")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
