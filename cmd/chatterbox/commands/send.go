package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"chatterbox/internal/coordinator"
	"chatterbox/internal/domain"
)

// send: open (or reuse) a session, send one message and wait until the relay
// confirmed the session and the message went out.
func sendCmd() *cobra.Command {
	var (
		kind string
		to   []string
		name string
	)
	cmd := &cobra.Command{
		Use:   "send <message>",
		Short: "Send a message to a peer, a group or an ad-hoc conference",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(to)
			if err != nil {
				return err
			}
			if len(ids) == 0 {
				return fmt.Errorf("--to required")
			}
			req := coordinator.OpenRequest{Kind: domain.Kind(kind), Name: name}
			if req.Kind == domain.KindAdHoc {
				req.Participants = ids
			} else {
				req.Target = ids[0]
			}
			if req.Name == "" {
				req.Name = ids[0].String()
			}

			a, err := newApp(false)
			if err != nil {
				return err
			}
			ctx, cancel := context.WithCancel(cmd.Context())
			done := make(chan error, 1)
			go func() { done <- a.Run(ctx) }()

			key, err := sendAndWait(ctx, a.Coordinator, req, strings.Join(args, " "), settings.NegotiationTimeout)
			cancel()
			if runErr := <-done; runErr != nil {
				err = errors.Join(err, runErr)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "sent to %s\n", key)
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(domain.KindOneToOne), "session kind (one_to_one, group, ad_hoc, bridge)")
	cmd.Flags().StringSliceVar(&to, "to", nil, "peer id, group id, or ad-hoc invitee ids")
	cmd.Flags().StringVar(&name, "session-name", "", "display name of the session")
	return cmd
}

func sendAndWait(ctx context.Context, c *coordinator.Coordinator, req coordinator.OpenRequest, text string, timeout time.Duration) (domain.SessionKey, error) {
	obs := coordinator.NewChannelObserver(64)
	c.Registry().AddObserver(obs)
	defer c.Registry().RemoveObserver(obs)

	info, err := c.OpenOrCreate(ctx, req)
	if err != nil {
		return uuid.Nil, err
	}
	if err := c.SendMessage(ctx, info.Key, text); err != nil {
		return uuid.Nil, err
	}
	if info.Initialized {
		return info.Key, nil
	}

	deadline := time.After(timeout + time.Second)
	for {
		select {
		case ev := <-obs.Events():
			if ev.Key != info.Key && ev.OldKey != info.Key {
				continue
			}
			switch ev.Type {
			case domain.EventInitialized:
				return ev.Key, nil
			case domain.EventNegotiationFailed:
				return uuid.Nil, ev.Err
			}
		case <-deadline:
			return uuid.Nil, fmt.Errorf("session %s: %w", info.Key, domain.ErrNegotiationTimeout)
		case <-ctx.Done():
			return uuid.Nil, ctx.Err()
		}
	}
}
