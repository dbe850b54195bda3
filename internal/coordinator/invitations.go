package coordinator

import (
	"context"
	"strings"

	"chatterbox/internal/domain"
	"chatterbox/internal/services/pending"
)

// OnInvitation records an invitation into a session we are not part of.
func (c *Coordinator) OnInvitation(ev domain.InvitationEvent) {
	c.postOrDrop("invitation", func() { c.handleInvitation(ev) })
}

func (c *Coordinator) handleInvitation(ev domain.InvitationEvent) {
	if _, live := c.reg.Find(ev.Key); live {
		c.log.Debug().Stringer("session", ev.Key).Msg("invitation for a session already open")
		return
	}
	inv := pending.NewInvitation(ev, c.clock.Now(), c.responder(ev.Key))
	if err := c.invites.Add(inv); err != nil {
		c.log.Debug().Err(err).Stringer("session", ev.Key).Msg("invitation ignored")
		return
	}
	c.notify(domain.Event{Type: domain.EventInvitation, Key: ev.Key, Kind: ev.Kind, Text: ev.FromName})
}

func (c *Coordinator) responder(key domain.SessionKey) pending.RespondFunc {
	return func(ctx context.Context, accept bool) error {
		return c.transport.RespondInvitation(ctx, domain.InvitationResponse{Responder: c.self, Key: key, Accept: accept})
	}
}

// AcceptInvitation joins the invited session and returns it.
func (c *Coordinator) AcceptInvitation(ctx context.Context, key domain.SessionKey) (domain.SessionInfo, error) {
	var info domain.SessionInfo
	err := c.call(ctx, func() error {
		if c.closing {
			return domain.ErrAlreadyClosing
		}
		inv, err := c.invites.Take(key)
		if err != nil {
			return err
		}
		c.goOutbound("accept invitation", key, func(ctx context.Context) error {
			return inv.Respond(ctx, true)
		}, nil)

		kind := inv.Kind
		if !kind.Valid() {
			kind = domain.KindAdHoc
		}
		name := strings.TrimSpace(inv.SessionName)
		if name == "" {
			name = inv.FromName
		}
		n := newSession{key: inv.Key, kind: kind, name: name}
		if inv.From != domain.NullID {
			n.participants = []domain.ParticipantID{inv.From}
		}
		if kind.Direct() {
			n.other = inv.From
			n.otherName = inv.FromName
		}
		s, err := existingOr(c.create(n))
		if err != nil {
			return err
		}
		c.reg.Activate(s.Key)
		info = s.Info()
		return nil
	})
	return info, err
}

// DeclineInvitation refuses a pending invitation.
func (c *Coordinator) DeclineInvitation(ctx context.Context, key domain.SessionKey) error {
	return c.call(ctx, func() error {
		inv, err := c.invites.Take(key)
		if err != nil {
			return err
		}
		c.goOutbound("decline invitation", key, func(ctx context.Context) error {
			return inv.Respond(ctx, false)
		}, nil)
		return nil
	})
}

// CancelInvitation drops a pending invitation the inviter withdrew.
func (c *Coordinator) CancelInvitation(key domain.SessionKey) {
	c.postOrDrop("invitation cancel", func() {
		if c.invites.Cancel(key) {
			c.notify(domain.Event{Type: domain.EventInvitationCanceled, Key: key})
		}
	})
}

// Invitations returns the pending invitations, oldest first.
func (c *Coordinator) Invitations(ctx context.Context) ([]domain.InvitationEvent, error) {
	var out []domain.InvitationEvent
	err := c.call(ctx, func() error {
		out = c.invites.List()
		return nil
	})
	return out, err
}
