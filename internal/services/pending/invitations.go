package pending

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"chatterbox/internal/domain"
)

// RespondFunc answers an invitation. It is bound to the invitation when it
// arrives and called at most once.
type RespondFunc func(ctx context.Context, accept bool) error

// Invitation is an unanswered request to join a session.
type Invitation struct {
	Key         domain.SessionKey
	Kind        domain.Kind
	From        domain.ParticipantID
	FromName    string
	SessionName string
	Context     map[string]string
	Received    time.Time

	respond RespondFunc
}

// NewInvitation builds an invitation from the relay event.
func NewInvitation(ev domain.InvitationEvent, received time.Time, respond RespondFunc) *Invitation {
	return &Invitation{
		Key:         ev.Key,
		Kind:        ev.Kind,
		From:        ev.From,
		FromName:    ev.FromName,
		SessionName: ev.SessionName,
		Context:     ev.Context,
		Received:    received,
		respond:     respond,
	}
}

// Invitations holds at most one outstanding invitation per session key.
type Invitations struct {
	mu    sync.Mutex
	byKey map[domain.SessionKey]*Invitation
}

func NewInvitations() *Invitations {
	return &Invitations{byKey: make(map[domain.SessionKey]*Invitation)}
}

// Add records inv; a second invitation for the same key is rejected.
func (i *Invitations) Add(inv *Invitation) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	if _, ok := i.byKey[inv.Key]; ok {
		return fmt.Errorf("invitation %s: %w", inv.Key, domain.ErrInvitationExists)
	}
	i.byKey[inv.Key] = inv
	return nil
}

// Get returns the outstanding invitation for key.
func (i *Invitations) Get(key domain.SessionKey) (*Invitation, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	inv, ok := i.byKey[key]
	return inv, ok
}

// Take removes and returns the invitation for key.
func (i *Invitations) Take(key domain.SessionKey) (*Invitation, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	inv, ok := i.byKey[key]
	if !ok {
		return nil, fmt.Errorf("invitation %s: %w", key, domain.ErrUnknownInvitation)
	}
	delete(i.byKey, key)
	return inv, nil
}

// Cancel drops the invitation for key without answering it.
func (i *Invitations) Cancel(key domain.SessionKey) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	_, ok := i.byKey[key]
	delete(i.byKey, key)
	return ok
}

// List returns the outstanding invitations, oldest first.
func (i *Invitations) List() []domain.InvitationEvent {
	i.mu.Lock()
	all := make([]*Invitation, 0, len(i.byKey))
	for _, inv := range i.byKey {
		all = append(all, inv)
	}
	i.mu.Unlock()
	sort.Slice(all, func(a, b int) bool {
		if !all[a].Received.Equal(all[b].Received) {
			return all[a].Received.Before(all[b].Received)
		}
		return all[a].Key.String() < all[b].Key.String()
	})
	out := make([]domain.InvitationEvent, len(all))
	for n, inv := range all {
		out[n] = inv.Event()
	}
	return out
}

// Len returns the number of outstanding invitations.
func (i *Invitations) Len() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return len(i.byKey)
}

// Respond calls the bound responder. Invitations without one succeed silently.
func (inv *Invitation) Respond(ctx context.Context, accept bool) error {
	if inv.respond == nil {
		return nil
	}
	return inv.respond(ctx, accept)
}

// Event returns the relay event the invitation was built from.
func (inv *Invitation) Event() domain.InvitationEvent {
	return domain.InvitationEvent{
		Key:         inv.Key,
		Kind:        inv.Kind,
		From:        inv.From,
		FromName:    inv.FromName,
		SessionName: inv.SessionName,
		Context:     inv.Context,
	}
}
