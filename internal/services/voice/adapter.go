package voice

import (
	"context"
	"fmt"

	"chatterbox/internal/domain"
)

// Transition describes one reported state change.
type Transition struct {
	From      domain.VoiceState
	To        domain.VoiceState
	Direction domain.Direction
	Changed   bool
}

// Adapter is a session's handle on the voice engine.
type Adapter struct {
	key       domain.SessionKey
	kind      domain.Kind
	channel   domain.VoiceChannel
	state     domain.VoiceState
	direction domain.Direction
	active    bool
}

// NewAdapter opens a channel for key on engine.
func NewAdapter(engine domain.VoiceEngine, key domain.SessionKey, kind domain.Kind) *Adapter {
	return &Adapter{
		key:     key,
		kind:    kind,
		channel: engine.Channel(key, kind),
		state:   domain.VoiceReady,
	}
}

// Activate joins the call in direction dir.
func (a *Adapter) Activate(ctx context.Context, dir domain.Direction) error {
	if a.active {
		return nil
	}
	if err := a.channel.Activate(ctx); err != nil {
		return fmt.Errorf("activate voice %s: %w", a.key, err)
	}
	a.active = true
	a.direction = dir
	return nil
}

// Deactivate leaves the call. It is a no-op when not active.
func (a *Adapter) Deactivate(ctx context.Context) error {
	if !a.active {
		return nil
	}
	a.active = false
	if err := a.channel.Deactivate(ctx); err != nil {
		return fmt.Errorf("deactivate voice %s: %w", a.key, err)
	}
	return nil
}

// UpdateKey moves the channel to a confirmed session key.
func (a *Adapter) UpdateKey(key domain.SessionKey) {
	if key == a.key {
		return
	}
	a.key = key
	a.channel.Rekey(key)
}

// Apply records a state reported by the engine. A repeated report of the same
// state and direction is not a change.
func (a *Adapter) Apply(state domain.VoiceState, dir domain.Direction) Transition {
	tr := Transition{From: a.state, To: state, Direction: dir}
	tr.Changed = a.state != state || a.direction != dir
	a.state = state
	a.direction = dir
	switch state {
	case domain.VoiceConnected, domain.VoiceCallStarted, domain.VoiceRinging:
		a.active = true
	case domain.VoiceHungUp, domain.VoiceError:
		a.active = false
	}
	return tr
}

func (a *Adapter) Active() bool { return a.active }
