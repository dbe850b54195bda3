package coordinator

import (
	"context"

	"chatterbox/internal/domain"
	"chatterbox/internal/services/voice"
)

// StartCall starts a call in a session. On a session still being negotiated
// the call is remembered and started once it is initialized.
func (c *Coordinator) StartCall(ctx context.Context, key domain.SessionKey) error {
	return c.call(ctx, func() error {
		s, err := c.sessionOrErr(key)
		if err != nil {
			return err
		}
		return c.startCall(s)
	})
}

func (c *Coordinator) startCall(s *domain.Session) error {
	if !s.Initialized {
		s.StartCallOnInit = true
		return nil
	}
	return c.activateVoice(s, domain.DirectionOutgoing)
}

// EndCall leaves the call of a session, or drops a deferred one.
func (c *Coordinator) EndCall(ctx context.Context, key domain.SessionKey) error {
	return c.call(ctx, func() error {
		s, err := c.sessionOrErr(key)
		if err != nil {
			return err
		}
		s.StartCallOnInit = false
		if a := c.adapters[s]; a != nil {
			return a.Deactivate(c.outCtx)
		}
		return nil
	})
}

// OnVoiceStateChanged records a state reported by the voice engine and adds
// the matching notice to the session.
func (c *Coordinator) OnVoiceStateChanged(key domain.SessionKey, state domain.VoiceState, dir domain.Direction) {
	c.postOrDrop("voice state", func() {
		s, ok := c.find(key)
		if !ok {
			c.log.Debug().Stringer("session", key).Str("state", string(state)).Msg("voice state for unknown session")
			return
		}
		tr := c.adapter(s).Apply(state, dir)
		if !tr.Changed {
			return
		}
		s.VoiceState = state
		s.VoiceDirection = dir
		if text, ok := c.table.Lookup(s.Kind, dir, state, counterpartName(s)); ok {
			c.addSystemMessage(s, text)
		}
		if state == domain.VoiceConnected {
			c.tracker.Refresh(s.Key)
		}
		c.notify(domain.Event{Type: domain.EventVoice, Key: s.Key, Kind: s.Kind, Text: string(state)})
	})
}

// counterpartName is the name voice notices use for the other side of s.
func counterpartName(s *domain.Session) string {
	if s.OtherName != "" {
		return s.OtherName
	}
	return s.Name
}

// adapter returns the voice adapter of s, creating it on first use.
func (c *Coordinator) adapter(s *domain.Session) *voice.Adapter {
	a, ok := c.adapters[s]
	if !ok {
		a = voice.NewAdapter(c.engine, s.Key, s.Kind)
		c.adapters[s] = a
	}
	return a
}

func (c *Coordinator) activateVoice(s *domain.Session, dir domain.Direction) error {
	if err := c.adapter(s).Activate(c.outCtx, dir); err != nil {
		return err
	}
	s.VoiceDirection = dir
	return nil
}

func (c *Coordinator) releaseVoice(s *domain.Session) {
	a, ok := c.adapters[s]
	if !ok {
		return
	}
	delete(c.adapters, s)
	if err := a.Deactivate(c.outCtx); err != nil {
		c.log.Warn().Err(err).Stringer("session", s.Key).Msg("release voice channel")
	}
}
