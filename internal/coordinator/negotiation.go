package coordinator

import (
	"context"

	"chatterbox/internal/domain"
	"chatterbox/internal/protocol/negotiation"
)

// startNegotiation sends the start request for a pending session and arms
// its timeout. A transport failure rejects the session.
func (c *Coordinator) startNegotiation(s *domain.Session, target domain.ParticipantID) {
	req := domain.StartRequest{
		Requester:      c.self,
		RequesterName:  c.selfName,
		Target:         target,
		ProvisionalKey: s.Key,
		Kind:           s.Kind,
		Name:           s.Name,
	}
	if s.Kind == domain.KindAdHoc {
		payload, err := negotiation.EncodeInvitees(s.InitialTargets)
		if err != nil {
			c.fail(s, negotiation.InputReject, &domain.NegotiationError{Key: s.Key, Reason: err.Error(), Err: domain.ErrNegotiationRejected})
			return
		}
		req.Payload = payload
	}

	c.timers[s] = c.clock.AfterFunc(c.timeout, func() {
		c.postOrDrop("negotiation timeout", func() { c.onTimeout(s) })
	})
	c.log.Debug().Stringer("session", s.Key).Str("kind", string(s.Kind)).Msg("negotiation started")

	key := s.Key
	c.goOutbound("start session", key, func(ctx context.Context) error {
		return c.transport.StartSession(ctx, req)
	}, func(err error) {
		c.handleReply(domain.NegotiationReply{TempKey: key, Reason: err.Error()})
	})
}

// onTimeout runs when the timer fired. The failure itself is queued behind
// whatever was already waiting, so a queued confirmation still wins.
func (c *Coordinator) onTimeout(s *domain.Session) {
	if negotiation.Terminal(s.Negotiation) || !c.live(s) {
		return
	}
	c.postOrDrop("negotiation timeout", func() {
		if negotiation.Terminal(s.Negotiation) || !c.live(s) {
			return
		}
		c.fail(s, negotiation.InputTimeout, &domain.NegotiationError{Key: s.Key, Err: domain.ErrNegotiationTimeout})
	})
}

func (c *Coordinator) stopTimer(s *domain.Session) {
	if t, ok := c.timers[s]; ok {
		t.Stop()
		delete(c.timers, s)
	}
}

// OnNegotiationReply applies the relay's answer to a start request.
func (c *Coordinator) OnNegotiationReply(reply domain.NegotiationReply) {
	c.postOrDrop("negotiation reply", func() { c.handleReply(reply) })
}

func (c *Coordinator) handleReply(reply domain.NegotiationReply) {
	s, ok := c.reg.Find(reply.TempKey)
	if !ok {
		if cur, found := c.reg.Find(reply.AssignedKey); found && cur.Initialized {
			c.log.Debug().Stringer("session", reply.AssignedKey).Msg("duplicate negotiation reply")
			return
		}
		c.log.Warn().Stringer("session", reply.TempKey).Msg("negotiation reply for unknown session")
		return
	}
	if !reply.Success {
		c.fail(s, negotiation.InputReject, &domain.NegotiationError{Key: s.Key, Reason: reply.Reason, Err: domain.ErrNegotiationRejected})
		return
	}
	c.confirm(s, reply.AssignedKey)
}

// confirm initializes s, moving it to assigned when the relay chose a
// different key. A second confirmation is a no-op.
func (c *Coordinator) confirm(s *domain.Session, assigned domain.SessionKey) {
	next, changed := negotiation.Transition(s.Negotiation, negotiation.InputConfirm)
	if !changed {
		return
	}
	c.stopTimer(s)
	s.Negotiation = next
	s.Initialized = true

	prov := s.Key
	if assigned == domain.NullID {
		assigned = prov
	}
	survivor := s
	if assigned != prov {
		res, err := c.reg.Rekey(prov, assigned)
		if err != nil {
			c.log.Error().Err(err).Stringer("session", prov).Msg("rekey failed")
			return
		}
		survivor = res.Survivor
		if res.Merged() {
			c.absorb(survivor, s)
		} else if a := c.adapters[s]; a != nil {
			a.UpdateKey(assigned)
		}
		c.tracker.Rekey(prov, assigned)
		c.aliases[prov] = assigned
	}

	c.replayBuffered(survivor, prov)
	c.flushOutbox(survivor)

	ev := domain.Event{Type: domain.EventInitialized, Key: survivor.Key, Kind: survivor.Kind, Text: survivor.Name}
	if prov != survivor.Key {
		ev.OldKey = prov
	}
	c.notify(ev)
	c.log.Info().Stringer("session", survivor.Key).Msg("session initialized")

	if survivor.StartCallOnInit {
		survivor.StartCallOnInit = false
		if err := c.activateVoice(survivor, domain.DirectionOutgoing); err != nil {
			c.log.Warn().Err(err).Stringer("session", survivor.Key).Msg("deferred call failed")
		}
	}
}

// absorb releases what the merged-away session held. Its voice channel moves
// to the survivor when the survivor has none. A survivor still waiting on its
// own negotiation is initialized by the merge.
func (c *Coordinator) absorb(survivor, discarded *domain.Session) {
	if !survivor.Initialized {
		c.stopTimer(survivor)
		survivor.Negotiation, _ = negotiation.Transition(survivor.Negotiation, negotiation.InputConfirm)
		survivor.Initialized = true
	}
	c.stopTimer(discarded)
	if a := c.adapters[discarded]; a != nil {
		delete(c.adapters, discarded)
		if _, has := c.adapters[survivor]; !has {
			a.UpdateKey(survivor.Key)
			c.adapters[survivor] = a
		} else if err := a.Deactivate(c.outCtx); err != nil {
			c.log.Warn().Err(err).Msg("release merged voice channel")
		}
	}
	c.transcripts.Flush(discarded.Transcript)
	c.invites.Cancel(discarded.Key)
}

// replayBuffered applies membership updates buffered under s's keys and
// extra, in arrival order.
func (c *Coordinator) replayBuffered(s *domain.Session, extra ...domain.SessionKey) {
	keys := append([]domain.SessionKey{s.Key, s.ProvisionalKey}, extra...)
	for _, u := range c.updates.Take(keys...) {
		c.applyMembership(s, u)
	}
}

// fail moves s to FAILED and tears it down.
func (c *Coordinator) fail(s *domain.Session, in negotiation.Input, err *domain.NegotiationError) {
	next, changed := negotiation.Transition(s.Negotiation, in)
	if !changed {
		return
	}
	s.Negotiation = next
	c.teardown(s)
	c.log.Warn().Err(err).Stringer("session", s.Key).Str("input", in.String()).Msg("negotiation failed")
	c.notify(domain.Event{Type: domain.EventNegotiationFailed, Key: s.Key, Kind: s.Kind, Text: err.Error(), Err: err})
}
