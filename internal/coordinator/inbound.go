package coordinator

import (
	"maps"

	"chatterbox/internal/domain"
	"chatterbox/internal/services/pending"
)

// OnMembershipUpdate applies ENTER/LEAVE changes to an initialized session,
// or buffers them until the key is confirmed.
func (c *Coordinator) OnMembershipUpdate(u domain.MembershipUpdate) {
	u.Updates = maps.Clone(u.Updates)
	c.postOrDrop("membership", func() { c.handleMembership(u) })
}

func (c *Coordinator) handleMembership(u domain.MembershipUpdate) {
	if s, ok := c.find(u.Key); ok && s.Initialized {
		c.applyMembership(s, pending.Update{Key: s.Key, Changes: u.Updates})
		return
	}
	c.expireBuffered()
	c.updates.Add(u.Key, u.Updates)
	c.log.Debug().Stringer("session", u.Key).Int("changes", len(u.Updates)).Msg("membership buffered")
}

// expireBuffered drops updates that waited longer than the buffer TTL for a
// session, e.g. ones sent under a key the session never reached.
func (c *Coordinator) expireBuffered() {
	if n := c.updates.Expire(c.clock.Now().Add(-c.bufferTTL)); n > 0 {
		c.log.Debug().Int("updates", n).Msg("expired buffered membership")
	}
}

func (c *Coordinator) applyMembership(s *domain.Session, u pending.Update) {
	if len(u.Changes) == 0 {
		return
	}
	for _, id := range u.SortedChanges() {
		switch u.Changes[id] {
		case domain.MembershipEnter:
			s.Participants.Add(id)
		case domain.MembershipLeave:
			s.Participants.Remove(id)
		}
	}
	c.tracker.ApplyUpdates(s.Key, u.Changes)
	c.notify(domain.Event{Type: domain.EventMembership, Key: s.Key, Kind: s.Kind})
}

// OnForcedClose tears down a session the relay terminated.
func (c *Coordinator) OnForcedClose(key domain.SessionKey, reason string) {
	c.postOrDrop("forced close", func() { c.handleForcedClose(key, reason) })
}

func (c *Coordinator) handleForcedClose(key domain.SessionKey, reason string) {
	s, ok := c.find(key)
	if !ok {
		c.log.Debug().Stringer("session", key).Msg("forced close for unknown session")
		return
	}
	err := &domain.ForcedCloseError{Key: s.Key, Reason: reason}
	c.teardown(s)
	c.log.Warn().Err(err).Msg("session closed by relay")
	c.notify(domain.Event{Type: domain.EventForcedClose, Key: s.Key, Kind: s.Kind, Text: reason, Err: err})
}

// OnSessionUpdate forwards opaque session metadata to the membership tracker.
func (c *Coordinator) OnSessionUpdate(key domain.SessionKey, info map[string]string) {
	info = maps.Clone(info)
	c.postOrDrop("session update", func() { c.handleSessionUpdate(key, info) })
}

func (c *Coordinator) handleSessionUpdate(key domain.SessionKey, info map[string]string) {
	s, ok := c.find(key)
	if !ok {
		c.log.Warn().Stringer("session", key).Msg("update for unknown session")
		return
	}
	c.tracker.ProcessSessionUpdate(s.Key, info)
}

// OnSessionEventReply reports a failed session event inside the session.
func (c *Coordinator) OnSessionEventReply(r domain.SessionEventReply) {
	c.postOrDrop("session event reply", func() { c.handleEventReply(r) })
}

func (c *Coordinator) handleEventReply(r domain.SessionEventReply) {
	if r.Success {
		return
	}
	s, ok := c.find(r.Key)
	if !ok {
		return
	}
	err := &domain.SessionEventError{Key: s.Key, Event: r.Event, Reason: r.Reason}
	c.addSystemMessage(s, "Request failed: "+r.Reason)
	c.notify(domain.Event{Type: domain.EventSessionError, Key: s.Key, Kind: s.Kind, Text: err.Error(), Err: err})
}
