package coordinator

import (
	"context"

	"chatterbox/internal/domain"
)

// Leave ends a session locally and, for server-backed kinds, tells the relay.
func (c *Coordinator) Leave(ctx context.Context, key domain.SessionKey) error {
	return c.call(ctx, func() error {
		s, err := c.sessionOrErr(key)
		if err != nil {
			return err
		}
		if !s.Kind.Direct() {
			req := domain.LeaveRequest{Requester: c.self, Key: s.Key}
			c.goOutbound("leave session", s.Key, func(ctx context.Context) error {
				return c.transport.LeaveSession(ctx, req)
			}, nil)
		}
		c.teardown(s)
		return nil
	})
}

// teardown releases everything s holds and removes it from the registry.
func (c *Coordinator) teardown(s *domain.Session) {
	c.stopTimer(s)
	c.releaseVoice(s)
	c.transcripts.Flush(s.Transcript)
	c.updates.Drop(s.Key)
	if s.ProvisionalKey != s.Key {
		c.updates.Drop(s.ProvisionalKey)
	}
	c.invites.Cancel(s.Key)
	if c.live(s) {
		c.reg.Remove(s.Key)
	}
	for from, to := range c.aliases {
		if to == s.Key {
			delete(c.aliases, from)
		}
	}
	c.tracker.Forget(s.Key)
	if s.ProvisionalKey != s.Key {
		c.tracker.Forget(s.ProvisionalKey)
	}
	c.expireBuffered()
}
