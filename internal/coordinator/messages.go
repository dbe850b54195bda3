package coordinator

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"chatterbox/internal/domain"
	"chatterbox/internal/protocol/sessionkey"
)

// SendMessage shows and logs text at once. It is delivered now if the session
// is initialized and otherwise queued until it is.
func (c *Coordinator) SendMessage(ctx context.Context, key domain.SessionKey, text string) error {
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("send to %s: empty message", key)
	}
	return c.call(ctx, func() error {
		s, err := c.sessionOrErr(key)
		if err != nil {
			return err
		}
		c.addMessage(s, domain.Message{Author: c.selfName, AuthorID: c.self, Text: text, Time: c.clock.Now()})
		if s.Initialized {
			c.deliver(s, text)
		} else {
			s.Outbox = append(s.Outbox, text)
		}
		return nil
	})
}

// OnIncomingMessage records a message from the relay, creating the session
// when it is the first line of a conversation.
func (c *Coordinator) OnIncomingMessage(m domain.IncomingMessage) {
	c.postOrDrop("message", func() { c.handleIncoming(m) })
}

func (c *Coordinator) handleIncoming(m domain.IncomingMessage) {
	kind := m.Kind
	if kind == "" {
		kind = domain.KindOneToOne
	}
	key := m.Key
	if key == domain.NullID {
		if !kind.Direct() || m.From == domain.NullID {
			c.log.Warn().Str("kind", string(kind)).Msg("message without session key")
			return
		}
		key = sessionkey.DirectKey(c.self, m.From)
	}

	s, ok := c.find(key)
	if !ok {
		name := strings.TrimSpace(m.SessionName)
		if name == "" {
			name = m.FromName
		}
		n := newSession{key: key, kind: kind, name: name}
		if m.From != domain.NullID {
			n.participants = []domain.ParticipantID{m.From}
		}
		if kind.Direct() {
			n.other = m.From
			n.otherName = m.FromName
		}
		var err error
		if s, err = existingOr(c.create(n)); err != nil {
			c.log.Warn().Err(err).Stringer("session", key).Msg("drop message for session that cannot be created")
			return
		}
	}
	if m.From != domain.NullID && m.From != c.self {
		s.Participants.Add(m.From)
	}
	if m.From == s.OtherParticipant && m.From != domain.NullID && strings.TrimSpace(m.FromName) != "" {
		s.OtherName = strings.TrimSpace(m.FromName)
	}

	at := m.SentAt
	if at.IsZero() {
		at = c.clock.Now()
	}
	c.addMessage(s, domain.Message{Author: m.FromName, AuthorID: m.From, Text: m.Text, Time: at})
}

// addMessage appends to the in-memory history and the transcript. Every
// message counts as unread; only lines from another real participant count
// toward the participant counter.
func (c *Coordinator) addMessage(s *domain.Session, m domain.Message) {
	s.Messages = append(s.Messages, m)
	s.UnreadCount++
	if m.AuthorID != domain.NullID && m.AuthorID != c.self && m.Author != domain.SystemAuthor {
		s.ParticipantUnreadCount++
	}
	c.transcripts.Append(s.Transcript, domain.TranscriptEntry{
		Key:      s.Key,
		Author:   m.Author,
		AuthorID: m.AuthorID,
		Text:     m.Text,
		Time:     m.Time,
		History:  m.History,
	})
	c.notify(domain.Event{Type: domain.EventMessage, Key: s.Key, Kind: s.Kind, Text: m.Text, Time: m.Time})
}

func (c *Coordinator) addSystemMessage(s *domain.Session, text string) {
	c.addMessage(s, domain.Message{Author: domain.SystemAuthor, Text: text, Time: c.clock.Now()})
}

func (c *Coordinator) deliver(s *domain.Session, text string) {
	msg := domain.OutboundMessage{
		From:     c.self,
		FromName: c.selfName,
		Key:      s.Key,
		Kind:     s.Kind,
		To:       s.OtherParticipant,
		Name:     s.Name,
		Text:     text,
		SentAt:   c.clock.Now(),
	}
	c.goOutbound("send message", s.Key, func(ctx context.Context) error {
		return c.transport.SendMessage(ctx, msg)
	}, func(err error) {
		cur, ok := c.reg.Find(msg.Key)
		if !ok {
			return
		}
		c.addSystemMessage(cur, "Message could not be delivered")
		c.notify(domain.Event{Type: domain.EventSessionError, Key: cur.Key, Kind: cur.Kind, Text: err.Error(), Err: err})
	})
}

// flushOutbox sends what was typed while s was pending, in order, under s's
// current key.
func (c *Coordinator) flushOutbox(s *domain.Session) {
	queued := s.Outbox
	s.Outbox = nil
	for _, text := range queued {
		c.deliver(s, text)
	}
}

// MarkRead clears the unread counters of a session.
func (c *Coordinator) MarkRead(ctx context.Context, key domain.SessionKey) error {
	return c.call(ctx, func() error {
		s, err := c.sessionOrErr(key)
		if err != nil {
			return err
		}
		s.UnreadCount = 0
		s.ParticipantUnreadCount = 0
		return nil
	})
}

// UnreadTotals returns how many sessions have participant messages unread
// and how many such messages there are in total.
func (c *Coordinator) UnreadTotals(ctx context.Context) (sessions, messages int, err error) {
	err = c.call(ctx, func() error {
		for _, s := range c.reg.Sessions() {
			if s.ParticipantUnreadCount > 0 {
				sessions++
				messages += s.ParticipantUnreadCount
			}
		}
		return nil
	})
	return sessions, messages, err
}

// History returns a copy of the in-memory messages of a session.
func (c *Coordinator) History(ctx context.Context, key domain.SessionKey) ([]domain.Message, error) {
	var out []domain.Message
	err := c.call(ctx, func() error {
		s, err := c.sessionOrErr(key)
		if err != nil {
			return err
		}
		out = slices.Clone(s.Messages)
		return nil
	})
	return out, err
}

// Session returns a snapshot of one session.
func (c *Coordinator) Session(ctx context.Context, key domain.SessionKey) (domain.SessionInfo, error) {
	var info domain.SessionInfo
	err := c.call(ctx, func() error {
		s, err := c.sessionOrErr(key)
		if err != nil {
			return err
		}
		info = s.Info()
		return nil
	})
	return info, err
}

// Sessions returns snapshots of every live session, oldest first.
func (c *Coordinator) Sessions(ctx context.Context) ([]domain.SessionInfo, error) {
	var out []domain.SessionInfo
	err := c.call(ctx, func() error {
		for _, s := range c.reg.Sessions() {
			out = append(out, s.Info())
		}
		return nil
	})
	return out, err
}
