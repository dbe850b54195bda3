package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"chatterbox/internal/domain"
	"chatterbox/internal/protocol/negotiation"
	"chatterbox/internal/protocol/sessionkey"
	"chatterbox/internal/services/registry"
	"chatterbox/internal/store"
)

// OpenRequest asks for a conversation. Target is the counterpart of a direct
// session or the group id; Participants are the invitees of an ad-hoc one.
// TargetName is the counterpart's display name and defaults to Name.
// Voice starts a call as soon as the session can carry one.
type OpenRequest struct {
	Kind         domain.Kind
	Name         string
	Target       domain.ParticipantID
	TargetName   string
	Participants []domain.ParticipantID
	Voice        bool
}

// OpenOrCreate returns the existing session for req or creates one. An
// outgoing ad-hoc request for an invitee set that already has an outgoing
// ad-hoc session reuses that session.
func (c *Coordinator) OpenOrCreate(ctx context.Context, req OpenRequest) (domain.SessionInfo, error) {
	var info domain.SessionInfo
	err := c.call(ctx, func() error {
		s, err := c.open(req)
		if err != nil {
			return err
		}
		info = s.Info()
		return nil
	})
	return info, err
}

func (c *Coordinator) open(req OpenRequest) (*domain.Session, error) {
	if c.closing {
		return nil, domain.ErrAlreadyClosing
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if !req.Kind.Valid() {
		return nil, fmt.Errorf("open session: unknown kind %q", req.Kind)
	}

	n := newSession{kind: req.Kind, name: name, outgoing: true}
	switch req.Kind {
	case domain.KindOneToOne, domain.KindBridge:
		if req.Target == domain.NullID {
			return nil, fmt.Errorf("open %s session: %w", req.Kind, domain.ErrNoParticipants)
		}
		n.other = req.Target
		n.otherName = strings.TrimSpace(req.TargetName)
		if n.otherName == "" {
			n.otherName = name
		}
		n.participants = []domain.ParticipantID{req.Target}
	case domain.KindGroup:
		if req.Target == domain.NullID {
			return nil, fmt.Errorf("open group session: %w", domain.ErrNoParticipants)
		}
		n.target = req.Target
	case domain.KindAdHoc:
		invitees := c.invitees(req.Participants)
		if len(invitees) == 0 {
			return nil, fmt.Errorf("open ad-hoc session: %w", domain.ErrNoParticipants)
		}
		if s, ok := c.reg.FindAdHocMatch(invitees); ok {
			c.reg.Activate(s.Key)
			return s, c.voiceOnOpen(s, req.Voice)
		}
		n.participants = invitees
		n.targets = invitees
	}
	n.key = sessionkey.ForKind(req.Kind, c.self, req.Target)

	if s, ok := c.reg.Activate(n.key); ok {
		return s, c.voiceOnOpen(s, req.Voice)
	}
	s, err := c.create(n)
	if err != nil {
		return nil, err
	}
	return s, c.voiceOnOpen(s, req.Voice)
}

// invitees returns ids without self, null and duplicates, sorted.
func (c *Coordinator) invitees(ids []domain.ParticipantID) []domain.ParticipantID {
	set := domain.NewParticipantSet(ids...)
	set.Remove(c.self)
	return set.Sorted()
}

func (c *Coordinator) voiceOnOpen(s *domain.Session, voice bool) error {
	if !voice {
		return nil
	}
	return c.startCall(s)
}

type newSession struct {
	key          domain.SessionKey
	kind         domain.Kind
	name         string
	target       domain.ParticipantID
	other        domain.ParticipantID
	otherName    string
	participants []domain.ParticipantID
	targets      []domain.ParticipantID
	outgoing     bool
}

// create registers a session, opens its transcript and either replays
// buffered membership (already initialized) or asks the relay to confirm it.
// On a duplicate key the existing session is returned with the error.
func (c *Coordinator) create(n newSession) (*domain.Session, error) {
	s, err := c.reg.Create(registry.CreateParams{
		Key:            n.key,
		Kind:           n.kind,
		Name:           n.name,
		Participants:   n.participants,
		InitialTargets: n.targets,
		Other:          n.other,
		OtherName:      n.otherName,
		Outgoing:       n.outgoing,
		Negotiation:    negotiation.Start(n.kind, n.outgoing),
	})
	if err != nil {
		return s, err
	}

	s.Transcript = c.transcripts.Open(domain.TranscriptMeta{
		LogName: store.DeriveLogName(domain.LogNameInput{
			Kind:           s.Kind,
			Name:           s.Name,
			Key:            s.Key,
			Other:          s.OtherParticipant,
			InitialTargets: s.InitialTargets,
		}, c.resolver, c.clock.Now()),
		Kind: s.Kind,
		Key:  s.Key,
	})

	if s.Initialized {
		c.replayBuffered(s)
		return s, nil
	}
	c.startNegotiation(s, n.target)
	return s, nil
}

// existingOr returns s when err only reports that the key was taken.
func existingOr(s *domain.Session, err error) (*domain.Session, error) {
	if err != nil && errors.Is(err, domain.ErrDuplicateCreate) && s != nil {
		return s, nil
	}
	return s, err
}
