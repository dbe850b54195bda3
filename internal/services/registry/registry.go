package registry

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatterbox/internal/domain"
	"chatterbox/internal/protocol/sessionkey"
)

// Registry is the canonical set of live sessions.
type Registry struct {
	mu        sync.Mutex
	sessions  map[domain.SessionKey]*domain.Session
	observers []domain.Observer
	now       func() time.Time
	log       zerolog.Logger
}

// New returns an empty registry. now stamps created sessions and events.
func New(log zerolog.Logger, now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		sessions: make(map[domain.SessionKey]*domain.Session),
		now:      now,
		log:      log.With().Str("component", "registry").Logger(),
	}
}

// CreateParams describes a new session.
type CreateParams struct {
	Key            domain.SessionKey
	Kind           domain.Kind
	Name           string
	Participants   []domain.ParticipantID
	InitialTargets []domain.ParticipantID
	Other          domain.ParticipantID
	OtherName      string
	Outgoing       bool
	Negotiation    domain.NegotiationState
}

// RekeyResult says which session lives at the new key after a rekey.
// Discarded is non-nil only when the new key was already taken and the
// provisional session was merged into Survivor.
type RekeyResult struct {
	Survivor  *domain.Session
	Discarded *domain.Session
}

// Merged reports whether the rekey collided with an existing session.
func (r RekeyResult) Merged() bool { return r.Discarded != nil }

// AddObserver registers o for registry events.
func (r *Registry) AddObserver(o domain.Observer) {
	r.mu.Lock()
	r.observers = append(r.observers, o)
	r.mu.Unlock()
}

// RemoveObserver unregisters o.
func (r *Registry) RemoveObserver(o domain.Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.observers {
		if existing == o {
			r.observers = slices.Delete(r.observers, i, i+1)
			return
		}
	}
}

// Notify delivers ev to every observer. It must not be called with r.mu held.
func (r *Registry) Notify(ev domain.Event) {
	if ev.Time.IsZero() {
		ev.Time = r.now()
	}
	r.mu.Lock()
	observers := slices.Clone(r.observers)
	r.mu.Unlock()
	for _, o := range observers {
		o.OnEvent(ev)
	}
}

// Find returns the live session at key.
func (r *Registry) Find(key domain.SessionKey) (*domain.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[key]
	return s, ok
}

// FindAdHocMatch returns the outgoing ad-hoc session started for the same
// invitee set. The empty set never matches.
func (r *Registry) FindAdHocMatch(ids []domain.ParticipantID) (*domain.Session, bool) {
	digest := sessionkey.AdHocMatchDigest(ids)
	if digest == sessionkey.NoMatch {
		return nil, false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.Kind == domain.KindAdHoc && s.Outgoing && s.MatchDigest == digest {
			return s, true
		}
	}
	return nil, false
}

// Create adds a session at p.Key. It fails with domain.ErrEmptyName or
// domain.ErrDuplicateCreate and never replaces a live session.
func (r *Registry) Create(p CreateParams) (*domain.Session, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, domain.ErrEmptyName
	}
	if !p.Kind.Valid() {
		return nil, fmt.Errorf("create session %s: unknown kind %q", p.Key, p.Kind)
	}
	if p.Negotiation == "" {
		p.Negotiation = domain.NegotiationNone
	}

	s := &domain.Session{
		Key:              p.Key,
		ProvisionalKey:   p.Key,
		Kind:             p.Kind,
		Name:             name,
		Participants:     domain.NewParticipantSet(p.Participants...),
		InitialTargets:   slices.Clone(p.InitialTargets),
		OtherParticipant: p.Other,
		OtherName:        strings.TrimSpace(p.OtherName),
		Outgoing:         p.Outgoing,
		Negotiation:      p.Negotiation,
		Initialized:      p.Negotiation == domain.NegotiationInitialized,
		VoiceState:       domain.VoiceReady,
		CreatedAt:        r.now(),
	}
	if p.Kind == domain.KindAdHoc {
		s.MatchDigest = sessionkey.AdHocMatchDigest(p.InitialTargets)
	}

	r.mu.Lock()
	if existing, ok := r.sessions[p.Key]; ok {
		r.mu.Unlock()
		return existing, fmt.Errorf("create session %s: %w", p.Key, domain.ErrDuplicateCreate)
	}
	r.sessions[p.Key] = s
	r.mu.Unlock()

	r.log.Debug().Stringer("session", s.Key).Str("kind", string(s.Kind)).Msg("session added")
	r.Notify(domain.Event{Type: domain.EventAdded, Key: s.Key, Kind: s.Kind, Text: s.Name})
	return s, nil
}

// Activate reports that an existing session was requested again.
func (r *Registry) Activate(key domain.SessionKey) (*domain.Session, bool) {
	s, ok := r.Find(key)
	if !ok {
		return nil, false
	}
	r.Notify(domain.Event{Type: domain.EventActivated, Key: key, Kind: s.Kind, Text: s.Name})
	return s, true
}

// Rekey moves the session at oldKey to newKey. If newKey already holds a
// different session, that session is kept and the one at oldKey is merged
// into it and dropped. It panics if the registry ends up with the session
// reachable from both keys.
func (r *Registry) Rekey(oldKey, newKey domain.SessionKey) (RekeyResult, error) {
	r.mu.Lock()
	s, ok := r.sessions[oldKey]
	if !ok {
		r.mu.Unlock()
		return RekeyResult{}, fmt.Errorf("rekey %s: %w", oldKey, domain.ErrUnknownSession)
	}
	if oldKey == newKey {
		r.mu.Unlock()
		return RekeyResult{Survivor: s}, nil
	}

	res := RekeyResult{Survivor: s}
	if existing, taken := r.sessions[newKey]; taken && existing != s {
		mergeInto(existing, s)
		res = RekeyResult{Survivor: existing, Discarded: s}
	} else {
		s.Key = newKey
		r.sessions[newKey] = s
	}
	delete(r.sessions, oldKey)
	r.assertRekeyed(oldKey, newKey, res.Survivor)
	r.mu.Unlock()

	ev := r.log.Debug().Stringer("old_session", oldKey).Stringer("session", newKey)
	if res.Merged() {
		ev = ev.Bool("merged", true)
	}
	ev.Msg("session rekeyed")

	r.Notify(domain.Event{Type: domain.EventRekeyed, Key: newKey, OldKey: oldKey, Kind: res.Survivor.Kind})
	return res, nil
}

// assertRekeyed panics when a rekey left the registry inconsistent. Must be
// called with r.mu held.
func (r *Registry) assertRekeyed(oldKey, newKey domain.SessionKey, survivor *domain.Session) {
	if _, stale := r.sessions[oldKey]; stale {
		panic(fmt.Sprintf("registry: session still resolvable at %s after rekey to %s", oldKey, newKey))
	}
	if got := r.sessions[newKey]; got != survivor || survivor.Key != newKey {
		panic(fmt.Sprintf("registry: rekey to %s did not install the surviving session", newKey))
	}
}

// mergeInto folds the provisional session src into the confirmed dst.
func mergeInto(dst, src *domain.Session) {
	dst.UnreadCount += src.UnreadCount
	dst.ParticipantUnreadCount += src.ParticipantUnreadCount
	for id := range src.Participants {
		dst.Participants.Add(id)
	}
	dst.Messages = append(dst.Messages, src.Messages...)
	sort.SliceStable(dst.Messages, func(i, j int) bool {
		return dst.Messages[i].Time.Before(dst.Messages[j].Time)
	})
	dst.Outbox = append(dst.Outbox, src.Outbox...)
	dst.StartCallOnInit = dst.StartCallOnInit || src.StartCallOnInit
	src.Messages = nil
	src.Outbox = nil
}

// Remove deletes the session at key. Voice and transcript resources must
// already be released by the caller.
func (r *Registry) Remove(key domain.SessionKey) (*domain.Session, bool) {
	r.mu.Lock()
	s, ok := r.sessions[key]
	if ok {
		delete(r.sessions, key)
	}
	r.mu.Unlock()
	if !ok {
		return nil, false
	}
	r.log.Debug().Stringer("session", key).Msg("session removed")
	r.Notify(domain.Event{Type: domain.EventRemoved, Key: key, Kind: s.Kind, Text: s.Name})
	return s, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sessions returns the live sessions ordered by creation time.
func (r *Registry) Sessions() []*domain.Session {
	r.mu.Lock()
	out := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.Unlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Validate checks that every entry is stored under its own key and that no
// session is reachable from two keys.
func (r *Registry) Validate() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[*domain.Session]domain.SessionKey, len(r.sessions))
	for key, s := range r.sessions {
		if s.Key != key {
			return fmt.Errorf("session %s stored under key %s", s.Key, key)
		}
		if other, dup := seen[s]; dup {
			return fmt.Errorf("session reachable from both %s and %s", other, key)
		}
		seen[s] = key
	}
	return nil
}
