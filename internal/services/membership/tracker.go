// Package membership keeps the per-session speaker list that voice sessions
// display, fed by membership updates and session metadata.
package membership

import (
	"sync"

	"github.com/rs/zerolog"

	"chatterbox/internal/domain"
)

// Speakers is an in-memory domain.MembershipTracker.
type Speakers struct {
	mu        sync.Mutex
	members   map[domain.SessionKey]domain.ParticipantSet
	info      map[domain.SessionKey]map[string]string
	refreshes map[domain.SessionKey]int
	log       zerolog.Logger
}

func NewSpeakers(log zerolog.Logger) *Speakers {
	return &Speakers{
		members:   make(map[domain.SessionKey]domain.ParticipantSet),
		info:      make(map[domain.SessionKey]map[string]string),
		refreshes: make(map[domain.SessionKey]int),
		log:       log.With().Str("component", "membership").Logger(),
	}
}

var _ domain.MembershipTracker = (*Speakers)(nil)

func (s *Speakers) ApplyUpdates(key domain.SessionKey, updates map[domain.ParticipantID]domain.MembershipChange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	set, ok := s.members[key]
	if !ok {
		set = domain.NewParticipantSet()
		s.members[key] = set
	}
	for id, change := range updates {
		switch change {
		case domain.MembershipEnter:
			set.Add(id)
		case domain.MembershipLeave:
			set.Remove(id)
		}
	}
}

// Refresh asks for a fresh speaker list. Without a server-side list to pull
// from it only counts requests.
func (s *Speakers) Refresh(key domain.SessionKey) {
	s.mu.Lock()
	s.refreshes[key]++
	s.mu.Unlock()
	s.log.Debug().Stringer("session", key).Msg("speaker list refresh requested")
}

func (s *Speakers) ProcessSessionUpdate(key domain.SessionKey, info map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged, ok := s.info[key]
	if !ok {
		merged = make(map[string]string, len(info))
		s.info[key] = merged
	}
	for k, v := range info {
		merged[k] = v
	}
}

func (s *Speakers) Rekey(oldKey, newKey domain.SessionKey) {
	if oldKey == newKey {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if set, ok := s.members[oldKey]; ok {
		dst, ok := s.members[newKey]
		if !ok {
			dst = domain.NewParticipantSet()
			s.members[newKey] = dst
		}
		for id := range set {
			dst.Add(id)
		}
	}
	if info, ok := s.info[oldKey]; ok {
		dst, ok := s.info[newKey]
		if !ok {
			dst = make(map[string]string, len(info))
			s.info[newKey] = dst
		}
		for k, v := range info {
			if _, set := dst[k]; !set {
				dst[k] = v
			}
		}
	}
	s.refreshes[newKey] += s.refreshes[oldKey]
	if s.refreshes[newKey] == 0 {
		delete(s.refreshes, newKey)
	}
	delete(s.members, oldKey)
	delete(s.info, oldKey)
	delete(s.refreshes, oldKey)
	s.log.Debug().Stringer("old_session", oldKey).Stringer("session", newKey).Msg("speakers rekeyed")
}

func (s *Speakers) Forget(key domain.SessionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, key)
	delete(s.info, key)
	delete(s.refreshes, key)
}

// Members returns the tracked speakers of key in byte order.
func (s *Speakers) Members(key domain.SessionKey) []domain.ParticipantID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.members[key].Sorted()
}

// Info returns a copy of the metadata last forwarded for key.
func (s *Speakers) Info(key domain.SessionKey) map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.info[key]))
	for k, v := range s.info[key] {
		out[k] = v
	}
	return out
}

// Refreshes returns how many refreshes were requested for key.
func (s *Speakers) Refreshes(key domain.SessionKey) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshes[key]
}
