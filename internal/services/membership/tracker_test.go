package membership_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatterbox/internal/domain"
	"chatterbox/internal/services/membership"
)

func TestSpeakers(t *testing.T) {
	s := membership.NewSpeakers(zerolog.Nop())
	key, a, b := uuid.New(), uuid.New(), uuid.New()

	s.ApplyUpdates(key, map[domain.ParticipantID]domain.MembershipChange{a: domain.MembershipEnter, b: domain.MembershipEnter})
	s.ApplyUpdates(key, map[domain.ParticipantID]domain.MembershipChange{a: domain.MembershipLeave})
	if got := s.Members(key); len(got) != 1 || got[0] != b {
		t.Fatalf("members = %v", got)
	}

	s.ProcessSessionUpdate(key, map[string]string{"moderated_voice": "true"})
	if s.Info(key)["moderated_voice"] != "true" {
		t.Fatal("session info not recorded")
	}

	s.Refresh(key)
	if s.Refreshes(key) != 1 {
		t.Fatal("refresh not counted")
	}

	s.Forget(key)
	if len(s.Members(key)) != 0 || s.Refreshes(key) != 0 {
		t.Fatal("forget left state behind")
	}
}

func TestSpeakers_RekeyMovesState(t *testing.T) {
	s := membership.NewSpeakers(zerolog.Nop())
	prov, final, a, b := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	s.ApplyUpdates(prov, map[domain.ParticipantID]domain.MembershipChange{a: domain.MembershipEnter})
	s.ProcessSessionUpdate(prov, map[string]string{"moderated": "true", "topic": "old"})
	s.Refresh(prov)
	s.ApplyUpdates(final, map[domain.ParticipantID]domain.MembershipChange{b: domain.MembershipEnter})
	s.ProcessSessionUpdate(final, map[string]string{"topic": "new"})

	s.Rekey(prov, final)

	if got := s.Members(final); len(got) != 2 {
		t.Fatalf("members at new key = %v", got)
	}
	info := s.Info(final)
	if info["moderated"] != "true" || info["topic"] != "new" {
		t.Fatalf("info at new key = %v", info)
	}
	if s.Refreshes(final) != 1 {
		t.Fatal("refresh count not moved")
	}
	if len(s.Members(prov)) != 0 || len(s.Info(prov)) != 0 || s.Refreshes(prov) != 0 {
		t.Fatal("state left under the old key")
	}
}
