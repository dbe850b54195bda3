package sessionkey_test

import (
	"testing"

	"github.com/google/uuid"

	"chatterbox/internal/domain"
	"chatterbox/internal/protocol/sessionkey"
)

func TestDirectKey_Commutative(t *testing.T) {
	for i := 0; i < 64; i++ {
		a, b := uuid.New(), uuid.New()
		if sessionkey.DirectKey(a, b) != sessionkey.DirectKey(b, a) {
			t.Fatalf("DirectKey(%s, %s) is not commutative", a, b)
		}
	}
}

func TestDirectKey_SelfMessage(t *testing.T) {
	self := uuid.New()
	if got := sessionkey.DirectKey(self, self); got != self {
		t.Fatalf("self key: got %s want %s", got, self)
	}
}

func TestDirectKey_DistinctPairs(t *testing.T) {
	self := uuid.New()
	a, b := uuid.New(), uuid.New()
	if sessionkey.DirectKey(self, a) == sessionkey.DirectKey(self, b) {
		t.Fatal("different counterparts produced the same key")
	}
}

func TestGroupKey_Identity(t *testing.T) {
	g := uuid.New()
	if sessionkey.GroupKey(g) != g {
		t.Fatal("group key must equal the group id")
	}
}

func TestAdHocProvisionalKey_Fresh(t *testing.T) {
	seen := make(map[domain.SessionKey]bool)
	for i := 0; i < 100; i++ {
		k := sessionkey.AdHocProvisionalKey()
		if k == domain.NullID || seen[k] {
			t.Fatalf("provisional key %s is null or repeated", k)
		}
		seen[k] = true
	}
}

func TestAdHocMatchDigest_OrderIndependent(t *testing.T) {
	x, y, z := uuid.New(), uuid.New(), uuid.New()
	d1 := sessionkey.AdHocMatchDigest([]domain.ParticipantID{x, y, z})
	d2 := sessionkey.AdHocMatchDigest([]domain.ParticipantID{z, x, y})
	d3 := sessionkey.AdHocMatchDigest([]domain.ParticipantID{y, z, x, y})
	if d1 != d2 || d1 != d3 {
		t.Fatalf("digests differ: %s %s %s", d1, d2, d3)
	}
	if d1.IsZero() {
		t.Fatal("non-empty set produced the no-match digest")
	}
	if d1 == sessionkey.AdHocMatchDigest([]domain.ParticipantID{x, y}) {
		t.Fatal("different sets produced the same digest")
	}
}

func TestAdHocMatchDigest_EmptySet(t *testing.T) {
	if d := sessionkey.AdHocMatchDigest(nil); d != sessionkey.NoMatch {
		t.Fatalf("empty set: got %s", d)
	}
	if d := sessionkey.AdHocMatchDigest([]domain.ParticipantID{domain.NullID}); d != sessionkey.NoMatch {
		t.Fatalf("null-only set: got %s", d)
	}
}

func TestForKind(t *testing.T) {
	self, other := uuid.New(), uuid.New()
	if sessionkey.ForKind(domain.KindOneToOne, self, other) != sessionkey.DirectKey(self, other) {
		t.Fatal("one-to-one must use the direct key")
	}
	if sessionkey.ForKind(domain.KindBridge, self, other) != sessionkey.DirectKey(self, other) {
		t.Fatal("bridge must use the direct key")
	}
	if sessionkey.ForKind(domain.KindGroup, self, other) != other {
		t.Fatal("group must use the group id")
	}
	a := sessionkey.ForKind(domain.KindAdHoc, self, other)
	b := sessionkey.ForKind(domain.KindAdHoc, self, other)
	if a == b {
		t.Fatal("ad-hoc keys must be fresh")
	}
}
