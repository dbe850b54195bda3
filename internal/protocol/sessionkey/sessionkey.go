package sessionkey

import (
	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"chatterbox/internal/domain"
)

// NoMatch is the digest of the empty participant set.
var NoMatch = domain.Digest{}

// DirectKey returns the key shared by self and other. It is commutative.
func DirectKey(self, other domain.ParticipantID) domain.SessionKey {
	if other == self {
		return self
	}
	var key domain.SessionKey
	for i := range key {
		key[i] = self[i] ^ other[i]
	}
	return key
}

// GroupKey returns the key of a group session.
func GroupKey(group domain.ParticipantID) domain.SessionKey { return group }

// AdHocProvisionalKey returns a fresh random placeholder key.
func AdHocProvisionalKey() domain.SessionKey { return uuid.New() }

// AdHocMatchDigest returns an order-independent digest of ids. Duplicates and
// the null id are ignored; an empty set yields NoMatch.
func AdHocMatchDigest(ids []domain.ParticipantID) domain.Digest {
	sorted := domain.NewParticipantSet(ids...).Sorted()
	if len(sorted) == 0 {
		return NoMatch
	}
	buf := make([]byte, 0, len(sorted)*len(domain.NullID))
	for _, id := range sorted {
		buf = append(buf, id[:]...)
	}
	return domain.Digest(blake2b.Sum256(buf))
}

// ForKind derives the key a locally initiated session of kind k starts under.
// target is the counterpart for direct kinds and the group id for groups; it
// is ignored for ad-hoc sessions, which always get a new provisional key.
func ForKind(k domain.Kind, self, target domain.ParticipantID) domain.SessionKey {
	switch k {
	case domain.KindOneToOne, domain.KindBridge:
		return DirectKey(self, target)
	case domain.KindGroup:
		return GroupKey(target)
	case domain.KindAdHoc:
		return AdHocProvisionalKey()
	}
	return domain.NullID
}
