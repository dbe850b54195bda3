package types

import (
	"bytes"
	"encoding/hex"
	"sort"

	"github.com/google/uuid"
)

// ParticipantID identifies a resident, a group or a gateway identity.
// The zero value is the null identity used for system-authored entries.
type ParticipantID = uuid.UUID

// SessionKey is the lookup key of a conversation. It is provisional while a
// session is being negotiated and confirmed once the server has assigned it.
type SessionKey = uuid.UUID

// NullID is the null participant and the "no key" session key.
var NullID = uuid.Nil

// Digest is an order-independent fingerprint of a participant set.
type Digest [32]byte

// IsZero reports whether d is the "no match" digest.
func (d Digest) IsZero() bool { return d == Digest{} }

// String returns the lowercase hex form of the digest.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// ParticipantSet is an unordered set of participants.
type ParticipantSet map[ParticipantID]struct{}

// NewParticipantSet builds a set from ids, dropping the null id.
func NewParticipantSet(ids ...ParticipantID) ParticipantSet {
	s := make(ParticipantSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add inserts id; the null id is ignored.
func (s ParticipantSet) Add(id ParticipantID) {
	if id == NullID {
		return
	}
	s[id] = struct{}{}
}

// Remove deletes id from the set.
func (s ParticipantSet) Remove(id ParticipantID) { delete(s, id) }

// Has reports membership.
func (s ParticipantSet) Has(id ParticipantID) bool {
	_, ok := s[id]
	return ok
}

// Sorted returns the members in byte order.
func (s ParticipantSet) Sorted() []ParticipantID {
	out := make([]ParticipantID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	SortIDs(out)
	return out
}

// SortIDs sorts ids in place by their byte representation.
func SortIDs(ids []ParticipantID) {
	sort.Slice(ids, func(i, j int) bool {
		return bytes.Compare(ids[i][:], ids[j][:]) < 0
	})
}
