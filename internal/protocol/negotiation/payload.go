package negotiation

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"chatterbox/internal/domain"
)

// encMode uses Core Deterministic Encoding: the same invitee set always
// produces the same bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("negotiation: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("negotiation: CBOR decoder initialization failed: " + err.Error())
	}
}

// invitees is the start-request payload for ad-hoc sessions.
type invitees struct {
	IDs [][16]byte `cbor:"1,keyasint"`
}

// EncodeInvitees encodes ids in sorted order, without duplicates.
func EncodeInvitees(ids []domain.ParticipantID) ([]byte, error) {
	sorted := domain.NewParticipantSet(ids...).Sorted()
	p := invitees{IDs: make([][16]byte, len(sorted))}
	for i, id := range sorted {
		p.IDs[i] = id
	}
	b, err := encMode.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode invitees: %w", err)
	}
	return b, nil
}

// DecodeInvitees is the inverse of EncodeInvitees. An empty payload decodes
// to no invitees.
func DecodeInvitees(b []byte) ([]domain.ParticipantID, error) {
	if len(b) == 0 {
		return nil, nil
	}
	var p invitees
	if err := decMode.Unmarshal(b, &p); err != nil {
		return nil, fmt.Errorf("decode invitees: %w", err)
	}
	out := make([]domain.ParticipantID, len(p.IDs))
	for i, id := range p.IDs {
		out[i] = id
	}
	return out, nil
}
