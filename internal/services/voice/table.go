package voice

import (
	"strings"

	"chatterbox/internal/domain"
)

// TableKey selects a notice.
type TableKey struct {
	Kind      domain.Kind
	Direction domain.Direction
	State     domain.VoiceState
}

// Table maps voice transitions to transcript notices. "{name}" in a notice is
// replaced with the other participant's display name.
type Table map[TableKey]string

// DefaultTable returns the built-in notices. Bridge sessions have none.
func DefaultTable() Table {
	t := Table{
		{domain.KindOneToOne, domain.DirectionIncoming, domain.VoiceCallStarted}: "{name} is calling you",
		{domain.KindOneToOne, domain.DirectionIncoming, domain.VoiceConnected}:   "You joined the call",
		{domain.KindOneToOne, domain.DirectionOutgoing, domain.VoiceCallStarted}: "You started a call",
		{domain.KindOneToOne, domain.DirectionOutgoing, domain.VoiceConnected}:   "{name} answered the call",
	}
	for _, k := range []domain.Kind{domain.KindGroup, domain.KindAdHoc} {
		t[TableKey{k, domain.DirectionIncoming, domain.VoiceConnected}] = "You joined the call"
		t[TableKey{k, domain.DirectionOutgoing, domain.VoiceCallStarted}] = "You started a call"
	}
	for _, k := range []domain.Kind{domain.KindOneToOne, domain.KindGroup, domain.KindAdHoc} {
		for _, d := range []domain.Direction{domain.DirectionIncoming, domain.DirectionOutgoing} {
			t[TableKey{k, d, domain.VoiceHungUp}] = "Call ended"
		}
	}
	return t
}

// Lookup returns the notice for the transition, if any.
func (t Table) Lookup(kind domain.Kind, dir domain.Direction, state domain.VoiceState, name string) (string, bool) {
	tmpl, ok := t[TableKey{kind, dir, state}]
	if !ok {
		return "", false
	}
	return strings.ReplaceAll(tmpl, "{name}", name), true
}
