package types

import "time"

// EventType names a notification delivered to observers.
type EventType string

const (
	EventAdded              EventType = "session.added"
	EventActivated          EventType = "session.activated"
	EventRemoved            EventType = "session.removed"
	EventRekeyed            EventType = "session.rekeyed"
	EventInitialized        EventType = "session.initialized"
	EventNegotiationFailed  EventType = "session.negotiation_failed"
	EventForcedClose        EventType = "session.forced_close"
	EventMembership         EventType = "session.membership"
	EventMessage            EventType = "session.message"
	EventVoice              EventType = "session.voice"
	EventSessionError       EventType = "session.error"
	EventInvitation         EventType = "invitation.received"
	EventInvitationCanceled EventType = "invitation.canceled"
)

// Event is what registry and coordinator report to observers. OldKey is set
// for rekeys, Err for failures, Text for user-visible notices.
type Event struct {
	Type   EventType
	Key    SessionKey
	OldKey SessionKey
	Kind   Kind
	Text   string
	Err    error
	Time   time.Time
}
