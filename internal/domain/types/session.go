package types

import "time"

// Kind is the conversation type of a session. It never changes after creation.
type Kind string

const (
	KindOneToOne Kind = "one_to_one"
	KindGroup    Kind = "group"
	KindAdHoc    Kind = "ad_hoc"
	KindBridge   Kind = "bridge"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindOneToOne, KindGroup, KindAdHoc, KindBridge:
		return true
	}
	return false
}

// Direct reports whether k is keyed by a pair of participants.
func (k Kind) Direct() bool { return k == KindOneToOne || k == KindBridge }

// NegotiationState tracks server confirmation of a session.
type NegotiationState string

const (
	NegotiationNone        NegotiationState = "none"
	NegotiationPending     NegotiationState = "pending"
	NegotiationInitialized NegotiationState = "initialized"
	NegotiationFailed      NegotiationState = "failed"
)

// SystemAuthor is the author name used for locally generated notices.
const SystemAuthor = "System"

// Message is one line of a session's in-memory history.
type Message struct {
	Author   string        `json:"author"`
	AuthorID ParticipantID `json:"author_id"`
	Text     string        `json:"text"`
	Time     time.Time     `json:"time"`
	History  bool          `json:"history,omitempty"`
}

// System reports whether the message was generated locally rather than
// authored by a participant.
func (m Message) System() bool { return m.AuthorID == NullID && m.Author == SystemAuthor }

// Session is the live state of one conversation. It is owned by the session
// registry and mutated only from the coordinator's event loop.
type Session struct {
	Key              SessionKey
	ProvisionalKey   SessionKey
	Kind             Kind
	Name             string
	Participants     ParticipantSet
	InitialTargets   []ParticipantID
	MatchDigest      Digest
	OtherParticipant ParticipantID
	OtherName        string
	Outgoing         bool

	Negotiation NegotiationState
	Initialized bool

	UnreadCount            int
	ParticipantUnreadCount int

	VoiceState      VoiceState
	VoiceDirection  Direction
	StartCallOnInit bool

	Transcript TranscriptHandle
	Messages   []Message
	Outbox     []string
	CreatedAt  time.Time
}

// Info returns an immutable snapshot of s.
func (s *Session) Info() SessionInfo {
	return SessionInfo{
		Key:                    s.Key,
		ProvisionalKey:         s.ProvisionalKey,
		Kind:                   s.Kind,
		Name:                   s.Name,
		Participants:           s.Participants.Sorted(),
		OtherParticipant:       s.OtherParticipant,
		OtherName:              s.OtherName,
		Outgoing:               s.Outgoing,
		Negotiation:            s.Negotiation,
		Initialized:            s.Initialized,
		UnreadCount:            s.UnreadCount,
		ParticipantUnreadCount: s.ParticipantUnreadCount,
		VoiceState:             s.VoiceState,
		VoiceDirection:         s.VoiceDirection,
		StartCallOnInit:        s.StartCallOnInit,
		Transcript:             s.Transcript,
		MessageCount:           len(s.Messages),
		QueuedOutbound:         len(s.Outbox),
		CreatedAt:              s.CreatedAt,
	}
}

// SessionInfo is a read-only copy of a session handed to callers outside the
// event loop.
type SessionInfo struct {
	Key                    SessionKey       `json:"key"`
	ProvisionalKey         SessionKey       `json:"provisional_key"`
	Kind                   Kind             `json:"kind"`
	Name                   string           `json:"name"`
	Participants           []ParticipantID  `json:"participants"`
	OtherParticipant       ParticipantID    `json:"other_participant"`
	OtherName              string           `json:"other_name,omitempty"`
	Outgoing               bool             `json:"outgoing"`
	Negotiation            NegotiationState `json:"negotiation"`
	Initialized            bool             `json:"initialized"`
	UnreadCount            int              `json:"unread_count"`
	ParticipantUnreadCount int              `json:"participant_unread_count"`
	VoiceState             VoiceState       `json:"voice_state"`
	VoiceDirection         Direction        `json:"voice_direction,omitempty"`
	StartCallOnInit        bool             `json:"start_call_on_init,omitempty"`
	Transcript             TranscriptHandle `json:"transcript"`
	MessageCount           int              `json:"message_count"`
	QueuedOutbound         int              `json:"queued_outbound,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
}
