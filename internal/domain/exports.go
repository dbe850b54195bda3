package domain

import (
	interfaces "chatterbox/internal/domain/interfaces"
	types "chatterbox/internal/domain/types"
)

// Type aliases expose domain types from the types subpackage for compact imports.
type (
	ParticipantID      = types.ParticipantID
	SessionKey         = types.SessionKey
	Digest             = types.Digest
	ParticipantSet     = types.ParticipantSet
	Kind               = types.Kind
	NegotiationState   = types.NegotiationState
	Message            = types.Message
	Session            = types.Session
	SessionInfo        = types.SessionInfo
	VoiceState         = types.VoiceState
	Direction          = types.Direction
	MembershipChange   = types.MembershipChange
	StartRequest       = types.StartRequest
	LeaveRequest       = types.LeaveRequest
	InvitationResponse = types.InvitationResponse
	OutboundMessage    = types.OutboundMessage
	NegotiationReply   = types.NegotiationReply
	MembershipUpdate   = types.MembershipUpdate
	ForcedClose        = types.ForcedClose
	SessionUpdate      = types.SessionUpdate
	SessionEventReply  = types.SessionEventReply
	InvitationEvent    = types.InvitationEvent
	IncomingMessage    = types.IncomingMessage
	InboundEventType   = types.InboundEventType
	InboundEvent       = types.InboundEvent
	TranscriptHandle   = types.TranscriptHandle
	TranscriptMeta     = types.TranscriptMeta
	TranscriptEntry    = types.TranscriptEntry
	LogNameInput       = types.LogNameInput
	EventType          = types.EventType
	Event              = types.Event
)

// Interface aliases expose domain interfaces from the interfaces subpackage.
type (
	TranscriptStore      = interfaces.TranscriptStore
	HandleResolver       = interfaces.HandleResolver
	NegotiationTransport = interfaces.NegotiationTransport
	EventSource          = interfaces.EventSource
	VoiceEngine          = interfaces.VoiceEngine
	VoiceChannel         = interfaces.VoiceChannel
	MembershipTracker    = interfaces.MembershipTracker
	Observer             = interfaces.Observer
)

const (
	KindOneToOne = types.KindOneToOne
	KindGroup    = types.KindGroup
	KindAdHoc    = types.KindAdHoc
	KindBridge   = types.KindBridge

	NegotiationNone        = types.NegotiationNone
	NegotiationPending     = types.NegotiationPending
	NegotiationInitialized = types.NegotiationInitialized
	NegotiationFailed      = types.NegotiationFailed

	VoiceReady       = types.VoiceReady
	VoiceCallStarted = types.VoiceCallStarted
	VoiceRinging     = types.VoiceRinging
	VoiceConnected   = types.VoiceConnected
	VoiceHungUp      = types.VoiceHungUp
	VoiceError       = types.VoiceError

	DirectionIncoming = types.DirectionIncoming
	DirectionOutgoing = types.DirectionOutgoing

	MembershipEnter = types.MembershipEnter
	MembershipLeave = types.MembershipLeave

	InboundStartReply = types.InboundStartReply
	InboundAgentList  = types.InboundAgentList
	InboundForceClose = types.InboundForceClose
	InboundUpdate     = types.InboundUpdate
	InboundEventReply = types.InboundEventReply
	InboundInvitation = types.InboundInvitation
	InboundMessage    = types.InboundMessage

	EventAdded              = types.EventAdded
	EventActivated          = types.EventActivated
	EventRemoved            = types.EventRemoved
	EventRekeyed            = types.EventRekeyed
	EventInitialized        = types.EventInitialized
	EventNegotiationFailed  = types.EventNegotiationFailed
	EventForcedClose        = types.EventForcedClose
	EventMembership         = types.EventMembership
	EventMessage            = types.EventMessage
	EventVoice              = types.EventVoice
	EventSessionError       = types.EventSessionError
	EventInvitation         = types.EventInvitation
	EventInvitationCanceled = types.EventInvitationCanceled

	SystemAuthor = types.SystemAuthor
)

// NullID is the null participant and the "no key" session key.
var NullID = types.NullID

// NewParticipantSet builds a set from ids, dropping the null id.
func NewParticipantSet(ids ...ParticipantID) ParticipantSet { return types.NewParticipantSet(ids...) }

// SortIDs sorts ids in place by their byte representation.
func SortIDs(ids []ParticipantID) { types.SortIDs(ids) }
