package types

import (
	"errors"
	"fmt"
	"time"
)

// MembershipChange is the action carried by a membership update.
type MembershipChange string

const (
	MembershipEnter MembershipChange = "ENTER"
	MembershipLeave MembershipChange = "LEAVE"
)

// StartRequest asks the relay to create or join a negotiated session.
type StartRequest struct {
	Requester      ParticipantID `json:"requester"`
	RequesterName  string        `json:"requester_name,omitempty"`
	Target         ParticipantID `json:"target"`
	ProvisionalKey SessionKey    `json:"provisional_key"`
	Kind           Kind          `json:"kind"`
	Name           string        `json:"name"`
	Payload        []byte        `json:"payload,omitempty"`
}

// LeaveRequest tells the relay we left a session.
type LeaveRequest struct {
	Requester ParticipantID `json:"requester"`
	Key       SessionKey    `json:"session_id"`
}

// InvitationResponse accepts or declines an invitation.
type InvitationResponse struct {
	Responder ParticipantID `json:"responder"`
	Key       SessionKey    `json:"session_id"`
	Accept    bool          `json:"accept"`
}

// OutboundMessage is a chat line addressed to a confirmed session.
type OutboundMessage struct {
	From     ParticipantID `json:"from"`
	FromName string        `json:"from_name"`
	Key      SessionKey    `json:"session_id"`
	Kind     Kind          `json:"kind"`
	To       ParticipantID `json:"to,omitempty"`
	Name     string        `json:"session_name,omitempty"`
	Text     string        `json:"text"`
	SentAt   time.Time     `json:"sent_at"`
}

// NegotiationReply is the server's answer to a StartRequest.
type NegotiationReply struct {
	TempKey     SessionKey `json:"temp_session_id"`
	Success     bool       `json:"success"`
	AssignedKey SessionKey `json:"session_id,omitempty"`
	Reason      string     `json:"error,omitempty"`
}

// MembershipUpdate carries ENTER/LEAVE changes for a session that may not be
// known locally yet.
type MembershipUpdate struct {
	Key     SessionKey                         `json:"session_id"`
	Updates map[ParticipantID]MembershipChange `json:"updates"`
}

// ForcedClose is a server-initiated termination of a session.
type ForcedClose struct {
	Key    SessionKey `json:"session_id"`
	Reason string     `json:"reason"`
}

// SessionUpdate is opaque session metadata forwarded to the membership tracker.
type SessionUpdate struct {
	Key  SessionKey        `json:"session_id"`
	Info map[string]string `json:"info"`
}

// SessionEventReply reports the outcome of a moderation or session event.
type SessionEventReply struct {
	Key     SessionKey `json:"session_id"`
	Event   string     `json:"event"`
	Success bool       `json:"success"`
	Reason  string     `json:"error,omitempty"`
}

// InvitationEvent invites us into a session somebody else started.
type InvitationEvent struct {
	Key         SessionKey        `json:"session_id"`
	Kind        Kind              `json:"kind"`
	From        ParticipantID     `json:"from"`
	FromName    string            `json:"from_name"`
	SessionName string            `json:"session_name"`
	Context     map[string]string `json:"context,omitempty"`
}

// IncomingMessage is a chat line delivered by the relay. Key may be zero for
// direct sessions; it is then derived from the sender.
type IncomingMessage struct {
	Key         SessionKey    `json:"session_id,omitempty"`
	Kind        Kind          `json:"kind"`
	From        ParticipantID `json:"from"`
	FromName    string        `json:"from_name"`
	SessionName string        `json:"session_name,omitempty"`
	Text        string        `json:"text"`
	SentAt      time.Time     `json:"sent_at"`
}

// InboundEventType names the payload carried by an InboundEvent.
type InboundEventType string

const (
	InboundStartReply InboundEventType = "session.start.reply"
	InboundAgentList  InboundEventType = "session.agent_list"
	InboundForceClose InboundEventType = "session.force_close"
	InboundUpdate     InboundEventType = "session.update"
	InboundEventReply InboundEventType = "session.event.reply"
	InboundInvitation InboundEventType = "invitation"
	InboundMessage    InboundEventType = "message"
)

// InboundEvent is one entry of a participant's relay event queue.
type InboundEvent struct {
	Type        InboundEventType   `json:"type"`
	Reply       *NegotiationReply  `json:"reply,omitempty"`
	Membership  *MembershipUpdate  `json:"membership,omitempty"`
	ForcedClose *ForcedClose       `json:"force_close,omitempty"`
	Update      *SessionUpdate     `json:"update,omitempty"`
	EventReply  *SessionEventReply `json:"event_reply,omitempty"`
	Invitation  *InvitationEvent   `json:"invitation,omitempty"`
	Message     *IncomingMessage   `json:"message,omitempty"`
}

var errMissingPayload = errors.New("missing payload")

// Validate checks that the payload matching Type is present.
func (e InboundEvent) Validate() error {
	var ok bool
	switch e.Type {
	case InboundStartReply:
		ok = e.Reply != nil
	case InboundAgentList:
		ok = e.Membership != nil
	case InboundForceClose:
		ok = e.ForcedClose != nil
	case InboundUpdate:
		ok = e.Update != nil
	case InboundEventReply:
		ok = e.EventReply != nil
	case InboundInvitation:
		ok = e.Invitation != nil
	case InboundMessage:
		ok = e.Message != nil
	default:
		return fmt.Errorf("unknown event type %q", e.Type)
	}
	if !ok {
		return fmt.Errorf("%s: %w", e.Type, errMissingPayload)
	}
	return nil
}
