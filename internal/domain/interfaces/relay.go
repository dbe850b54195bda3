package interfaces

import (
	"context"

	domaintypes "chatterbox/internal/domain/types"
)

// NegotiationTransport carries outbound session traffic to the relay. Calls
// are issued off the coordinator loop; results come back as inbound events.
type NegotiationTransport interface {
	StartSession(ctx context.Context, req domaintypes.StartRequest) error
	LeaveSession(ctx context.Context, req domaintypes.LeaveRequest) error
	RespondInvitation(ctx context.Context, resp domaintypes.InvitationResponse) error
	SendMessage(ctx context.Context, msg domaintypes.OutboundMessage) error
}

// EventSource is the inbound half of the relay: a per-participant queue that
// is fetched in order and acknowledged by count.
type EventSource interface {
	FetchEvents(ctx context.Context, self domaintypes.ParticipantID, limit int) ([]domaintypes.InboundEvent, error)
	AckEvents(ctx context.Context, self domaintypes.ParticipantID, count int) error
}
