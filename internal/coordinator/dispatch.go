package coordinator

import (
	"fmt"

	"chatterbox/internal/domain"
)

// Dispatch routes one relay event to its handler. It fails for malformed
// events and once the coordinator is shutting down.
func (c *Coordinator) Dispatch(ev domain.InboundEvent) error {
	if err := ev.Validate(); err != nil {
		return fmt.Errorf("dispatch: %w", err)
	}
	var fn func()
	switch ev.Type {
	case domain.InboundStartReply:
		reply := *ev.Reply
		fn = func() { c.handleReply(reply) }
	case domain.InboundAgentList:
		u := *ev.Membership
		fn = func() { c.handleMembership(u) }
	case domain.InboundForceClose:
		fc := *ev.ForcedClose
		fn = func() { c.handleForcedClose(fc.Key, fc.Reason) }
	case domain.InboundUpdate:
		up := *ev.Update
		fn = func() { c.handleSessionUpdate(up.Key, up.Info) }
	case domain.InboundEventReply:
		r := *ev.EventReply
		fn = func() { c.handleEventReply(r) }
	case domain.InboundInvitation:
		inv := *ev.Invitation
		fn = func() { c.handleInvitation(inv) }
	case domain.InboundMessage:
		msg := *ev.Message
		fn = func() { c.handleIncoming(msg) }
	default:
		return fmt.Errorf("dispatch: unhandled event type %q", ev.Type)
	}
	return c.post(fn)
}
