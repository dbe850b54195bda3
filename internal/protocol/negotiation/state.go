package negotiation

import (
	"fmt"

	"chatterbox/internal/domain"
)

// Input drives the negotiation state machine.
type Input int

const (
	InputStart Input = iota
	InputConfirm
	InputReject
	InputTimeout
)

func (in Input) String() string {
	switch in {
	case InputStart:
		return "start"
	case InputConfirm:
		return "confirm"
	case InputReject:
		return "reject"
	case InputTimeout:
		return "timeout"
	}
	return fmt.Sprintf("input(%d)", int(in))
}

// NeedsServer reports whether starting a session of kind k requires a server
// round trip. Only locally initiated group and ad-hoc sessions do; incoming
// ones already exist on the server.
func NeedsServer(k domain.Kind, outgoing bool) bool {
	if !outgoing {
		return false
	}
	switch k {
	case domain.KindGroup, domain.KindAdHoc:
		return true
	case domain.KindOneToOne, domain.KindBridge:
		return false
	}
	return false
}

// Start returns the state a freshly created session enters.
func Start(k domain.Kind, outgoing bool) domain.NegotiationState {
	if NeedsServer(k, outgoing) {
		return domain.NegotiationPending
	}
	return domain.NegotiationInitialized
}

type edge struct {
	from domain.NegotiationState
	in   Input
}

// transitions is the complete table; pairs missing from it leave the state
// unchanged.
var transitions = map[edge]domain.NegotiationState{
	{domain.NegotiationNone, InputStart}:      domain.NegotiationPending,
	{domain.NegotiationNone, InputConfirm}:    domain.NegotiationInitialized,
	{domain.NegotiationPending, InputConfirm}: domain.NegotiationInitialized,
	{domain.NegotiationPending, InputReject}:  domain.NegotiationFailed,
	{domain.NegotiationPending, InputTimeout}: domain.NegotiationFailed,
}

// Transition applies in to from. changed is false when the input is a no-op
// in the current state, e.g. a duplicate confirmation.
func Transition(from domain.NegotiationState, in Input) (to domain.NegotiationState, changed bool) {
	to, ok := transitions[edge{from, in}]
	if !ok {
		return from, false
	}
	return to, to != from
}

// Terminal reports whether no further input can change s.
func Terminal(s domain.NegotiationState) bool {
	return s == domain.NegotiationInitialized || s == domain.NegotiationFailed
}
