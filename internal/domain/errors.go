package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyName rejects a session without a human-readable name.
	ErrEmptyName = errors.New("session name is empty")
	// ErrAlreadyClosing rejects work once the coordinator is shutting down.
	ErrAlreadyClosing = errors.New("coordinator is closing")
	// ErrUnknownSession is returned when a key resolves to no live session.
	ErrUnknownSession = errors.New("unknown session")
	// ErrDuplicateCreate is returned by the registry when the key is taken.
	ErrDuplicateCreate = errors.New("session already exists")
	// ErrNoParticipants rejects a session with no counterpart.
	ErrNoParticipants = errors.New("session has no participants")
	// ErrNegotiationTimeout means the server never confirmed the session.
	ErrNegotiationTimeout = errors.New("session negotiation timed out")
	// ErrNegotiationRejected means the server refused the session.
	ErrNegotiationRejected = errors.New("session negotiation rejected")
	// ErrForcedClose means the server terminated a live session.
	ErrForcedClose = errors.New("session closed by server")
	// ErrInvitationExists rejects a second invitation for the same key.
	ErrInvitationExists = errors.New("invitation already pending")
	// ErrUnknownInvitation is returned when no invitation is pending for a key.
	ErrUnknownInvitation = errors.New("unknown invitation")
	// ErrSessionEvent wraps a failed session event reply.
	ErrSessionEvent = errors.New("session event failed")
)

// NegotiationError reports a session that could not be started.
type NegotiationError struct {
	Key    SessionKey
	Reason string
	Err    error // ErrNegotiationTimeout or ErrNegotiationRejected
}

func (e *NegotiationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("could not start conversation %s: %v", e.Key, e.Err)
	}
	return fmt.Sprintf("could not start conversation %s: %v: %s", e.Key, e.Err, e.Reason)
}

func (e *NegotiationError) Unwrap() error { return e.Err }

// ForcedCloseError carries the server-supplied reason for a forced close.
type ForcedCloseError struct {
	Key    SessionKey
	Reason string
}

func (e *ForcedCloseError) Error() string {
	return fmt.Sprintf("session %s closed: %s", e.Key, e.Reason)
}

func (e *ForcedCloseError) Unwrap() error { return ErrForcedClose }

// SessionEventError reports a rejected session event (e.g. a mute request).
type SessionEventError struct {
	Key    SessionKey
	Event  string
	Reason string
}

func (e *SessionEventError) Error() string {
	return fmt.Sprintf("session %s event %q: %s", e.Key, e.Event, e.Reason)
}

func (e *SessionEventError) Unwrap() error { return ErrSessionEvent }
