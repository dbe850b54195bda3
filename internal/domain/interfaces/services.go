package interfaces

import (
	"context"

	domaintypes "chatterbox/internal/domain/types"
)

// VoiceEngine hands out per-session voice channels. The audio pipeline lives
// behind it; only state changes flow back, via the coordinator.
type VoiceEngine interface {
	Channel(key domaintypes.SessionKey, kind domaintypes.Kind) VoiceChannel
}

// VoiceChannel is one session's handle on the voice engine.
type VoiceChannel interface {
	Activate(ctx context.Context) error
	Deactivate(ctx context.Context) error
	Rekey(key domaintypes.SessionKey)
}

// MembershipTracker keeps the speaker/participant list of voice sessions.
type MembershipTracker interface {
	ApplyUpdates(key domaintypes.SessionKey, updates map[domaintypes.ParticipantID]domaintypes.MembershipChange)
	Refresh(key domaintypes.SessionKey)
	ProcessSessionUpdate(key domaintypes.SessionKey, info map[string]string)
	// Rekey moves the state kept under oldKey to newKey, merging it into
	// whatever newKey already holds.
	Rekey(oldKey, newKey domaintypes.SessionKey)
	Forget(key domaintypes.SessionKey)
}

// Observer receives registry and coordinator notifications. OnEvent is called
// outside of any registry lock and must not block.
type Observer interface {
	OnEvent(ev domaintypes.Event)
}
