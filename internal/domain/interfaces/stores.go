package interfaces

import domaintypes "chatterbox/internal/domain/types"

// TranscriptStore is the append-only per-session log. Append never reports
// failure to the caller; implementations log persistence errors themselves.
type TranscriptStore interface {
	Open(meta domaintypes.TranscriptMeta) domaintypes.TranscriptHandle
	Append(h domaintypes.TranscriptHandle, entry domaintypes.TranscriptEntry)
	Flush(h domaintypes.TranscriptHandle)
	History(h domaintypes.TranscriptHandle, limit int) ([]domaintypes.TranscriptEntry, error)
	Close() error
}

// HandleResolver maps a participant to its canonical account handle.
type HandleResolver interface {
	CanonicalHandle(id domaintypes.ParticipantID) (string, bool)
}
