package types

import "time"

// TranscriptHandle refers to one open transcript log.
type TranscriptHandle string

// TranscriptMeta describes the log a session writes to.
type TranscriptMeta struct {
	LogName string
	Kind    Kind
	Key     SessionKey
}

// TranscriptEntry is one persisted transcript line.
type TranscriptEntry struct {
	Key      SessionKey    `json:"session_id"`
	Author   string        `json:"author"`
	AuthorID ParticipantID `json:"author_id"`
	Text     string        `json:"text"`
	Time     time.Time     `json:"time"`
	History  bool          `json:"history,omitempty"`
}

// LogNameInput is everything log-name derivation looks at.
type LogNameInput struct {
	Kind           Kind
	Name           string
	Key            SessionKey
	Other          ParticipantID
	InitialTargets []ParticipantID
}
