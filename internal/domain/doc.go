// Package domain defines the session model and the contracts between the
// coordinator and its collaborators (transport, voice engine, transcripts).
// It contains plain types (wire/state) and interfaces only.
package domain
