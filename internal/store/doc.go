// Package store persists session transcripts.
//
// TranscriptFileStore appends JSON lines to one file per log name under
// <home>/transcripts and keeps an index.json describing every log it has
// opened. MemoryTranscriptStore keeps the same data in memory for tests and
// simulations. DeriveLogName turns a session's kind, name and participants
// into the log name, so a restarted process re-attaches to the same file.
//
// Appends never fail towards the caller; write errors are logged.
package store
