// Package voice mirrors the external voice engine onto sessions.
//
// An Adapter wraps one session's voice channel and records the last reported
// state and call direction. The Table maps (kind, direction, state) to the
// notice written into the transcript on each change; it is plain data and
// can be swapped or tested on its own.
package voice
