// Package commands defines the chatterbox CLI and wires dependencies for
// subcommands.
//
// Commands
//
//   - key        Print the session key for a direct, group or ad-hoc session
//   - logname    Print the transcript log name a session would write to
//   - history    Print the tail of a stored transcript
//   - send       Open a session, send one message and wait for delivery
//   - run        Run the coordinator against a relay until interrupted
//   - simulate   Replay a JSONL script against an in-memory coordinator
//
// # Implementation
//
// The root command resolves settings (config file, then flags) and a logger
// before any subcommand runs. Commands that talk to a relay build the app
// from those settings on demand.
package commands
