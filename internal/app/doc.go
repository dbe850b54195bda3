// Package app wires application dependencies for the CLI.
//
// It builds the transcript store, relay client, session services and the
// coordinator from Config and exposes them via the Wire struct. App runs the
// coordinator loop and the relay poller together until the context ends.
package app
