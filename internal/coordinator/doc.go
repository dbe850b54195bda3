// Package coordinator is the single entry point for session work.
//
// Local callers (opening a conversation, sending, calls) and the relay
// dispatcher both go through a Coordinator. Every operation runs on one event
// loop goroutine that owns all session state; public methods enqueue a
// closure and, for the synchronous ones, wait for its result. Timer expiries
// and transport completions are enqueued the same way, so nothing mutates a
// session concurrently.
//
// # Negotiation
//
// Outgoing group and ad-hoc sessions are usable immediately but stay pending
// until the relay confirms them. Messages typed meanwhile are shown and
// logged at once and sent when the session is confirmed. Membership updates
// for unconfirmed or unknown keys are buffered and replayed, in arrival
// order, when the session is confirmed under either its provisional or its
// assigned key.
//
// A pending session fails if no reply arrives within the negotiation
// timeout. The expiry is committed from the back of the queue, so a
// confirmation already queued when the timer fires is applied first and the
// failure is dropped.
package coordinator
