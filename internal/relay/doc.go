// Package relay talks JSON over HTTP to the session relay.
//
// HTTP implements the outbound side of negotiation (start, leave, invitation
// answers, chat lines) and the inbound event queue (fetch, ack). Poller
// drains that queue into a dispatch function in order, acknowledging only
// the events that were dispatched, and backs off with jitter when the relay
// is unreachable.
//
// All requests accept a context for cancellation and deadlines. Non-2xx
// statuses are returned as errors carrying the path and status text.
package relay
