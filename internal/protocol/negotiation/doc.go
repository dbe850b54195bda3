// Package negotiation holds the session negotiation state machine and the
// binary payload of outbound start requests.
//
// # States
//
//	NONE ──────────────(start, no server)──────────▶ INITIALIZED
//	NONE ──(start, outgoing group/ad-hoc)──▶ PENDING ──(confirm)──▶ INITIALIZED
//	                                          PENDING ──(reject | timeout)──▶ FAILED
//
// Leave is accepted from every state and is handled by tearing the session
// down; it has no state of its own. Confirming an initialized session is a
// no-op. Timeouts and rejections outside PENDING are ignored, which is what
// lets a queued confirmation beat a queued timeout.
//
// # Payload
//
// Invitee lists travel as deterministic CBOR so identical sets encode to
// identical bytes.
package negotiation
