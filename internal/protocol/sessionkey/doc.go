// Package sessionkey derives session keys from participant identities.
//
// # Keys
//
// Direct sessions (one-to-one and bridge) are keyed by XOR-ing the two
// participant ids, so either side computes the same key without a round trip.
// A message to oneself is keyed by one's own id. Group sessions use the group
// id. Ad-hoc sessions start under a random provisional key; the server assigns
// the final one.
//
// # Ad-hoc matching
//
// Before the server answers, an outgoing ad-hoc session is found again by a
// BLAKE2b-256 digest over its sorted, de-duplicated invitee ids. The empty set
// yields the zero digest, which never matches.
//
// Every function here is pure and safe for concurrent use.
package sessionkey
