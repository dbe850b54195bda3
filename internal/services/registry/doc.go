// Package registry owns the map of live sessions.
//
// At most one session is live per key. Ad-hoc sessions started locally are
// also indexed by the digest of their initial invitees so that a second
// attempt with the same set finds the first before the server has assigned a
// key. Rekey moves a session from its provisional key to the confirmed one in
// one step; if the confirmed key is already taken, the existing session wins
// and absorbs the provisional one's counters, participants and messages.
//
// The registry is safe for concurrent use. Observers are notified after the
// lock is released, in registration order.
package registry
