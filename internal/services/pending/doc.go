// Package pending holds state addressed to sessions that are not live yet:
// membership updates that beat the negotiation reply, and invitations the
// user has not answered.
//
// Every buffered update gets a sequence number on arrival, so a batch taken
// for several keys (provisional and confirmed) is replayed in arrival order
// and then forgotten.
package pending
