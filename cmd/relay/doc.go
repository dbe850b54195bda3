// Package main runs the in-memory HTTP relay used by chatterbox during
// development and tests. It confirms negotiated sessions, tracks membership,
// forwards messages and queues inbound events per participant until they
// fetch them.
//
// HTTP API
//
//	POST /session/start
//	    Negotiate a group or ad-hoc session. Ad-hoc sessions get a fresh key and
//	    every invitee listed in the CBOR payload receives an invitation. The
//	    requester receives a session.start.reply carrying the assigned key.
//
//	POST /session/leave
//	    Leave a session. Remaining members receive a LEAVE update.
//
//	POST /invitation/respond
//	    Accept or decline an invitation. Accepting adds the responder and
//	    sends an ENTER update to every member.
//
//	POST /message
//	    Forward a message to the counterpart of a direct session or to every
//	    other member of a group or ad-hoc session.
//
//	GET /events/{id}?limit=N
//	    Return up to N queued events for participant {id}. If limit is absent
//	    or greater than the queue length, all queued events are returned.
//
//	POST /events/{id}/ack { "count": N }
//	    Drop the first N queued events for {id}. If N exceeds the queue
//	    length, the queue is cleared.
//
// Behaviour
//
//   - All state is held in memory and lost on process exit.
//   - Requests and responses are JSON. Non-2xx statuses carry a short error
//     message.
//   - A debug-level access log records method, path, remote, status, bytes
//     and duration for each request.
//   - The default listen address is :8080.
package main
