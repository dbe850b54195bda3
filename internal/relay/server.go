package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatterbox/internal/domain"
	"chatterbox/internal/protocol/negotiation"
)

// Server is an in-memory negotiation relay. It confirms sessions, tracks who
// is in them, forwards messages and queues inbound events per participant
// until they are fetched and acknowledged.
type Server struct {
	mu       sync.Mutex
	queues   map[domain.ParticipantID][]domain.InboundEvent
	sessions map[domain.SessionKey]*serverSession
	newKey   func() domain.SessionKey
	log      zerolog.Logger
}

type serverSession struct {
	kind    domain.Kind
	name    string
	members domain.ParticipantSet
}

// NewServer returns an empty relay. Ad-hoc sessions get random keys.
func NewServer(log zerolog.Logger) *Server {
	return &Server{
		queues:   make(map[domain.ParticipantID][]domain.InboundEvent),
		sessions: make(map[domain.SessionKey]*serverSession),
		newKey:   uuid.New,
		log:      log.With().Str("component", "relay").Logger(),
	}
}

// Handler returns the relay's HTTP API with access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /session/start", s.handleStart)
	mux.HandleFunc("POST /session/leave", s.handleLeave)
	mux.HandleFunc("POST /invitation/respond", s.handleRespond)
	mux.HandleFunc("POST /message", s.handleMessage)
	mux.HandleFunc("GET /events/{id}", s.handleFetch)
	mux.HandleFunc("POST /events/{id}/ack", s.handleAck)
	return s.accessLog(mux)
}

// Pending returns the number of queued events for id.
func (s *Server) Pending(id domain.ParticipantID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queues[id])
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req domain.StartRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	reply := domain.NegotiationReply{TempKey: req.ProvisionalKey}
	switch req.Kind {
	case domain.KindAdHoc:
		invitees, err := negotiation.DecodeInvitees(req.Payload)
		if err != nil || len(invitees) == 0 {
			reply.Reason = "no invitees"
			break
		}
		key := s.newKey()
		s.sessions[key] = &serverSession{kind: req.Kind, name: req.Name, members: domain.NewParticipantSet(req.Requester)}
		for _, id := range invitees {
			s.enqueueLocked(id, domain.InboundEvent{Type: domain.InboundInvitation, Invitation: &domain.InvitationEvent{
				Key:         key,
				Kind:        req.Kind,
				From:        req.Requester,
				FromName:    req.RequesterName,
				SessionName: req.Name,
			}})
		}
		reply.Success, reply.AssignedKey = true, key
	case domain.KindGroup:
		if req.Target == domain.NullID {
			reply.Reason = "no group"
			break
		}
		sess, ok := s.sessions[req.Target]
		if !ok {
			sess = &serverSession{kind: req.Kind, name: req.Name, members: domain.NewParticipantSet()}
			s.sessions[req.Target] = sess
		}
		sess.members.Add(req.Requester)
		reply.Success, reply.AssignedKey = true, req.Target
	default:
		reply.Reason = fmt.Sprintf("%s sessions are not negotiated", req.Kind)
	}

	s.enqueueLocked(req.Requester, domain.InboundEvent{Type: domain.InboundStartReply, Reply: &reply})
	if reply.Success {
		s.broadcastLocked(reply.AssignedKey, map[domain.ParticipantID]domain.MembershipChange{req.Requester: domain.MembershipEnter})
	}
	s.log.Info().Stringer("requester", req.Requester).Str("kind", string(req.Kind)).Bool("success", reply.Success).Msg("session start")
}

func (s *Server) handleLeave(w http.ResponseWriter, r *http.Request) {
	var req domain.LeaveRequest
	if !decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[req.Key]
	if !ok || !sess.members.Has(req.Requester) {
		return
	}
	sess.members.Remove(req.Requester)
	if len(sess.members) == 0 {
		delete(s.sessions, req.Key)
		return
	}
	s.broadcastLocked(req.Key, map[domain.ParticipantID]domain.MembershipChange{req.Requester: domain.MembershipLeave})
}

func (s *Server) handleRespond(w http.ResponseWriter, r *http.Request) {
	var resp domain.InvitationResponse
	if !decode(w, r, &resp) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[resp.Key]
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	if !resp.Accept {
		return
	}
	sess.members.Add(resp.Responder)
	s.broadcastLocked(resp.Key, map[domain.ParticipantID]domain.MembershipChange{resp.Responder: domain.MembershipEnter})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var msg domain.OutboundMessage
	if !decode(w, r, &msg) {
		return
	}
	in := domain.IncomingMessage{
		Key:         msg.Key,
		Kind:        msg.Kind,
		From:        msg.From,
		FromName:    msg.FromName,
		SessionName: msg.Name,
		Text:        msg.Text,
		SentAt:      msg.SentAt,
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.Kind.Direct() {
		if msg.To == domain.NullID {
			http.Error(w, "missing recipient", http.StatusBadRequest)
			return
		}
		// The recipient names the session after us, not after itself.
		in.SessionName = msg.FromName
		s.enqueueLocked(msg.To, domain.InboundEvent{Type: domain.InboundMessage, Message: &in})
		return
	}
	sess, ok := s.sessions[msg.Key]
	if !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}
	for _, id := range sess.members.Sorted() {
		if id == msg.From {
			continue
		}
		m := in
		s.enqueueLocked(id, domain.InboundEvent{Type: domain.InboundMessage, Message: &m})
	}
}

func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "bad limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	s.mu.Lock()
	queue := s.queues[id]
	if limit > 0 && limit < len(queue) {
		queue = queue[:limit]
	}
	out := append([]domain.InboundEvent{}, queue...)
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleAck(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var body struct {
		Count int `json:"count"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	queue := s.queues[id]
	n := min(max(body.Count, 0), len(queue))
	s.queues[id] = queue[n:]
}

func (s *Server) enqueueLocked(id domain.ParticipantID, ev domain.InboundEvent) {
	s.queues[id] = append(s.queues[id], ev)
}

// broadcastLocked sends a membership update for key to every member.
func (s *Server) broadcastLocked(key domain.SessionKey, changes map[domain.ParticipantID]domain.MembershipChange) {
	sess, ok := s.sessions[key]
	if !ok {
		return
	}
	for _, id := range sess.members.Sorted() {
		s.enqueueLocked(id, domain.InboundEvent{Type: domain.InboundAgentList, Membership: &domain.MembershipUpdate{Key: key, Updates: changes}})
	}
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (domain.ParticipantID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		http.Error(w, "bad participant id", http.StatusBadRequest)
		return domain.NullID, false
	}
	return id, true
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	n, err := r.ResponseWriter.Write(b)
	r.bytes += n
	return n, err
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.status).
			Int("bytes", rec.bytes).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
