package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/clock"
	"chatterbox/internal/domain"
	"chatterbox/internal/services/membership"
	"chatterbox/internal/services/voice"
	"chatterbox/internal/store"
)

var (
	selfID = uuid.MustParse("00000000-0000-0000-0000-0000000000aa")
	u1     = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	u2     = uuid.MustParse("00000000-0000-0000-0000-000000000002")
	u3     = uuid.MustParse("00000000-0000-0000-0000-000000000003")
	k9     = uuid.MustParse("00000000-0000-0000-0000-000000000009")
	group  = uuid.MustParse("00000000-0000-0000-0000-0000000000f0")
)

const testTimeout = 30 * time.Second

type recordingTransport struct {
	mu        sync.Mutex
	starts    []domain.StartRequest
	leaves    []domain.LeaveRequest
	responses []domain.InvitationResponse
	sent      []domain.OutboundMessage
	startErr  error
	sendErr   error
}

func (r *recordingTransport) StartSession(_ context.Context, req domain.StartRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.starts = append(r.starts, req)
	return r.startErr
}

func (r *recordingTransport) LeaveSession(_ context.Context, req domain.LeaveRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaves = append(r.leaves, req)
	return nil
}

func (r *recordingTransport) RespondInvitation(_ context.Context, resp domain.InvitationResponse) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.responses = append(r.responses, resp)
	return nil
}

func (r *recordingTransport) SendMessage(_ context.Context, msg domain.OutboundMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.sendErr
}

func (r *recordingTransport) Starts() []domain.StartRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.StartRequest(nil), r.starts...)
}

func (r *recordingTransport) Leaves() []domain.LeaveRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.LeaveRequest(nil), r.leaves...)
}

func (r *recordingTransport) Responses() []domain.InvitationResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.InvitationResponse(nil), r.responses...)
}

func (r *recordingTransport) Sent() []domain.OutboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.OutboundMessage(nil), r.sent...)
}

type harness struct {
	t           *testing.T
	ctx         context.Context
	c           *Coordinator
	clk         *clock.FakeClock
	transport   *recordingTransport
	transcripts *store.MemoryTranscriptStore
	voice       *voice.LogEngine
	tracker     *membership.Speakers
	events      *ChannelObserver
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:           t,
		ctx:         context.Background(),
		clk:         clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
		transport:   &recordingTransport{},
		transcripts: store.NewMemoryTranscriptStore(),
		voice:       voice.NewLogEngine(zerolog.Nop()),
		tracker:     membership.NewSpeakers(zerolog.Nop()),
		events:      NewChannelObserver(1024),
	}
	c, err := New(Options{
		Self:        selfID,
		SelfName:    "Ada Lovelace",
		Transport:   h.transport,
		Transcripts: h.transcripts,
		Voice:       h.voice,
		Tracker:     h.tracker,
		Clock:       h.clk,
		Timeout:     testTimeout,
		Log:         zerolog.Nop(),
	})
	require.NoError(t, err)
	c.Registry().AddObserver(h.events)
	h.c = c

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(runCtx) }()
	t.Cleanup(func() {
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer closeCancel()
		require.NoError(t, c.Close(closeCtx))
		cancel()
		require.NoError(t, <-done)
	})
	return h
}

// settle waits until everything queued so far has run, including work that
// queued follow-ups behind itself.
func (h *harness) settle() {
	h.t.Helper()
	for i := 0; i < 3; i++ {
		require.NoError(h.t, h.c.call(h.ctx, func() error { return nil }))
	}
}

// hold blocks the loop until the returned func is called.
func (h *harness) hold() (release func()) {
	h.t.Helper()
	started := make(chan struct{})
	gate := make(chan struct{})
	require.NoError(h.t, h.c.post(func() {
		close(started)
		<-gate
	}))
	<-started
	return func() { close(gate) }
}

// drain returns every event delivered so far.
func (h *harness) drain() []domain.Event {
	var out []domain.Event
	for {
		select {
		case ev := <-h.events.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func eventTypes(evs []domain.Event) []domain.EventType {
	out := make([]domain.EventType, len(evs))
	for i, ev := range evs {
		out[i] = ev.Type
	}
	return out
}

func findEvent(evs []domain.Event, typ domain.EventType) (domain.Event, bool) {
	for _, ev := range evs {
		if ev.Type == typ {
			return ev, true
		}
	}
	return domain.Event{}, false
}

func (h *harness) openAdHoc(ids ...domain.ParticipantID) domain.SessionInfo {
	h.t.Helper()
	info, err := h.c.OpenOrCreate(h.ctx, OpenRequest{Kind: domain.KindAdHoc, Name: "Planning", Participants: ids})
	require.NoError(h.t, err)
	return info
}

func (h *harness) waitStarts(n int) []domain.StartRequest {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return len(h.transport.Starts()) >= n }, 2*time.Second, 5*time.Millisecond)
	return h.transport.Starts()
}

func (h *harness) waitSent(n int) []domain.OutboundMessage {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return len(h.transport.Sent()) >= n }, 2*time.Second, 5*time.Millisecond)
	return h.transport.Sent()
}
