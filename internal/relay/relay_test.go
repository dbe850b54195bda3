package relay_test

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/config"
	"chatterbox/internal/domain"
	"chatterbox/internal/relay"
)

func TestHTTP_StartSessionAndEvents(t *testing.T) {
	self := uuid.New()
	var (
		mu      sync.Mutex
		started []domain.StartRequest
		acked   int
	)
	mux := http.NewServeMux()
	mux.HandleFunc("/session/start", func(w http.ResponseWriter, r *http.Request) {
		var req domain.StartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		started = append(started, req)
		mu.Unlock()
	})
	mux.HandleFunc("/events/"+self.String(), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		_ = json.NewEncoder(w).Encode([]domain.InboundEvent{{
			Type:  domain.InboundStartReply,
			Reply: &domain.NegotiationReply{TempKey: self, Success: true},
		}})
	})
	mux.HandleFunc("/events/"+self.String()+"/ack", func(w http.ResponseWriter, r *http.Request) {
		var body struct{ Count int }
		_ = json.NewDecoder(r.Body).Decode(&body)
		mu.Lock()
		acked += body.Count
		mu.Unlock()
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, srv.Client())
	ctx := context.Background()
	req := domain.StartRequest{Requester: self, ProvisionalKey: uuid.New(), Kind: domain.KindAdHoc, Name: "Conference", Payload: []byte{1, 2}}
	require.NoError(t, c.StartSession(ctx, req))

	events, err := c.FetchEvents(ctx, self, 10)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, domain.InboundStartReply, events[0].Type)
	require.NoError(t, c.AckEvents(ctx, self, 1))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, started, 1)
	assert.Equal(t, req.ProvisionalKey, started[0].ProvisionalKey)
	assert.Equal(t, []byte{1, 2}, started[0].Payload)
	assert.Equal(t, 1, acked)
}

func TestHTTP_Non2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTeapot)
	}))
	defer srv.Close()

	c := relay.NewHTTP(srv.URL, srv.Client())
	err := c.LeaveSession(context.Background(), domain.LeaveRequest{Key: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "/session/leave")
}

type fakeSource struct {
	mu     sync.Mutex
	queue  []domain.InboundEvent
	acked  int
	failed int
}

func (f *fakeSource) FetchEvents(_ context.Context, _ domain.ParticipantID, limit int) ([]domain.InboundEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failed > 0 {
		f.failed--
		return nil, errors.New("relay down")
	}
	n := len(f.queue)
	if limit > 0 && n > limit {
		n = limit
	}
	return append([]domain.InboundEvent(nil), f.queue[:n]...), nil
}

func (f *fakeSource) AckEvents(_ context.Context, _ domain.ParticipantID, count int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queue = f.queue[count:]
	f.acked += count
	return nil
}

func membership(key domain.SessionKey) domain.InboundEvent {
	return domain.InboundEvent{
		Type:       domain.InboundAgentList,
		Membership: &domain.MembershipUpdate{Key: key},
	}
}

func TestPoller_DispatchesInOrderAndAcks(t *testing.T) {
	k1, k2 := uuid.New(), uuid.New()
	src := &fakeSource{queue: []domain.InboundEvent{
		membership(k1),
		{Type: domain.InboundAgentList}, // malformed, skipped
		membership(k2),
	}}
	var got []domain.SessionKey
	p := relay.NewPoller(src, uuid.New(), func(ev domain.InboundEvent) error {
		got = append(got, ev.Membership.Key)
		return nil
	}, config.PollConfig{Limit: 10}, nil, zerolog.Nop())

	n, err := p.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []domain.SessionKey{k1, k2}, got)
	assert.Equal(t, 3, src.acked)
}

func TestPoller_StopsAtDispatchFailure(t *testing.T) {
	k1, k2 := uuid.New(), uuid.New()
	src := &fakeSource{queue: []domain.InboundEvent{membership(k1), membership(k2)}}
	boom := errors.New("closing")
	p := relay.NewPoller(src, uuid.New(), func(ev domain.InboundEvent) error {
		if ev.Membership.Key == k2 {
			return boom
		}
		return nil
	}, config.PollConfig{}, nil, zerolog.Nop())

	n, err := p.PollOnce(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, src.acked)
	assert.Len(t, src.queue, 1, "the failed event stays queued")
}

func TestPoller_RunStopsOnCancel(t *testing.T) {
	src := &fakeSource{failed: 1}
	ctx, cancel := context.WithCancel(context.Background())
	cfg := config.PollConfig{Interval: time.Millisecond, Backoff: config.BackoffConfig{InitialDelay: time.Millisecond, Multiplier: 2}}
	p := relay.NewPoller(src, uuid.New(), func(domain.InboundEvent) error { return nil }, cfg, nil, zerolog.Nop())

	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNextBackoffDelay(t *testing.T) {
	cfg := config.BackoffConfig{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 2}
	assert.Equal(t, 100*time.Millisecond, relay.NextBackoffDelay(cfg, 1, nil))
	assert.Equal(t, 200*time.Millisecond, relay.NextBackoffDelay(cfg, 2, nil))
	assert.Equal(t, 400*time.Millisecond, relay.NextBackoffDelay(cfg, 3, nil))
	assert.Equal(t, time.Second, relay.NextBackoffDelay(cfg, 10, nil))

	cfg.Jitter = true
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		d := relay.NextBackoffDelay(cfg, 3, rng)
		assert.GreaterOrEqual(t, d, 200*time.Millisecond)
		assert.Less(t, d, 600*time.Millisecond)
	}
}
