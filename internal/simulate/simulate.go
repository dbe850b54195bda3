// Package simulate replays a scripted sequence of local actions and relay
// events against an in-memory coordinator driven by a fake clock. It backs
// the `chatterbox simulate` command and is handy for reproducing ordering
// bugs without a relay.
package simulate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatterbox/internal/app"
	"chatterbox/internal/clock"
	"chatterbox/internal/config"
	"chatterbox/internal/coordinator"
	"chatterbox/internal/domain"
	"chatterbox/internal/store"
)

// Step is one line of a script. Op selects which fields are read:
//
//	open     kind, name, target, participants, voice, as
//	send     key | ref, text
//	confirm  key | ref, assigned
//	reject   key | ref, reason
//	event    event
//	voice    key | ref, state, direction
//	call     key | ref
//	leave    key | ref
//	accept   key
//	advance  duration
type Step struct {
	Op           string                 `json:"op"`
	Kind         domain.Kind            `json:"kind,omitempty"`
	Name         string                 `json:"name,omitempty"`
	Target       domain.ParticipantID   `json:"target,omitempty"`
	Participants []domain.ParticipantID `json:"participants,omitempty"`
	Voice        bool                   `json:"voice,omitempty"`
	As           string                 `json:"as,omitempty"`
	Key          domain.SessionKey      `json:"key,omitempty"`
	Ref          string                 `json:"ref,omitempty"`
	Text         string                 `json:"text,omitempty"`
	Assigned     domain.SessionKey      `json:"assigned,omitempty"`
	Reason       string                 `json:"reason,omitempty"`
	Event        *domain.InboundEvent   `json:"event,omitempty"`
	State        domain.VoiceState      `json:"state,omitempty"`
	Direction    domain.Direction       `json:"direction,omitempty"`
	Duration     string                 `json:"duration,omitempty"`
}

// Result is the state after a script ran.
type Result struct {
	Sessions []domain.SessionInfo    `json:"sessions"`
	Sent     []domain.OutboundMessage `json:"sent"`
	Events   []string                 `json:"events"`
}

// Options configure a run.
type Options struct {
	Self     domain.ParticipantID
	SelfName string
	Timeout  time.Duration
	Start    time.Time
	Log      zerolog.Logger
}

// ParseScript reads one Step per non-empty line; lines starting with # are
// comments.
func ParseScript(r io.Reader) ([]Step, error) {
	var steps []Step
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var st Step
		if err := json.Unmarshal([]byte(text), &st); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		steps = append(steps, st)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return steps, nil
}

// Run executes steps in order and returns the final state. It stops at the
// first step that fails.
func Run(ctx context.Context, steps []Step, opts Options) (Result, error) {
	if opts.Self == domain.NullID {
		opts.Self = uuid.MustParse("00000000-0000-0000-0000-00000000a11c")
	}
	if opts.SelfName == "" {
		opts.SelfName = "Simulated Resident"
	}
	if opts.Start.IsZero() {
		opts.Start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}

	settings := config.Default()
	settings.Self = opts.Self
	settings.DisplayName = opts.SelfName
	settings.Home = "memory"
	if opts.Timeout > 0 {
		settings.NegotiationTimeout = opts.Timeout
	}

	clk := clock.Fake(opts.Start)
	transport := &recorder{}
	a, err := app.New(app.Config{
		Settings:    settings,
		Log:         opts.Log,
		Clock:       clk,
		Transport:   transport,
		Events:      noEvents{},
		Transcripts: store.NewMemoryTranscriptStore(),
		NoPoller:    true,
	})
	if err != nil {
		return Result{}, err
	}
	events := coordinator.NewChannelObserver(4096)
	a.Registry.AddObserver(events)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := a.Start(runCtx)

	r := &runner{c: a.Coordinator, clk: clk, refs: map[string]domain.SessionKey{}}
	for i, st := range steps {
		if err := r.step(ctx, st); err != nil {
			_ = stop()
			return Result{}, fmt.Errorf("step %d (%s): %w", i+1, st.Op, err)
		}
		// Inbound work is queued; a synchronous query drains it.
		if _, err := a.Coordinator.Sessions(ctx); err != nil {
			_ = stop()
			return Result{}, err
		}
	}

	var res Result
	res.Sessions, err = a.Coordinator.Sessions(ctx)
	if err != nil {
		_ = stop()
		return Result{}, err
	}
	if err := stop(); err != nil {
		return Result{}, err
	}
	res.Sent = transport.snapshot()
drain:
	for {
		select {
		case ev := <-events.Events():
			res.Events = append(res.Events, describe(ev))
		default:
			break drain
		}
	}
	return res, nil
}

type runner struct {
	c    *coordinator.Coordinator
	clk  *clock.FakeClock
	refs map[string]domain.SessionKey
}

func (r *runner) key(st Step) (domain.SessionKey, error) {
	if st.Ref != "" {
		k, ok := r.refs[st.Ref]
		if !ok {
			return domain.NullID, fmt.Errorf("unknown ref %q", st.Ref)
		}
		return k, nil
	}
	if st.Key == domain.NullID {
		return domain.NullID, fmt.Errorf("key or ref required")
	}
	return st.Key, nil
}

func (r *runner) step(ctx context.Context, st Step) error {
	switch st.Op {
	case "open":
		info, err := r.c.OpenOrCreate(ctx, coordinator.OpenRequest{
			Kind:         st.Kind,
			Name:         st.Name,
			Target:       st.Target,
			Participants: st.Participants,
			Voice:        st.Voice,
		})
		if err != nil {
			return err
		}
		if st.As != "" {
			r.refs[st.As] = info.Key
		}
		return nil
	case "send":
		k, err := r.key(st)
		if err != nil {
			return err
		}
		return r.c.SendMessage(ctx, k, st.Text)
	case "confirm", "reject":
		k, err := r.key(st)
		if err != nil {
			return err
		}
		reply := domain.NegotiationReply{TempKey: k, Success: st.Op == "confirm", AssignedKey: st.Assigned, Reason: st.Reason}
		if st.Ref != "" && reply.Success && st.Assigned != domain.NullID {
			r.refs[st.Ref] = st.Assigned
		}
		return r.c.Dispatch(domain.InboundEvent{Type: domain.InboundStartReply, Reply: &reply})
	case "event":
		if st.Event == nil {
			return fmt.Errorf("event required")
		}
		return r.c.Dispatch(*st.Event)
	case "voice":
		k, err := r.key(st)
		if err != nil {
			return err
		}
		r.c.OnVoiceStateChanged(k, st.State, st.Direction)
		return nil
	case "call":
		k, err := r.key(st)
		if err != nil {
			return err
		}
		return r.c.StartCall(ctx, k)
	case "leave":
		k, err := r.key(st)
		if err != nil {
			return err
		}
		return r.c.Leave(ctx, k)
	case "accept":
		_, err := r.c.AcceptInvitation(ctx, st.Key)
		return err
	case "advance":
		d, err := time.ParseDuration(st.Duration)
		if err != nil {
			return err
		}
		r.clk.Advance(d)
		// Expiry is committed from the back of the queue; let it run.
		if _, err := r.c.Sessions(ctx); err != nil {
			return err
		}
		return nil
	}
	return fmt.Errorf("unknown op %q", st.Op)
}

func describe(ev domain.Event) string {
	var b strings.Builder
	b.WriteString(string(ev.Type))
	b.WriteString(" ")
	b.WriteString(ev.Key.String())
	if ev.OldKey != domain.NullID {
		b.WriteString(" from ")
		b.WriteString(ev.OldKey.String())
	}
	if ev.Err != nil {
		b.WriteString(": ")
		b.WriteString(ev.Err.Error())
	}
	return b.String()
}

// recorder is a transport that accepts everything and keeps sent messages.
type recorder struct {
	mu   sync.Mutex
	sent []domain.OutboundMessage
}

func (r *recorder) StartSession(context.Context, domain.StartRequest) error { return nil }
func (r *recorder) LeaveSession(context.Context, domain.LeaveRequest) error { return nil }
func (r *recorder) RespondInvitation(context.Context, domain.InvitationResponse) error {
	return nil
}

func (r *recorder) SendMessage(_ context.Context, msg domain.OutboundMessage) error {
	r.mu.Lock()
	r.sent = append(r.sent, msg)
	r.mu.Unlock()
	return nil
}

func (r *recorder) snapshot() []domain.OutboundMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.OutboundMessage(nil), r.sent...)
}

// noEvents is an empty relay queue.
type noEvents struct{}

func (noEvents) FetchEvents(context.Context, domain.ParticipantID, int) ([]domain.InboundEvent, error) {
	return nil, nil
}

func (noEvents) AckEvents(context.Context, domain.ParticipantID, int) error { return nil }
