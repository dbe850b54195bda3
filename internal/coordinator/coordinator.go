package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"chatterbox/internal/clock"
	"chatterbox/internal/domain"
	"chatterbox/internal/services/pending"
	"chatterbox/internal/services/registry"
	"chatterbox/internal/services/voice"
)

// DefaultNegotiationTimeout bounds how long a session may stay pending.
const DefaultNegotiationTimeout = 30 * time.Second

// Options are the collaborators of a Coordinator. Registry, buffers, clock
// and voice table default to fresh instances when nil.
type Options struct {
	Self     domain.ParticipantID
	SelfName string

	Registry    *registry.Registry
	Updates     *pending.Buffer
	Invitations *pending.Invitations

	Transport   domain.NegotiationTransport
	Transcripts domain.TranscriptStore
	Voice       domain.VoiceEngine
	VoiceTable  voice.Table
	Tracker     domain.MembershipTracker
	Resolver    domain.HandleResolver

	Clock   clock.Clock
	Timeout time.Duration

	// BufferTTL bounds how long a membership update waits for its session.
	// It defaults to twice Timeout.
	BufferTTL time.Duration
	Log       zerolog.Logger
}

// Coordinator owns the live sessions of one participant.
type Coordinator struct {
	self     domain.ParticipantID
	selfName string

	reg     *registry.Registry
	updates *pending.Buffer
	invites *pending.Invitations

	transport   domain.NegotiationTransport
	transcripts domain.TranscriptStore
	engine      domain.VoiceEngine
	table       voice.Table
	tracker     domain.MembershipTracker
	resolver    domain.HandleResolver

	clock     clock.Clock
	timeout   time.Duration
	bufferTTL time.Duration
	log       zerolog.Logger

	mailbox  *mailbox
	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	started  atomic.Bool

	outCtx    context.Context
	outCancel context.CancelFunc
	outbound  sync.WaitGroup

	// Owned by the loop.
	timers   map[*domain.Session]*clock.Timer
	adapters map[*domain.Session]*voice.Adapter
	aliases  map[domain.SessionKey]domain.SessionKey // provisional -> confirmed
	closing  bool
}

// New validates opts and returns a Coordinator. Call Run to start its loop.
func New(opts Options) (*Coordinator, error) {
	if opts.Self == domain.NullID {
		return nil, errors.New("coordinator: self id is required")
	}
	if strings.TrimSpace(opts.SelfName) == "" {
		return nil, fmt.Errorf("coordinator: self name: %w", domain.ErrEmptyName)
	}
	if opts.Transport == nil || opts.Transcripts == nil || opts.Voice == nil || opts.Tracker == nil {
		return nil, errors.New("coordinator: transport, transcripts, voice and tracker are required")
	}
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultNegotiationTimeout
	}
	if opts.BufferTTL <= 0 {
		opts.BufferTTL = 2 * opts.Timeout
	}
	if opts.Registry == nil {
		opts.Registry = registry.New(opts.Log, opts.Clock.Now)
	}
	if opts.Updates == nil {
		opts.Updates = pending.NewBuffer(opts.Clock.Now)
	}
	if opts.Invitations == nil {
		opts.Invitations = pending.NewInvitations()
	}
	if opts.VoiceTable == nil {
		opts.VoiceTable = voice.DefaultTable()
	}

	outCtx, outCancel := context.WithCancel(context.Background())
	return &Coordinator{
		self:        opts.Self,
		selfName:    strings.TrimSpace(opts.SelfName),
		reg:         opts.Registry,
		updates:     opts.Updates,
		invites:     opts.Invitations,
		transport:   opts.Transport,
		transcripts: opts.Transcripts,
		engine:      opts.Voice,
		table:       opts.VoiceTable,
		tracker:     opts.Tracker,
		resolver:    opts.Resolver,
		clock:       opts.Clock,
		timeout:     opts.Timeout,
		bufferTTL:   opts.BufferTTL,
		log:         opts.Log.With().Str("component", "coordinator").Logger(),
		mailbox:     newMailbox(),
		stop:        make(chan struct{}),
		done:        make(chan struct{}),
		outCtx:      outCtx,
		outCancel:   outCancel,
		timers:      make(map[*domain.Session]*clock.Timer),
		adapters:    make(map[*domain.Session]*voice.Adapter),
		aliases:     make(map[domain.SessionKey]domain.SessionKey),
	}, nil
}

// Registry exposes the session registry, e.g. to add observers.
func (c *Coordinator) Registry() *registry.Registry { return c.reg }

// Run processes queued work until ctx is done or Close is called. It must be
// called exactly once.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return errors.New("coordinator: already running")
	}
	defer close(c.done)
	for {
		for fn, ok := c.mailbox.next(); ok; fn, ok = c.mailbox.next() {
			fn()
		}
		select {
		case <-ctx.Done():
			c.shutdown()
			return nil
		case <-c.stop:
			c.shutdown()
			return nil
		case <-c.mailbox.ready:
		}
	}
}

// shutdown runs what is still queued with closing set, then releases every
// session's timer, voice channel and transcript. Sessions stay registered.
func (c *Coordinator) shutdown() {
	c.closing = true
	for _, fn := range c.mailbox.close() {
		fn()
	}
	for _, s := range c.reg.Sessions() {
		c.stopTimer(s)
		c.releaseVoice(s)
		c.transcripts.Flush(s.Transcript)
	}
	c.log.Info().Int("sessions", c.reg.Len()).Msg("coordinator stopped")
}

// Close stops the loop and waits for in-flight transport calls until ctx is
// done.
func (c *Coordinator) Close(ctx context.Context) error {
	c.stopOnce.Do(func() { close(c.stop) })
	defer c.outCancel()

	if c.started.Load() {
		select {
		case <-c.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	waited := make(chan struct{})
	go func() {
		c.outbound.Wait()
		close(waited)
	}()
	select {
	case <-waited:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// call runs fn on the loop and returns its error.
func (c *Coordinator) call(ctx context.Context, fn func() error) error {
	res := make(chan error, 1)
	if err := c.mailbox.push(func() { res <- fn() }); err != nil {
		return domain.ErrAlreadyClosing
	}
	select {
	case err := <-res:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		select {
		case err := <-res:
			return err
		default:
			return domain.ErrAlreadyClosing
		}
	}
}

// post queues fn without waiting.
func (c *Coordinator) post(fn func()) error {
	if err := c.mailbox.push(fn); err != nil {
		return domain.ErrAlreadyClosing
	}
	return nil
}

// postOrDrop queues an inbound event; after shutdown the event is dropped.
func (c *Coordinator) postOrDrop(what string, fn func()) {
	if err := c.post(fn); err != nil {
		c.log.Debug().Str("event", what).Msg("dropped event after shutdown")
	}
}

// goOutbound runs a transport call off the loop. onErr, if set, is queued
// back onto the loop when the call fails.
func (c *Coordinator) goOutbound(what string, key domain.SessionKey, fn func(ctx context.Context) error, onErr func(err error)) {
	c.outbound.Add(1)
	go func() {
		defer c.outbound.Done()
		ctx, cancel := context.WithTimeout(c.outCtx, c.timeout)
		defer cancel()
		err := fn(ctx)
		if err == nil {
			return
		}
		c.log.Warn().Err(err).Str("op", what).Stringer("session", key).Msg("relay request failed")
		if onErr != nil {
			c.postOrDrop(what, func() { onErr(err) })
		}
	}()
}

// live reports whether s is still the session registered under its key.
func (c *Coordinator) live(s *domain.Session) bool {
	cur, ok := c.reg.Find(s.Key)
	return ok && cur == s
}

func (c *Coordinator) notify(ev domain.Event) {
	if ev.Time.IsZero() {
		ev.Time = c.clock.Now()
	}
	c.reg.Notify(ev)
}

// find resolves the key of an inbound relay event. Events still addressed to
// the provisional key of a confirmed session reach that session; caller
// lookups go through sessionOrErr and see only registered keys.
func (c *Coordinator) find(key domain.SessionKey) (*domain.Session, bool) {
	if s, ok := c.reg.Find(key); ok {
		return s, true
	}
	if to, ok := c.aliases[key]; ok {
		return c.reg.Find(to)
	}
	return nil, false
}

func (c *Coordinator) sessionOrErr(key domain.SessionKey) (*domain.Session, error) {
	s, ok := c.reg.Find(key)
	if !ok {
		return nil, fmt.Errorf("session %s: %w", key, domain.ErrUnknownSession)
	}
	return s, nil
}
