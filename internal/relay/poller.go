package relay

import (
	"context"
	"errors"
	"math/rand"

	"github.com/rs/zerolog"

	"chatterbox/internal/clock"
	"chatterbox/internal/config"
	"chatterbox/internal/domain"
)

// DispatchFunc hands one inbound event to its consumer.
type DispatchFunc func(ev domain.InboundEvent) error

// Poller drains a participant's relay event queue.
type Poller struct {
	source   domain.EventSource
	self     domain.ParticipantID
	dispatch DispatchFunc
	cfg      config.PollConfig
	clock    clock.Clock
	rng      *rand.Rand
	log      zerolog.Logger
}

// NewPoller returns a poller for self. A nil clk means the real clock.
func NewPoller(source domain.EventSource, self domain.ParticipantID, dispatch DispatchFunc, cfg config.PollConfig, clk clock.Clock, log zerolog.Logger) *Poller {
	if clk == nil {
		clk = clock.Real()
	}
	return &Poller{
		source:   source,
		self:     self,
		dispatch: dispatch,
		cfg:      cfg,
		clock:    clk,
		rng:      rand.New(rand.NewSource(clk.Now().UnixNano())),
		log:      log.With().Str("component", "poller").Logger(),
	}
}

// Run polls until ctx is done. It returns nil on cancellation.
func (p *Poller) Run(ctx context.Context) error {
	attempt := 0
	for {
		n, err := p.PollOnce(ctx)
		wait := p.cfg.Interval
		switch {
		case errors.Is(err, context.Canceled) || ctx.Err() != nil:
			return nil
		case err != nil:
			attempt++
			wait = NextBackoffDelay(p.cfg.Backoff, attempt, p.rng)
			p.log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", wait).Msg("relay poll failed")
		default:
			attempt = 0
			if n > 0 {
				wait = 0
			}
		}
		if wait <= 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-p.clock.After(wait):
		}
	}
}

// PollOnce fetches one batch, dispatches it in order and acknowledges the
// events that were dispatched. Dispatch stops at the first failure so the
// rest is fetched again next time.
func (p *Poller) PollOnce(ctx context.Context) (int, error) {
	events, err := p.source.FetchEvents(ctx, p.self, p.cfg.Limit)
	if err != nil {
		return 0, err
	}
	processed := 0
	var dispatchErr error
	for _, ev := range events {
		if err := ev.Validate(); err != nil {
			// Malformed events are skipped and acknowledged.
			p.log.Warn().Err(err).Msg("dropping malformed relay event")
			processed++
			continue
		}
		if err := p.dispatch(ev); err != nil {
			dispatchErr = err
			break
		}
		processed++
	}
	if processed > 0 {
		if err := p.source.AckEvents(ctx, p.self, processed); err != nil {
			return processed, err
		}
	}
	return processed, dispatchErr
}
