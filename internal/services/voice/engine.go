package voice

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"chatterbox/internal/domain"
)

// LogEngine is a VoiceEngine without audio. It records which channels are
// active and logs every request, for the CLI and tests.
type LogEngine struct {
	mu     sync.Mutex
	active map[domain.SessionKey]bool
	log    zerolog.Logger
}

func NewLogEngine(log zerolog.Logger) *LogEngine {
	return &LogEngine{
		active: make(map[domain.SessionKey]bool),
		log:    log.With().Str("component", "voice").Logger(),
	}
}

var _ domain.VoiceEngine = (*LogEngine)(nil)

func (e *LogEngine) Channel(key domain.SessionKey, kind domain.Kind) domain.VoiceChannel {
	return &logChannel{engine: e, key: key, kind: kind}
}

// Active reports whether the channel for key is joined.
func (e *LogEngine) Active(key domain.SessionKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active[key]
}

func (e *LogEngine) set(key domain.SessionKey, on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if on {
		e.active[key] = true
	} else {
		delete(e.active, key)
	}
}

type logChannel struct {
	engine *LogEngine
	key    domain.SessionKey
	kind   domain.Kind
}

func (c *logChannel) Activate(context.Context) error {
	c.engine.set(c.key, true)
	c.engine.log.Info().Stringer("session", c.key).Str("kind", string(c.kind)).Msg("voice channel activated")
	return nil
}

func (c *logChannel) Deactivate(context.Context) error {
	c.engine.set(c.key, false)
	c.engine.log.Info().Stringer("session", c.key).Msg("voice channel deactivated")
	return nil
}

func (c *logChannel) Rekey(key domain.SessionKey) {
	c.engine.mu.Lock()
	if c.engine.active[c.key] {
		delete(c.engine.active, c.key)
		c.engine.active[key] = true
	}
	c.engine.mu.Unlock()
	c.key = key
}
