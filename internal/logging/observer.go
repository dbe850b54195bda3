package logging

import (
	"github.com/rs/zerolog"

	"chatterbox/internal/domain"
)

// Observer writes registry and coordinator events to a logger.
type Observer struct {
	log zerolog.Logger
}

// NewObserver returns an Observer logging through log.
func NewObserver(log zerolog.Logger) *Observer {
	return &Observer{log: Component(log, "events")}
}

var _ domain.Observer = (*Observer)(nil)

func (o *Observer) OnEvent(ev domain.Event) {
	e := o.log.Info()
	if ev.Err != nil {
		e = o.log.Warn().Err(ev.Err)
	}
	e = e.Str("event", string(ev.Type)).Stringer("session", ev.Key)
	if ev.OldKey != domain.NullID {
		e = e.Stringer("old_session", ev.OldKey)
	}
	if ev.Kind != "" {
		e = e.Str("kind", string(ev.Kind))
	}
	e.Msg(ev.Text)
}
