package coordinator

import (
	"sync/atomic"

	"chatterbox/internal/domain"
)

// ChannelObserver forwards events to a buffered channel. Events that do not
// fit are counted and dropped so the loop never blocks on a slow reader.
type ChannelObserver struct {
	ch      chan domain.Event
	dropped atomic.Int64
}

func NewChannelObserver(size int) *ChannelObserver {
	return &ChannelObserver{ch: make(chan domain.Event, size)}
}

func (o *ChannelObserver) OnEvent(ev domain.Event) {
	select {
	case o.ch <- ev:
	default:
		o.dropped.Add(1)
	}
}

func (o *ChannelObserver) Events() <-chan domain.Event { return o.ch }

// Dropped returns how many events did not fit the buffer.
func (o *ChannelObserver) Dropped() int64 { return o.dropped.Load() }
