package coordinator

import (
	"errors"
	"sync"
)

var errMailboxClosed = errors.New("coordinator mailbox is closed")

// mailbox is an unbounded FIFO of loop work. Pushing never blocks, so the
// loop itself can queue follow-up work behind what is already waiting.
type mailbox struct {
	mu     sync.Mutex
	items  []func()
	closed bool
	ready  chan struct{}
}

func newMailbox() *mailbox {
	return &mailbox{ready: make(chan struct{}, 1)}
}

func (m *mailbox) push(fn func()) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errMailboxClosed
	}
	m.items = append(m.items, fn)
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
	return nil
}

func (m *mailbox) next() (func(), bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.items) == 0 {
		return nil, false
	}
	fn := m.items[0]
	m.items[0] = nil
	m.items = m.items[1:]
	return fn, true
}

// close rejects further pushes and returns what was still queued.
func (m *mailbox) close() []func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	rest := m.items
	m.items = nil
	return rest
}
