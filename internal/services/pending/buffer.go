package pending

import (
	"sort"
	"sync"
	"time"

	"chatterbox/internal/domain"
)

// Update is one buffered membership update.
type Update struct {
	Seq      uint64
	Key      domain.SessionKey
	Changes  map[domain.ParticipantID]domain.MembershipChange
	Received time.Time
}

// Buffer stores updates per session key until the session is confirmed.
type Buffer struct {
	mu      sync.Mutex
	seq     uint64
	entries map[domain.SessionKey][]Update
	now     func() time.Time
}

// NewBuffer returns an empty buffer. now stamps arrivals.
func NewBuffer(now func() time.Time) *Buffer {
	if now == nil {
		now = time.Now
	}
	return &Buffer{entries: make(map[domain.SessionKey][]Update), now: now}
}

// Add queues changes for key. Empty updates are dropped.
func (b *Buffer) Add(key domain.SessionKey, changes map[domain.ParticipantID]domain.MembershipChange) {
	if len(changes) == 0 {
		return
	}
	cp := make(map[domain.ParticipantID]domain.MembershipChange, len(changes))
	for id, c := range changes {
		cp[id] = c
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	b.entries[key] = append(b.entries[key], Update{
		Seq:      b.seq,
		Key:      key,
		Changes:  cp,
		Received: b.now(),
	})
}

// Take removes and returns every update queued under any of keys, in arrival
// order. A key listed twice is taken once.
func (b *Buffer) Take(keys ...domain.SessionKey) []Update {
	b.mu.Lock()
	var out []Update
	for _, k := range keys {
		out = append(out, b.entries[k]...)
		delete(b.entries, k)
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

// Drop discards the updates queued under key and returns how many there were.
func (b *Buffer) Drop(key domain.SessionKey) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.entries[key])
	delete(b.entries, key)
	return n
}

// Len returns the number of updates queued under key.
func (b *Buffer) Len(key domain.SessionKey) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries[key])
}

// Expire discards every update received before cutoff and returns how many
// were dropped.
func (b *Buffer) Expire(cutoff time.Time) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for k, list := range b.entries {
		kept := list[:0]
		for _, u := range list {
			if u.Received.Before(cutoff) {
				n++
				continue
			}
			kept = append(kept, u)
		}
		if len(kept) == 0 {
			delete(b.entries, k)
		} else {
			b.entries[k] = kept
		}
	}
	return n
}

// SortedChanges returns the participants of u in byte order, so applying an
// update is deterministic.
func (u Update) SortedChanges() []domain.ParticipantID {
	ids := make([]domain.ParticipantID, 0, len(u.Changes))
	for id := range u.Changes {
		ids = append(ids, id)
	}
	domain.SortIDs(ids)
	return ids
}
