package store

import (
	"sync"

	"chatterbox/internal/domain"
)

// MemoryTranscriptStore keeps transcripts in memory.
type MemoryTranscriptStore struct {
	mu   sync.Mutex
	logs map[domain.TranscriptHandle][]domain.TranscriptEntry
	meta map[domain.TranscriptHandle]domain.TranscriptMeta
}

func NewMemoryTranscriptStore() *MemoryTranscriptStore {
	return &MemoryTranscriptStore{
		logs: make(map[domain.TranscriptHandle][]domain.TranscriptEntry),
		meta: make(map[domain.TranscriptHandle]domain.TranscriptMeta),
	}
}

var _ domain.TranscriptStore = (*MemoryTranscriptStore)(nil)

func (m *MemoryTranscriptStore) Open(meta domain.TranscriptMeta) domain.TranscriptHandle {
	h := domain.TranscriptHandle(sanitizeLogName(meta.LogName))
	m.mu.Lock()
	m.meta[h] = meta
	m.mu.Unlock()
	return h
}

func (m *MemoryTranscriptStore) Append(h domain.TranscriptHandle, entry domain.TranscriptEntry) {
	m.mu.Lock()
	m.logs[h] = append(m.logs[h], entry)
	m.mu.Unlock()
}

func (m *MemoryTranscriptStore) Flush(domain.TranscriptHandle) {}

func (m *MemoryTranscriptStore) History(h domain.TranscriptHandle, limit int) ([]domain.TranscriptEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := m.logs[h]
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}
	out := make([]domain.TranscriptEntry, len(entries))
	copy(out, entries)
	return out, nil
}

func (m *MemoryTranscriptStore) Close() error { return nil }

// Handles returns every opened handle.
func (m *MemoryTranscriptStore) Handles() []domain.TranscriptHandle {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.TranscriptHandle, 0, len(m.meta))
	for h := range m.meta {
		out = append(out, h)
	}
	return out
}
