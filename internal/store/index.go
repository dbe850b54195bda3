package store

import (
	"path/filepath"
	"sort"
	"sync"
	"time"

	"chatterbox/internal/domain"
)

const indexFilename = "index.json"

// IndexEntry describes one transcript log.
type IndexEntry struct {
	LogName      string            `json:"log_name"`
	Kind         domain.Kind       `json:"kind"`
	LastKey      domain.SessionKey `json:"last_session_id"`
	LastActivity time.Time         `json:"last_activity"`
}

// ConversationIndex persists the list of known transcript logs to disk.
type ConversationIndex struct {
	dir string
	mu  sync.Mutex
}

// NewConversationIndex returns an index rooted at dir.
func NewConversationIndex(dir string) *ConversationIndex {
	return &ConversationIndex{dir: dir}
}

// Touch records activity on a log.
func (x *ConversationIndex) Touch(e IndexEntry) error {
	x.mu.Lock()
	defer x.mu.Unlock()

	path := filepath.Join(x.dir, indexFilename)
	entries := map[string]IndexEntry{}
	if err := readJSON(path, &entries); err != nil {
		return err
	}
	prev, ok := entries[e.LogName]
	if ok && prev.LastActivity.After(e.LastActivity) {
		e.LastActivity = prev.LastActivity
	}
	entries[e.LogName] = e
	return writeJSON(path, entries, 0o600)
}

// List returns every indexed log, most recently active first.
func (x *ConversationIndex) List() ([]IndexEntry, error) {
	x.mu.Lock()
	defer x.mu.Unlock()

	entries := map[string]IndexEntry{}
	if err := readJSON(filepath.Join(x.dir, indexFilename), &entries); err != nil {
		return nil, err
	}
	out := make([]IndexEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].LastActivity.Equal(out[j].LastActivity) {
			return out[i].LogName < out[j].LogName
		}
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}
