package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"chatterbox/internal/domain"
)

const transcriptDir = "transcripts"

// TranscriptFileStore writes one JSON-lines file per log name.
type TranscriptFileStore struct {
	dir   string
	index *ConversationIndex
	log   zerolog.Logger

	mu    sync.Mutex
	files map[domain.TranscriptHandle]*transcriptFile
}

type transcriptFile struct {
	meta    domain.TranscriptMeta
	path    string
	f       *os.File
	w       *bufio.Writer
	touched time.Time
}

// NewTranscriptFileStore returns a store rooted at <home>/transcripts.
func NewTranscriptFileStore(home string, log zerolog.Logger) *TranscriptFileStore {
	dir := filepath.Join(home, transcriptDir)
	return &TranscriptFileStore{
		dir:   dir,
		index: NewConversationIndex(dir),
		log:   log.With().Str("component", "transcripts").Logger(),
		files: make(map[domain.TranscriptHandle]*transcriptFile),
	}
}

var _ domain.TranscriptStore = (*TranscriptFileStore)(nil)

// Index returns the store's conversation index.
func (s *TranscriptFileStore) Index() *ConversationIndex { return s.index }

// Open returns the handle for meta.LogName. Files are created lazily on the
// first append; opening the same name twice yields the same handle.
func (s *TranscriptFileStore) Open(meta domain.TranscriptMeta) domain.TranscriptHandle {
	h := domain.TranscriptHandle(sanitizeLogName(meta.LogName))

	s.mu.Lock()
	tf, ok := s.files[h]
	if !ok {
		tf = &transcriptFile{path: filepath.Join(s.dir, string(h)+".jsonl")}
		s.files[h] = tf
	}
	tf.meta = meta
	s.mu.Unlock()

	if err := s.index.Touch(IndexEntry{LogName: string(h), Kind: meta.Kind, LastKey: meta.Key}); err != nil {
		s.log.Warn().Err(err).Str("log", string(h)).Msg("update transcript index")
	}
	return h
}

// Append writes entry to h. Errors are logged, not returned.
func (s *TranscriptFileStore) Append(h domain.TranscriptHandle, entry domain.TranscriptEntry) {
	b, err := json.Marshal(entry)
	if err != nil {
		s.log.Error().Err(err).Str("log", string(h)).Msg("encode transcript entry")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	tf, err := s.openLocked(h)
	if err != nil {
		s.log.Error().Err(err).Str("log", string(h)).Msg("open transcript")
		return
	}
	if _, err := tf.w.Write(append(b, '\n')); err != nil {
		s.log.Error().Err(err).Str("log", string(h)).Msg("append transcript")
		return
	}
	tf.touched = entry.Time
}

func (s *TranscriptFileStore) openLocked(h domain.TranscriptHandle) (*transcriptFile, error) {
	tf, ok := s.files[h]
	if !ok {
		return nil, fmt.Errorf("transcript %q was not opened", h)
	}
	if tf.f != nil {
		return tf, nil
	}
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(tf.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, err
	}
	tf.f = f
	tf.w = bufio.NewWriter(f)
	return tf, nil
}

// Flush writes buffered entries of h to disk and records the activity in the
// index.
func (s *TranscriptFileStore) Flush(h domain.TranscriptHandle) {
	s.mu.Lock()
	tf, ok := s.files[h]
	var (
		err   error
		entry IndexEntry
	)
	if ok && tf.w != nil {
		err = tf.w.Flush()
		entry = IndexEntry{LogName: string(h), Kind: tf.meta.Kind, LastKey: tf.meta.Key, LastActivity: tf.touched}
	}
	s.mu.Unlock()

	if !ok || entry.LogName == "" {
		return
	}
	if err != nil {
		s.log.Error().Err(err).Str("log", string(h)).Msg("flush transcript")
		return
	}
	if err := s.index.Touch(entry); err != nil {
		s.log.Warn().Err(err).Str("log", string(h)).Msg("update transcript index")
	}
}

// History returns up to limit of the most recent entries of h, oldest first.
// A limit of zero or less returns everything.
func (s *TranscriptFileStore) History(h domain.TranscriptHandle, limit int) ([]domain.TranscriptEntry, error) {
	s.Flush(h)

	path := filepath.Join(s.dir, string(h)+".jsonl")
	var out []domain.TranscriptEntry
	err := readJSONLines(path, func(line []byte) error {
		var e domain.TranscriptEntry
		if err := json.Unmarshal(line, &e); err != nil {
			return fmt.Errorf("transcript %q: %w", h, err)
		}
		out = append(out, e)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	for i := range out {
		out[i].History = true
	}
	return out, nil
}

// Close flushes and closes every open file.
func (s *TranscriptFileStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var errs []error
	for h, tf := range s.files {
		if tf.f == nil {
			continue
		}
		if err := tf.w.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush %q: %w", h, err))
		}
		if err := tf.f.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %q: %w", h, err))
		}
		tf.f, tf.w = nil, nil
	}
	return errors.Join(errs...)
}
