package logging_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"chatterbox/internal/domain"
	"chatterbox/internal/logging"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zerolog.Level{
		"debug":   zerolog.DebugLevel,
		"WARNING": zerolog.WarnLevel,
		" off ":   zerolog.Disabled,
	}
	for raw, want := range cases {
		got, ok := logging.ParseLevel(raw)
		if !ok || got != want {
			t.Fatalf("ParseLevel(%q) = %v, %v", raw, got, ok)
		}
	}
	if _, ok := logging.ParseLevel("loud"); ok {
		t.Fatal("unknown level accepted")
	}
}

func TestObserver_WritesEvent(t *testing.T) {
	t.Setenv(logging.EnvLogJSON, "true")
	t.Setenv(logging.EnvLogLevel, "")

	var buf bytes.Buffer
	log := logging.New("test", logging.Options{Level: zerolog.DebugLevel, Out: &buf})
	obs := logging.NewObserver(log)

	key := uuid.New()
	obs.OnEvent(domain.Event{
		Type: domain.EventNegotiationFailed,
		Key:  key,
		Kind: domain.KindAdHoc,
		Err:  errors.New("boom"),
		Text: "could not start conversation",
	})

	var line map[string]any
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode log line %q: %v", buf.String(), err)
	}
	if line["event"] != string(domain.EventNegotiationFailed) || line["session"] != key.String() {
		t.Fatalf("unexpected log line: %v", line)
	}
	if line["level"] != "warn" || line["component"] != "events" {
		t.Fatalf("unexpected level/component: %v", line)
	}
}
