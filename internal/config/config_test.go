package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"chatterbox/internal/config"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoad_OverlaysDefaults(t *testing.T) {
	self := uuid.New()
	friend := uuid.New()
	path := writeConfig(t, `
self = "`+self.String()+`"
display_name = "Ada Lovelace"
relay_url = "http://relay.local:9000/"
negotiation_timeout = "10s"

[poll]
interval = "250ms"
backoff_max = "5s"

[log]
level = "debug"
json = true

[handles]
"`+friend.String()+`" = "charles.babbage"
`)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Self != self || cfg.DisplayName != "Ada Lovelace" {
		t.Fatalf("identity not loaded: %+v", cfg)
	}
	if cfg.RelayURL != "http://relay.local:9000" {
		t.Fatalf("relay url = %q", cfg.RelayURL)
	}
	if cfg.NegotiationTimeout != 10*time.Second {
		t.Fatalf("timeout = %s", cfg.NegotiationTimeout)
	}
	if cfg.Poll.Interval != 250*time.Millisecond || cfg.Poll.Backoff.MaxDelay != 5*time.Second {
		t.Fatalf("poll = %+v", cfg.Poll)
	}
	def := config.Default()
	if cfg.Poll.Limit != def.Poll.Limit || cfg.Poll.Backoff.InitialDelay != def.Poll.Backoff.InitialDelay {
		t.Fatalf("undefined poll keys lost their defaults: %+v", cfg.Poll)
	}
	if cfg.Log.Level != "debug" || !cfg.Log.JSON {
		t.Fatalf("log = %+v", cfg.Log)
	}
	if cfg.Handles[friend] != "charles.babbage" {
		t.Fatalf("handles = %v", cfg.Handles)
	}
}

func TestLoad_RequiresSelf(t *testing.T) {
	path := writeConfig(t, `display_name = "Ada"`)
	_, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), "self id is required") {
		t.Fatalf("expected missing self error, got %v", err)
	}
}

func TestLoad_BadDuration(t *testing.T) {
	path := writeConfig(t, `
self = "`+uuid.NewString()+`"
negotiation_timeout = "soon"
`)
	if _, err := config.Load(path); err == nil {
		t.Fatal("expected duration parse error")
	}
}

func TestValidate_NonPositiveTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.Self = uuid.New()
	cfg.NegotiationTimeout = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadUnvalidated_LeavesSelfForFlags(t *testing.T) {
	path := writeConfig(t, `display_name = "Ada"`)
	cfg, err := config.LoadUnvalidated(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Self != uuid.Nil || cfg.DisplayName != "Ada" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}
