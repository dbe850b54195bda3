// Package config loads chatterbox settings from a TOML file laid over
// built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
)

// Config is the resolved runtime configuration.
type Config struct {
	Self        uuid.UUID
	DisplayName string
	Home        string
	RelayURL    string

	NegotiationTimeout time.Duration
	HistoryLimit       int

	Poll PollConfig
	Log  LogConfig

	// Handles maps participant ids to canonical account handles used for
	// one-to-one transcript names.
	Handles map[uuid.UUID]string
}

// PollConfig controls the relay event poller.
type PollConfig struct {
	Interval time.Duration
	Limit    int
	Backoff  BackoffConfig
}

// BackoffConfig is the retry schedule after a failed fetch.
type BackoffConfig struct {
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	Jitter       bool
}

type LogConfig struct {
	Level   string `toml:"level"`
	JSON    bool   `toml:"json"`
	NoColor bool   `toml:"no_color"`
}

// Default returns the built-in configuration.
func Default() Config {
	home := ".chatterbox"
	if dir, err := os.UserHomeDir(); err == nil {
		home = filepath.Join(dir, ".chatterbox")
	}
	return Config{
		DisplayName:        "Anonymous Resident",
		Home:               home,
		RelayURL:           "http://127.0.0.1:8080",
		NegotiationTimeout: 30 * time.Second,
		HistoryLimit:       200,
		Poll: PollConfig{
			Interval: time.Second,
			Limit:    100,
			Backoff: BackoffConfig{
				InitialDelay: 500 * time.Millisecond,
				MaxDelay:     30 * time.Second,
				Multiplier:   2,
				Jitter:       true,
			},
		},
		Log:     LogConfig{Level: "info"},
		Handles: map[uuid.UUID]string{},
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Self == uuid.Nil {
		return errors.New("self id is required")
	}
	if strings.TrimSpace(c.DisplayName) == "" {
		return errors.New("display name is required")
	}
	if strings.TrimSpace(c.Home) == "" {
		return errors.New("home directory is required")
	}
	if c.NegotiationTimeout <= 0 {
		return fmt.Errorf("negotiation timeout must be positive, got %s", c.NegotiationTimeout)
	}
	if c.Poll.Interval <= 0 {
		return fmt.Errorf("poll interval must be positive, got %s", c.Poll.Interval)
	}
	if c.Poll.Limit < 0 {
		return fmt.Errorf("poll limit must not be negative, got %d", c.Poll.Limit)
	}
	if c.Poll.Backoff.Multiplier < 1 {
		return fmt.Errorf("backoff multiplier must be >= 1, got %g", c.Poll.Backoff.Multiplier)
	}
	return nil
}

// fileConfig is the on-disk shape of config.toml.
type fileConfig struct {
	Self               string            `toml:"self"`
	DisplayName        string            `toml:"display_name"`
	Home               string            `toml:"home"`
	RelayURL           string            `toml:"relay_url"`
	NegotiationTimeout string            `toml:"negotiation_timeout"`
	HistoryLimit       int               `toml:"history_limit"`
	Poll               filePoll          `toml:"poll"`
	Log                LogConfig         `toml:"log"`
	Handles            map[string]string `toml:"handles"`
}

type filePoll struct {
	Interval     string  `toml:"interval"`
	Limit        int     `toml:"limit"`
	InitialDelay string  `toml:"backoff_initial"`
	MaxDelay     string  `toml:"backoff_max"`
	Multiplier   float64 `toml:"backoff_multiplier"`
	Jitter       bool    `toml:"backoff_jitter"`
}

// Load reads path over Default and validates the result. Keys absent from the
// file keep their default value.
func Load(path string) (Config, error) {
	cfg, err := LoadUnvalidated(path)
	if err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validate failed (%s): %w", path, err)
	}
	return cfg, nil
}

// LoadUnvalidated is Load without Validate, for callers that still apply
// overrides (e.g. command-line flags) before validating.
func LoadUnvalidated(path string) (Config, error) {
	cfg := Default()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := apply(&cfg, raw, meta); err != nil {
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	return cfg, nil
}

func apply(cfg *Config, raw fileConfig, meta toml.MetaData) error {
	if meta.IsDefined("self") {
		id, err := uuid.Parse(strings.TrimSpace(raw.Self))
		if err != nil {
			return fmt.Errorf("self: %w", err)
		}
		cfg.Self = id
	}
	if meta.IsDefined("display_name") {
		cfg.DisplayName = strings.TrimSpace(raw.DisplayName)
	}
	if meta.IsDefined("home") {
		cfg.Home = strings.TrimSpace(raw.Home)
	}
	if meta.IsDefined("relay_url") {
		cfg.RelayURL = strings.TrimRight(strings.TrimSpace(raw.RelayURL), "/")
	}
	if meta.IsDefined("negotiation_timeout") {
		d, err := time.ParseDuration(raw.NegotiationTimeout)
		if err != nil {
			return fmt.Errorf("negotiation_timeout: %w", err)
		}
		cfg.NegotiationTimeout = d
	}
	if meta.IsDefined("history_limit") {
		cfg.HistoryLimit = raw.HistoryLimit
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"interval", raw.Poll.Interval, &cfg.Poll.Interval},
		{"backoff_initial", raw.Poll.InitialDelay, &cfg.Poll.Backoff.InitialDelay},
		{"backoff_max", raw.Poll.MaxDelay, &cfg.Poll.Backoff.MaxDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined("poll", d.key) {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("poll.%s: %w", d.key, err)
		}
		*d.dst = v
	}
	if meta.IsDefined("poll", "limit") {
		cfg.Poll.Limit = raw.Poll.Limit
	}
	if meta.IsDefined("poll", "backoff_multiplier") {
		cfg.Poll.Backoff.Multiplier = raw.Poll.Multiplier
	}
	if meta.IsDefined("poll", "backoff_jitter") {
		cfg.Poll.Backoff.Jitter = raw.Poll.Jitter
	}

	if meta.IsDefined("log", "level") {
		cfg.Log.Level = raw.Log.Level
	}
	if meta.IsDefined("log", "json") {
		cfg.Log.JSON = raw.Log.JSON
	}
	if meta.IsDefined("log", "no_color") {
		cfg.Log.NoColor = raw.Log.NoColor
	}

	for idRaw, handle := range raw.Handles {
		id, err := uuid.Parse(idRaw)
		if err != nil {
			return fmt.Errorf("handles: %w", err)
		}
		cfg.Handles[id] = strings.TrimSpace(handle)
	}
	return nil
}
