// Package logging builds the process zerolog logger. Defaults depend on the
// profile and can be overridden from the environment.
package logging

import (
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	EnvLogLevel   = "CHATTERBOX_LOG_LEVEL"
	EnvLogNoColor = "CHATTERBOX_LOG_NOCOLOR"
	EnvLogJSON    = "CHATTERBOX_LOG_JSON"
)

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Options selects the output format of a logger.
type Options struct {
	Level   zerolog.Level
	JSON    bool
	NoColor bool
	Out     io.Writer
}

// Defaults returns the options for profile before env overrides.
func Defaults(profile Profile) Options {
	switch profile {
	case ProfileTest:
		return Options{Level: zerolog.DebugLevel, NoColor: true, Out: os.Stderr}
	default:
		return Options{Level: zerolog.InfoLevel, Out: os.Stderr}
	}
}

// New returns a logger for app with env overrides applied on top of opts.
func New(app string, opts Options) zerolog.Logger {
	applyEnvOverrides(&opts)
	if opts.Out == nil {
		opts.Out = os.Stderr
	}
	out := opts.Out
	if !opts.JSON {
		out = zerolog.ConsoleWriter{Out: opts.Out, TimeFormat: time.RFC3339, NoColor: opts.NoColor}
	}
	return zerolog.New(out).Level(opts.Level).With().Timestamp().Str("app", app).Logger()
}

// Component derives a child logger tagged with name.
func Component(base zerolog.Logger, name string) zerolog.Logger {
	return base.With().Str("component", name).Logger()
}

func applyEnvOverrides(opts *Options) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		opts.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		opts.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogJSON)); ok {
		opts.JSON = v
	}
}

// ParseLevel accepts the usual level names plus a few aliases for "off".
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "disabled", "disable", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
