package app

import (
	"net/http"

	"github.com/rs/zerolog"

	"chatterbox/internal/clock"
	"chatterbox/internal/config"
	"chatterbox/internal/domain"
)

// Config holds runtime wiring options for building the app. Settings come
// from the loaded config file; the remaining fields override the default
// collaborators and are mostly used by tests and the simulator.
type Config struct {
	Settings config.Config
	Log      zerolog.Logger

	HTTP        *http.Client                // optional; defaults to http.DefaultClient
	Clock       clock.Clock                 // optional; defaults to the real clock
	Transport   domain.NegotiationTransport // optional; defaults to the HTTP relay client
	Events      domain.EventSource          // optional; defaults to the HTTP relay client
	Transcripts domain.TranscriptStore      // optional; defaults to files under Settings.Home
	NoPoller    bool                        // build without a relay poller
}
