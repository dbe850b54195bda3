package app

import (
	"fmt"
	"net/http"

	"chatterbox/internal/clock"
	"chatterbox/internal/coordinator"
	"chatterbox/internal/domain"
	"chatterbox/internal/logging"
	"chatterbox/internal/relay"
	"chatterbox/internal/services/membership"
	"chatterbox/internal/services/pending"
	"chatterbox/internal/services/registry"
	"chatterbox/internal/services/voice"
	"chatterbox/internal/store"
)

// Wire bundles all stores, services, and clients for the CLI.
type Wire struct {
	Transcripts domain.TranscriptStore
	Transport   domain.NegotiationTransport
	Events      domain.EventSource
	Registry    *registry.Registry
	Updates     *pending.Buffer
	Invitations *pending.Invitations
	Voice       *voice.LogEngine
	Tracker     *membership.Speakers
	Coordinator *coordinator.Coordinator
	Poller      *relay.Poller
	Clock       clock.Clock
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) (*Wire, error) {
	s := cfg.Settings
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}

	transcripts := cfg.Transcripts
	if transcripts == nil {
		transcripts = store.NewTranscriptFileStore(s.Home, logging.Component(cfg.Log, "transcripts"))
	}

	// Relay client, shared by the coordinator and the poller unless overridden
	transport, events := cfg.Transport, cfg.Events
	if transport == nil || events == nil {
		httpClient := cfg.HTTP
		if httpClient == nil {
			httpClient = http.DefaultClient
		}
		rc := relay.NewHTTP(s.RelayURL, httpClient)
		if transport == nil {
			transport = rc
		}
		if events == nil {
			events = rc
		}
	}

	reg := registry.New(cfg.Log, clk.Now)
	reg.AddObserver(logging.NewObserver(logging.Component(cfg.Log, "events")))
	updates := pending.NewBuffer(clk.Now)
	invites := pending.NewInvitations()
	engine := voice.NewLogEngine(cfg.Log)
	tracker := membership.NewSpeakers(cfg.Log)

	var resolver domain.HandleResolver
	if len(s.Handles) > 0 {
		table := make(store.StaticResolver, len(s.Handles))
		for id, handle := range s.Handles {
			table[id] = handle
		}
		resolver = table
	}

	coord, err := coordinator.New(coordinator.Options{
		Self:        s.Self,
		SelfName:    s.DisplayName,
		Registry:    reg,
		Updates:     updates,
		Invitations: invites,
		Transport:   transport,
		Transcripts: transcripts,
		Voice:       engine,
		Tracker:     tracker,
		Resolver:    resolver,
		Clock:       clk,
		Timeout:     s.NegotiationTimeout,
		Log:         cfg.Log,
	})
	if err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}

	var poller *relay.Poller
	if !cfg.NoPoller {
		poller = relay.NewPoller(events, s.Self, coord.Dispatch, s.Poll, clk, cfg.Log)
	}

	return &Wire{
		Transcripts: transcripts,
		Transport:   transport,
		Events:      events,
		Registry:    reg,
		Updates:     updates,
		Invitations: invites,
		Voice:       engine,
		Tracker:     tracker,
		Coordinator: coord,
		Poller:      poller,
		Clock:       clk,
	}, nil
}
