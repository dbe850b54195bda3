package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// shutdownGrace bounds how long Run waits for in-flight relay calls.
const shutdownGrace = 5 * time.Second

type App struct {
	*Wire
	log zerolog.Logger
}

// New builds the dependency graph from cfg.
func New(cfg Config) (*App, error) {
	w, err := NewWire(cfg)
	if err != nil {
		return nil, err
	}
	return &App{Wire: w, log: cfg.Log}, nil
}

// Start runs the coordinator loop in the background and returns a stop
// function that shuts it down and closes the transcript store. Commands that
// do not poll the relay use it instead of Run.
func (a *App) Start(ctx context.Context) (stop func() error) {
	done := make(chan error, 1)
	go func() { done <- a.Coordinator.Run(ctx) }()
	return func() error {
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		err := a.Coordinator.Close(closeCtx)
		return errors.Join(err, <-done, a.Transcripts.Close())
	}
}

// Run runs the coordinator loop and the relay poller until ctx is done or
// one of them fails.
func (a *App) Run(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Coordinator.Run(gctx) })
	if a.Poller != nil {
		g.Go(func() error { return a.Poller.Run(gctx) })
	}
	g.Go(func() error {
		<-gctx.Done()
		closeCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := a.Coordinator.Close(closeCtx); err != nil {
			a.log.Warn().Err(err).Msg("coordinator shutdown incomplete")
		}
		return nil
	})
	err := g.Wait()
	return errors.Join(err, a.Transcripts.Close())
}
