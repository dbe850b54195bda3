package app_test

import (
	"context"
	"net/http/httptest"
	"slices"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/app"
	"chatterbox/internal/config"
	"chatterbox/internal/coordinator"
	"chatterbox/internal/domain"
	"chatterbox/internal/relay"
)

func settings(t *testing.T, relayURL, name string) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Self = uuid.New()
	cfg.DisplayName = name
	cfg.Home = t.TempDir()
	cfg.RelayURL = relayURL
	cfg.NegotiationTimeout = 5 * time.Second
	cfg.Poll.Interval = 10 * time.Millisecond
	cfg.Poll.Backoff.InitialDelay = 10 * time.Millisecond
	cfg.Poll.Backoff.MaxDelay = 50 * time.Millisecond
	return cfg
}

func runApp(t *testing.T, cfg config.Config) *app.App {
	t.Helper()
	a, err := app.New(app.Config{Settings: cfg, Log: zerolog.Nop()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		require.NoError(t, <-done)
	})
	return a
}

func TestApp_AdHocConversationThroughRelay(t *testing.T) {
	ts := httptest.NewServer(relay.NewServer(zerolog.Nop()).Handler())
	defer ts.Close()

	alice := runApp(t, settings(t, ts.URL, "Alice Liddell"))
	bobCfg := settings(t, ts.URL, "Bob Cratchit")
	bob := runApp(t, bobCfg)
	ctx := context.Background()

	opened, err := alice.Coordinator.OpenOrCreate(ctx, coordinator.OpenRequest{
		Kind:         domain.KindAdHoc,
		Name:         "Tea party",
		Participants: []domain.ParticipantID{bobCfg.Self},
	})
	require.NoError(t, err)
	require.NoError(t, alice.Coordinator.SendMessage(ctx, opened.Key, "hello bob"))

	var key domain.SessionKey
	require.Eventually(t, func() bool {
		sessions, err := alice.Coordinator.Sessions(ctx)
		if err != nil || len(sessions) != 1 || !sessions[0].Initialized {
			return false
		}
		key = sessions[0].Key
		return true
	}, 5*time.Second, 10*time.Millisecond)
	assert.NotEqual(t, opened.Key, key)

	require.Eventually(t, func() bool {
		invites, err := bob.Coordinator.Invitations(ctx)
		return err == nil && len(invites) == 1
	}, 5*time.Second, 10*time.Millisecond)

	joined, err := bob.Coordinator.AcceptInvitation(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "Tea party", joined.Name)

	require.Eventually(t, func() bool {
		return slices.Contains(alice.Tracker.Members(key), bobCfg.Self)
	}, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, alice.Coordinator.SendMessage(ctx, key, "welcome"))
	require.Eventually(t, func() bool {
		history, err := bob.Coordinator.History(ctx, key)
		return err == nil && len(history) == 1 && history[0].Text == "welcome"
	}, 5*time.Second, 10*time.Millisecond)

	info, err := bob.Coordinator.Session(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, 1, info.ParticipantUnreadCount)
}

func TestApp_StartWithoutPoller(t *testing.T) {
	cfg := settings(t, "http://127.0.0.1:0", "Carol")
	a, err := app.New(app.Config{Settings: cfg, Log: zerolog.Nop(), NoPoller: true})
	require.NoError(t, err)
	assert.Nil(t, a.Poller)

	stop := a.Start(context.Background())
	info, err := a.Coordinator.OpenOrCreate(context.Background(), coordinator.OpenRequest{Kind: domain.KindOneToOne, Name: "Dan Brown", Target: uuid.New()})
	require.NoError(t, err)
	assert.True(t, info.Initialized)
	assert.Equal(t, domain.TranscriptHandle("dan.brown"), info.Transcript)
	require.NoError(t, stop())
}

func TestNewWire_InvalidSettings(t *testing.T) {
	_, err := app.NewWire(app.Config{Settings: config.Default(), Log: zerolog.Nop()})
	assert.ErrorContains(t, err, "self id is required")
}
