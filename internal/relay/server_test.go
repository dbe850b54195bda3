package relay_test

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/domain"
	"chatterbox/internal/protocol/negotiation"
	"chatterbox/internal/relay"
)

func newRelay(t *testing.T) (*relay.Server, *relay.HTTP) {
	t.Helper()
	srv := relay.NewServer(zerolog.Nop())
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, relay.NewHTTP(ts.URL, ts.Client())
}

func fetchAll(t *testing.T, c *relay.HTTP, id domain.ParticipantID) []domain.InboundEvent {
	t.Helper()
	ctx := context.Background()
	events, err := c.FetchEvents(ctx, id, 0)
	require.NoError(t, err)
	require.NoError(t, c.AckEvents(ctx, id, len(events)))
	return events
}

func TestServer_AdHocNegotiation(t *testing.T) {
	srv, c := newRelay(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	payload, err := negotiation.EncodeInvitees([]domain.ParticipantID{bob})
	require.NoError(t, err)
	prov := uuid.New()
	require.NoError(t, c.StartSession(ctx, domain.StartRequest{
		Requester:      alice,
		RequesterName:  "Alice Liddell",
		ProvisionalKey: prov,
		Kind:           domain.KindAdHoc,
		Name:           "Tea party",
		Payload:        payload,
	}))

	aliceEvents := fetchAll(t, c, alice)
	require.Len(t, aliceEvents, 2)
	require.Equal(t, domain.InboundStartReply, aliceEvents[0].Type)
	reply := aliceEvents[0].Reply
	assert.True(t, reply.Success)
	assert.Equal(t, prov, reply.TempKey)
	key := reply.AssignedKey
	assert.NotEqual(t, prov, key)
	assert.Equal(t, domain.InboundAgentList, aliceEvents[1].Type)
	assert.Equal(t, domain.MembershipEnter, aliceEvents[1].Membership.Updates[alice])
	assert.Zero(t, srv.Pending(alice))

	bobEvents := fetchAll(t, c, bob)
	require.Len(t, bobEvents, 1)
	inv := bobEvents[0].Invitation
	require.NotNil(t, inv)
	assert.Equal(t, key, inv.Key)
	assert.Equal(t, "Alice Liddell", inv.FromName)
	assert.Equal(t, "Tea party", inv.SessionName)

	require.NoError(t, c.RespondInvitation(ctx, domain.InvitationResponse{Responder: bob, Key: key, Accept: true}))
	assert.Equal(t, 1, srv.Pending(alice))
	assert.Equal(t, 1, srv.Pending(bob))
	fetchAll(t, c, alice)
	fetchAll(t, c, bob)

	require.NoError(t, c.SendMessage(ctx, domain.OutboundMessage{From: alice, FromName: "Alice Liddell", Key: key, Kind: domain.KindAdHoc, Text: "more tea?"}))
	assert.Zero(t, srv.Pending(alice))
	bobEvents = fetchAll(t, c, bob)
	require.Len(t, bobEvents, 1)
	assert.Equal(t, "more tea?", bobEvents[0].Message.Text)
	assert.Equal(t, key, bobEvents[0].Message.Key)

	require.NoError(t, c.LeaveSession(ctx, domain.LeaveRequest{Requester: bob, Key: key}))
	aliceEvents = fetchAll(t, c, alice)
	require.Len(t, aliceEvents, 1)
	assert.Equal(t, domain.MembershipLeave, aliceEvents[0].Membership.Updates[bob])
}

func TestServer_RejectsUnnegotiatedKinds(t *testing.T) {
	_, c := newRelay(t)
	alice := uuid.New()
	require.NoError(t, c.StartSession(context.Background(), domain.StartRequest{Requester: alice, ProvisionalKey: uuid.New(), Kind: domain.KindOneToOne, Name: "x"}))

	events := fetchAll(t, c, alice)
	require.Len(t, events, 1)
	assert.False(t, events[0].Reply.Success)
	assert.Contains(t, events[0].Reply.Reason, "not negotiated")
}

func TestServer_DirectMessageAndFetchLimit(t *testing.T) {
	srv, c := newRelay(t)
	ctx := context.Background()
	alice, bob := uuid.New(), uuid.New()

	for _, text := range []string{"one", "two", "three"} {
		require.NoError(t, c.SendMessage(ctx, domain.OutboundMessage{From: alice, FromName: "Alice", To: bob, Kind: domain.KindOneToOne, Text: text}))
	}
	events, err := c.FetchEvents(ctx, bob, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "one", events[0].Message.Text)
	assert.Equal(t, "Alice", events[0].Message.SessionName)

	require.NoError(t, c.AckEvents(ctx, bob, 10))
	assert.Zero(t, srv.Pending(bob))

	assert.Error(t, c.SendMessage(ctx, domain.OutboundMessage{From: alice, Key: uuid.New(), Kind: domain.KindGroup, Text: "lost"}))
}
