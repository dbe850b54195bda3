package simulate_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chatterbox/internal/domain"
	"chatterbox/internal/simulate"
)

const scenario = `
# ad-hoc conference confirmed under a server-assigned key
{"op":"open","kind":"ad_hoc","name":"Planning","participants":["00000000-0000-0000-0000-000000000001","00000000-0000-0000-0000-000000000002"],"as":"conf"}
{"op":"send","ref":"conf","text":"agenda?"}
{"op":"event","event":{"type":"session.agent_list","membership":{"session_id":"00000000-0000-0000-0000-000000000009","updates":{"00000000-0000-0000-0000-000000000003":"ENTER"}}}}
{"op":"confirm","ref":"conf","assigned":"00000000-0000-0000-0000-000000000009"}
{"op":"send","ref":"conf","text":"welcome"}
`

func TestRun_AdHocScenario(t *testing.T) {
	steps, err := simulate.ParseScript(strings.NewReader(scenario))
	require.NoError(t, err)
	require.Len(t, steps, 5)

	res, err := simulate.Run(context.Background(), steps, simulate.Options{})
	require.NoError(t, err)

	k9 := uuid.MustParse("00000000-0000-0000-0000-000000000009")
	require.Len(t, res.Sessions, 1)
	s := res.Sessions[0]
	assert.Equal(t, k9, s.Key)
	assert.True(t, s.Initialized)
	assert.Equal(t, []domain.ParticipantID{
		uuid.MustParse("00000000-0000-0000-0000-000000000001"),
		uuid.MustParse("00000000-0000-0000-0000-000000000002"),
		uuid.MustParse("00000000-0000-0000-0000-000000000003"),
	}, s.Participants)
	assert.Equal(t, 2, s.MessageCount)

	require.Len(t, res.Sent, 2)
	for _, m := range res.Sent {
		assert.Equal(t, k9, m.Key)
	}
	assert.Contains(t, strings.Join(res.Events, "\n"), string(domain.EventInitialized)+" "+k9.String())
}

func TestRun_TimeoutFails(t *testing.T) {
	script := `{"op":"open","kind":"group","name":"Builders","target":"00000000-0000-0000-0000-0000000000f0"}
{"op":"advance","duration":"31s"}`
	steps, err := simulate.ParseScript(strings.NewReader(script))
	require.NoError(t, err)

	res, err := simulate.Run(context.Background(), steps, simulate.Options{})
	require.NoError(t, err)
	assert.Empty(t, res.Sessions)
	assert.Contains(t, strings.Join(res.Events, "\n"), "timed out")
}

func TestRun_StepErrors(t *testing.T) {
	_, err := simulate.ParseScript(strings.NewReader("{not json"))
	assert.ErrorContains(t, err, "line 1")

	_, err = simulate.Run(context.Background(), []simulate.Step{{Op: "send", Ref: "missing", Text: "x"}}, simulate.Options{})
	assert.ErrorContains(t, err, `unknown ref "missing"`)

	_, err = simulate.Run(context.Background(), []simulate.Step{{Op: "dance"}}, simulate.Options{})
	assert.ErrorContains(t, err, "unknown op")
}
