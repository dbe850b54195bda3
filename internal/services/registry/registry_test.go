package registry_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"chatterbox/internal/domain"
	"chatterbox/internal/services/registry"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) OnEvent(ev domain.Event) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *recorder) types() []domain.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func newRegistry(t *testing.T) (*registry.Registry, *recorder) {
	t.Helper()
	r := registry.New(zerolog.Nop(), nil)
	rec := &recorder{}
	r.AddObserver(rec)
	return r, rec
}

func adHoc(key domain.SessionKey, targets ...domain.ParticipantID) registry.CreateParams {
	return registry.CreateParams{
		Key:            key,
		Kind:           domain.KindAdHoc,
		Name:           "Conference",
		Participants:   targets,
		InitialTargets: targets,
		Outgoing:       true,
		Negotiation:    domain.NegotiationPending,
	}
}

func TestCreate_RejectsEmptyName(t *testing.T) {
	r, _ := newRegistry(t)
	_, err := r.Create(registry.CreateParams{Key: uuid.New(), Kind: domain.KindGroup, Name: "  "})
	require.ErrorIs(t, err, domain.ErrEmptyName)
	assert.Equal(t, 0, r.Len())
}

func TestCreate_DuplicateReturnsExisting(t *testing.T) {
	r, _ := newRegistry(t)
	key := uuid.New()
	first, err := r.Create(registry.CreateParams{Key: key, Kind: domain.KindGroup, Name: "Builders"})
	require.NoError(t, err)

	second, err := r.Create(registry.CreateParams{Key: key, Kind: domain.KindGroup, Name: "Builders"})
	require.ErrorIs(t, err, domain.ErrDuplicateCreate)
	assert.Same(t, first, second)
	assert.Equal(t, 1, r.Len())
}

func TestCreate_InitializedFollowsNegotiation(t *testing.T) {
	r, _ := newRegistry(t)
	s, err := r.Create(registry.CreateParams{
		Key: uuid.New(), Kind: domain.KindOneToOne, Name: "Ada",
		Negotiation: domain.NegotiationInitialized,
	})
	require.NoError(t, err)
	assert.True(t, s.Initialized)
	assert.Equal(t, domain.VoiceReady, s.VoiceState)
}

func TestFindAdHocMatch(t *testing.T) {
	r, _ := newRegistry(t)
	x, y, z := uuid.New(), uuid.New(), uuid.New()
	s, err := r.Create(adHoc(uuid.New(), x, y, z))
	require.NoError(t, err)

	got, ok := r.FindAdHocMatch([]domain.ParticipantID{z, y, x})
	require.True(t, ok)
	assert.Same(t, s, got)

	_, ok = r.FindAdHocMatch([]domain.ParticipantID{x, y})
	assert.False(t, ok)
	_, ok = r.FindAdHocMatch(nil)
	assert.False(t, ok)
}

func TestFindAdHocMatch_IgnoresIncoming(t *testing.T) {
	r, _ := newRegistry(t)
	x := uuid.New()
	p := adHoc(uuid.New(), x)
	p.Outgoing = false
	_, err := r.Create(p)
	require.NoError(t, err)

	_, ok := r.FindAdHocMatch([]domain.ParticipantID{x})
	assert.False(t, ok)
}

func TestRekey_MovesSession(t *testing.T) {
	r, rec := newRegistry(t)
	prov, final := uuid.New(), uuid.New()
	s, err := r.Create(adHoc(prov, uuid.New()))
	require.NoError(t, err)

	res, err := r.Rekey(prov, final)
	require.NoError(t, err)
	assert.False(t, res.Merged())
	assert.Same(t, s, res.Survivor)
	assert.Equal(t, final, s.Key)
	assert.Equal(t, prov, s.ProvisionalKey)

	_, ok := r.Find(prov)
	assert.False(t, ok, "provisional key must not resolve after rekey")
	got, ok := r.Find(final)
	require.True(t, ok)
	assert.Same(t, s, got)
	require.NoError(t, r.Validate())
	assert.Equal(t, []domain.EventType{domain.EventAdded, domain.EventRekeyed}, rec.types())
}

func TestRekey_ConflictKeepsExistingAndMerges(t *testing.T) {
	r, _ := newRegistry(t)
	u1, u2, u3 := uuid.New(), uuid.New(), uuid.New()
	prov, final := uuid.New(), uuid.New()
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	existing, err := r.Create(registry.CreateParams{
		Key: final, Kind: domain.KindAdHoc, Name: "Conference",
		Participants: []domain.ParticipantID{u1, u3}, Negotiation: domain.NegotiationInitialized,
	})
	require.NoError(t, err)
	existing.UnreadCount = 2
	existing.ParticipantUnreadCount = 1
	existing.Messages = []domain.Message{{Text: "first", Time: t0}, {Text: "third", Time: t0.Add(2 * time.Second)}}

	provisional, err := r.Create(adHoc(prov, u1, u2))
	require.NoError(t, err)
	provisional.UnreadCount = 1
	provisional.ParticipantUnreadCount = 1
	provisional.Messages = []domain.Message{{Text: "second", Time: t0.Add(time.Second)}}
	provisional.Outbox = []string{"second"}

	res, err := r.Rekey(prov, final)
	require.NoError(t, err)
	require.True(t, res.Merged())
	assert.Same(t, existing, res.Survivor)
	assert.Same(t, provisional, res.Discarded)

	assert.Equal(t, 3, existing.UnreadCount)
	assert.Equal(t, 2, existing.ParticipantUnreadCount)
	assert.ElementsMatch(t, []domain.ParticipantID{u1, u2, u3}, existing.Participants.Sorted())
	require.Len(t, existing.Messages, 3)
	assert.Equal(t, "first", existing.Messages[0].Text)
	assert.Equal(t, "second", existing.Messages[1].Text)
	assert.Equal(t, "third", existing.Messages[2].Text)
	assert.Equal(t, []string{"second"}, existing.Outbox)

	assert.Equal(t, 1, r.Len())
	_, ok := r.Find(prov)
	assert.False(t, ok)
	require.NoError(t, r.Validate())
}

func TestRekey_Unknown(t *testing.T) {
	r, _ := newRegistry(t)
	_, err := r.Rekey(uuid.New(), uuid.New())
	assert.True(t, errors.Is(err, domain.ErrUnknownSession))
}

func TestRekey_SameKeyIsNoop(t *testing.T) {
	r, rec := newRegistry(t)
	key := uuid.New()
	s, err := r.Create(adHoc(key, uuid.New()))
	require.NoError(t, err)

	res, err := r.Rekey(key, key)
	require.NoError(t, err)
	assert.Same(t, s, res.Survivor)
	assert.Equal(t, []domain.EventType{domain.EventAdded}, rec.types())
}

func TestRemove_NotifiesObservers(t *testing.T) {
	r, rec := newRegistry(t)
	key := uuid.New()
	_, err := r.Create(registry.CreateParams{Key: key, Kind: domain.KindGroup, Name: "Builders"})
	require.NoError(t, err)

	_, ok := r.Remove(key)
	require.True(t, ok)
	_, ok = r.Remove(key)
	assert.False(t, ok)
	assert.Equal(t, []domain.EventType{domain.EventAdded, domain.EventRemoved}, rec.types())
}

func TestRemoveObserver(t *testing.T) {
	r, rec := newRegistry(t)
	r.RemoveObserver(rec)
	_, err := r.Create(registry.CreateParams{Key: uuid.New(), Kind: domain.KindGroup, Name: "Builders"})
	require.NoError(t, err)
	assert.Empty(t, rec.types())
}

// Concurrent create/rekey/remove over a small key space must never leave a
// session reachable from two keys.
func TestConcurrentCreateRekeyRemove(t *testing.T) {
	r := registry.New(zerolog.Nop(), nil)
	keys := make([]domain.SessionKey, 8)
	for i := range keys {
		keys[i] = uuid.New()
	}

	var g errgroup.Group
	for w := 0; w < 16; w++ {
		w := w
		g.Go(func() error {
			for i := 0; i < 500; i++ {
				a := keys[(w+i)%len(keys)]
				b := keys[(w*3+i*5)%len(keys)]
				switch i % 3 {
				case 0:
					_, err := r.Create(adHoc(a, uuid.New()))
					if err != nil && !errors.Is(err, domain.ErrDuplicateCreate) {
						return err
					}
				case 1:
					_, err := r.Rekey(a, b)
					if err != nil && !errors.Is(err, domain.ErrUnknownSession) {
						return err
					}
				case 2:
					r.Remove(a)
				}
				if err := r.Validate(); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
	require.NoError(t, r.Validate())
	assert.LessOrEqual(t, r.Len(), len(keys))
}
