package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/worklog/internal/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestStore(clock *fakeClock, maxSessions int) *Store {
	return NewStore(Config{
		TTL:           DefaultTTL,
		SweepInterval: time.Minute,
		MaxSessions:   maxSessions,
		Clock:         clock.Now,
	})
}

func payloadFor(id string) *domain.FetchResult {
	return &domain.FetchResult{Outcome: domain.OutcomeEntryBuilt, Entry: &domain.Format7Entry{
		EntryMetadata: domain.EntryMetadata{EntryID: id},
	}}
}

func TestCreateThenGetRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(clock, 10)

	id := store.Create("user-1", []domain.ToolType{domain.ToolGitHub}, payloadFor("e1"))

	sess, err := store.Get(id)
	require.NoError(t, err)
	require.Equal(t, "user-1", sess.UserID)
	require.Equal(t, "e1", sess.Payload.Entry.EntryMetadata.EntryID)
	require.Equal(t, clock.now.Add(DefaultTTL), sess.ExpiresAt)
}

func TestGetReadableBeforeTTLAndGoneAfter(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(clock, 10)

	id := store.Create("user-1", nil, payloadFor("e1"))

	clock.Advance(29 * time.Minute)
	_, err := store.Get(id)
	require.NoError(t, err, "session must be readable at T0+29min")

	clock.Advance(2 * time.Minute)
	_, err = store.Get(id)
	require.ErrorIs(t, err, domain.ErrSessionNotFound, "session must be gone at T0+31min")
}

func TestExpiredLooksIdenticalToAbsent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(clock, 10)

	id := store.Create("user-1", nil, payloadFor("e1"))
	clock.Advance(DefaultTTL + time.Second)

	_, expiredErr := store.Get(id)
	_, absentErr := store.Get("never-existed")
	require.Equal(t, absentErr, expiredErr)
}

func TestSweepPurgesExpired(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(clock, 10)

	store.Create("user-1", nil, payloadFor("e1"))
	clock.Advance(10 * time.Minute)
	fresh := store.Create("user-1", nil, payloadFor("e2"))

	clock.Advance(25 * time.Minute)
	purged := store.Sweep()

	require.Equal(t, 1, purged)
	require.Equal(t, 1, store.Len())
	_, err := store.Get(fresh)
	require.NoError(t, err)
}

func TestDeleteIsIdempotent(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(clock, 10)

	id := store.Create("user-1", nil, payloadFor("e1"))
	store.Delete(id)
	store.Delete(id)

	_, err := store.Get(id)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestOverflowEvictsOldestByCreation(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)}
	store := newTestStore(clock, 2)

	oldest := store.Create("user-1", nil, payloadFor("e1"))
	clock.Advance(time.Minute)
	middle := store.Create("user-1", nil, payloadFor("e2"))
	clock.Advance(time.Minute)
	newest := store.Create("user-1", nil, payloadFor("e3"))

	require.Equal(t, 2, store.Len())
	_, err := store.Get(oldest)
	require.ErrorIs(t, err, domain.ErrSessionNotFound)
	_, err = store.Get(middle)
	require.NoError(t, err)
	_, err = store.Get(newest)
	require.NoError(t, err)
}
