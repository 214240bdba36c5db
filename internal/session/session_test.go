package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

type staticLister struct {
	trips []models.Trip
	err   error
}

func (l *staticLister) ListTrips(context.Context, string, models.TripFilter) ([]models.Trip, error) {
	return l.trips, l.err
}

func trips(ids ...string) []models.Trip {
	out := make([]models.Trip, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.Trip{ID: id, Title: "trip " + id, Status: models.TripDraft})
	}
	return out
}

func TestSelectionSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "session.db")

	store, err := OpenSQLiteStorage(path)
	require.NoError(t, err)
	s := New(store)
	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.SetActiveTrip(ctx, "t1"))
	require.NoError(t, store.Close())

	reopened, err := OpenSQLiteStorage(path)
	require.NoError(t, err)
	defer reopened.Close()
	restored := New(reopened)
	require.NoError(t, restored.Init(ctx))
	assert.Equal(t, "t1", restored.ActiveTripID())
	assert.Nil(t, restored.ActiveTrip(), "unresolved until a refresh")

	require.NoError(t, restored.Refresh(ctx, trips("t1", "t2")))
	require.NotNil(t, restored.ActiveTrip())
	assert.Equal(t, "t1", restored.ActiveTrip().ID)
}

func TestRefreshClearsVanishedTrip(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(storage)
	require.NoError(t, s.Init(ctx))

	require.NoError(t, s.SetActiveTrip(ctx, "t1"))
	require.NoError(t, s.Sync(ctx, &staticLister{trips: trips("t2")}, "alice"))

	assert.Nil(t, s.ActiveTrip())
	assert.Empty(t, s.ActiveTripID())
	_, stored, _ := storage.Get(ctx, keyActiveTrip)
	assert.False(t, stored, "cleared selection is not persisted")
}

func TestRefreshIgnoresDeletedTrips(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStorage())
	require.NoError(t, s.SetActiveTrip(ctx, "t1"))

	list := trips("t1")
	deleted := time.Now()
	list[0].DeletedAt = &deleted
	require.NoError(t, s.Refresh(ctx, list))
	assert.Nil(t, s.ActiveTrip())
}

func TestSetActiveTripAgainstKnownList(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStorage())
	require.NoError(t, s.Refresh(ctx, trips("t1")))

	err := s.SetActiveTrip(ctx, "nope")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
	assert.Empty(t, s.ActiveTripID())

	require.NoError(t, s.SetActiveTrip(ctx, "t1"))
	require.NotNil(t, s.ActiveTrip())

	require.NoError(t, s.SetActiveTrip(ctx, ""))
	assert.Nil(t, s.ActiveTrip())
}

func TestLogoutAlwaysClears(t *testing.T) {
	ctx := context.Background()
	storage := NewMemoryStorage()
	s := New(storage)
	require.NoError(t, s.SetIdentity(ctx, Identity{UserID: "u1", Username: "alice", Token: "tok"}))
	require.NoError(t, s.Refresh(ctx, trips("t1")))
	require.NoError(t, s.SetActiveTrip(ctx, "t1"))

	require.NoError(t, s.ClearOnLogout(ctx))
	assert.Nil(t, s.ActiveTrip())

	_, ok, err := s.Identity(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	// and with nothing selected
	require.NoError(t, s.ClearOnLogout(ctx))
	assert.Nil(t, s.ActiveTrip())
}

func TestSyncPropagatesListErrors(t *testing.T) {
	ctx := context.Background()
	s := New(NewMemoryStorage())
	require.NoError(t, s.SetActiveTrip(ctx, "t1"))

	err := s.Sync(ctx, &staticLister{err: &apperr.AuthorizationError{Action: "list", Resource: "trips"}}, "")
	assert.True(t, errors.Is(err, apperr.ErrAuthorization))
	assert.Equal(t, "t1", s.ActiveTripID(), "a failed refresh keeps the selection")
}

func TestIdentityRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLiteStorage(filepath.Join(t.TempDir(), "s.db"))
	require.NoError(t, err)
	defer store.Close()
	s := New(store)

	want := Identity{UserID: "u1", Username: "alice", Token: "tok", ExpiresAt: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, s.SetIdentity(ctx, want))
	require.NoError(t, s.SetIdentity(ctx, want)) // upsert

	got, ok, err := s.Identity(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want.UserID, got.UserID)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
}
