// Package session holds the install-scoped "current trip" selection and the
// signed-in identity of the CLI.
//
// The selection is keyed per install, not per user. A second user signing in
// on the same install keeps seeing the previous selection until the next
// trip-list refresh drops it, unless the first user logged out.
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

const (
	keyActiveTrip = "active_trip_id"
	keyIdentity   = "identity"
)

// TripLister is the part of the itinerary store a Session refreshes from.
type TripLister interface {
	ListTrips(ctx context.Context, caller string, f models.TripFilter) ([]models.Trip, error)
}

// Identity is the signed-in user of this install.
type Identity struct {
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Session is the active-trip selection. Create it once and pass it to
// whatever needs it.
type Session struct {
	storage Storage

	mu       sync.RWMutex
	activeID string
	trips    map[string]models.Trip // nil until the first refresh
}

func New(storage Storage) *Session {
	return &Session{storage: storage}
}

// Init restores the persisted selection. The trip itself resolves on the
// next Refresh.
func (s *Session) Init(ctx context.Context) error {
	id, _, err := s.storage.Get(ctx, keyActiveTrip)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.activeID = id
	s.trips = nil
	s.mu.Unlock()
	if id != "" {
		log.Printf("[SESSION] restored active trip %s", id)
	}
	return nil
}

// ActiveTripID is the stored selection, validated or not.
func (s *Session) ActiveTripID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// ActiveTrip returns the selected trip once it has been resolved against a
// trip list, or nil.
func (s *Session) ActiveTrip() *models.Trip {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.activeID == "" || s.trips == nil {
		return nil
	}
	trip, ok := s.trips[s.activeID]
	if !ok {
		return nil
	}
	return &trip
}

// SetActiveTrip selects a trip; an empty id clears the selection. When a trip
// list is known the id must be in it.
func (s *Session) SetActiveTrip(ctx context.Context, tripID string) error {
	if tripID == "" {
		return s.clearSelection(ctx)
	}

	s.mu.RLock()
	known := s.trips != nil
	_, listed := s.trips[tripID]
	s.mu.RUnlock()
	if known && !listed {
		return &apperr.NotFoundError{Resource: "trip", ID: tripID}
	}

	if err := s.storage.Set(ctx, keyActiveTrip, tripID); err != nil {
		return err
	}
	s.mu.Lock()
	s.activeID = tripID
	s.mu.Unlock()
	log.Printf("[SESSION] active trip set to %s", tripID)
	return nil
}

// Refresh validates the selection against the caller's current trip list.
// An id that no longer resolves is cleared without error.
func (s *Session) Refresh(ctx context.Context, trips []models.Trip) error {
	byID := make(map[string]models.Trip, len(trips))
	for _, t := range trips {
		if !t.IsDeleted() {
			byID[t.ID] = t
		}
	}

	s.mu.Lock()
	s.trips = byID
	stale := s.activeID != ""
	if stale {
		_, ok := byID[s.activeID]
		stale = !ok
	}
	previous := s.activeID
	s.mu.Unlock()

	if stale {
		log.Printf("[SESSION] active trip %s no longer listed, clearing", previous)
		return s.clearSelection(ctx)
	}
	return nil
}

// Sync lists the owner's trips and refreshes from them.
func (s *Session) Sync(ctx context.Context, lister TripLister, owner string) error {
	trips, err := lister.ListTrips(ctx, owner, models.TripFilter{})
	if err != nil {
		return fmt.Errorf("refresh session: %w", err)
	}
	return s.Refresh(ctx, trips)
}

// ClearOnLogout drops the selection and the stored identity unconditionally.
func (s *Session) ClearOnLogout(ctx context.Context) error {
	s.mu.Lock()
	s.activeID = ""
	s.trips = nil
	s.mu.Unlock()
	if err := s.storage.Delete(ctx, keyActiveTrip, keyIdentity); err != nil {
		return err
	}
	log.Printf("[SESSION] cleared on logout")
	return nil
}

// SetIdentity stores the signed-in user.
func (s *Session) SetIdentity(ctx context.Context, id Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return s.storage.Set(ctx, keyIdentity, string(raw))
}

// Identity returns the signed-in user, if any.
func (s *Session) Identity(ctx context.Context) (Identity, bool, error) {
	raw, ok, err := s.storage.Get(ctx, keyIdentity)
	if err != nil || !ok {
		return Identity{}, false, err
	}
	var id Identity
	if err := json.Unmarshal([]byte(raw), &id); err != nil {
		return Identity{}, false, fmt.Errorf("decode stored identity: %w", err)
	}
	return id, true, nil
}

func (s *Session) clearSelection(ctx context.Context) error {
	if err := s.storage.Delete(ctx, keyActiveTrip); err != nil {
		return err
	}
	s.mu.Lock()
	s.activeID = ""
	s.mu.Unlock()
	return nil
}
