package itinerary

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/dbx"
	"github.com/samber/lo"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/cache"
	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/validation"
)

// Publisher receives a ChangeEvent after every committed write.
// Implementations must not block.
type Publisher interface {
	Publish(models.ChangeEvent)
}

type nopPublisher struct{}

func (nopPublisher) Publish(models.ChangeEvent) {}

// Store is the owner-scoped itinerary API. Every method takes the caller's
// user id; an empty id is an anonymous caller and is refused.
type Store struct {
	repo   *Repository
	cache  *cache.Cache
	events Publisher
	now    func() time.Time

	// loaded runs between a database read and its cache store; tests use it
	loaded func()
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithPublisher sets where change events go.
func WithPublisher(p Publisher) Option {
	return func(s *Store) {
		if p != nil {
			s.events = p
		}
	}
}

// NewStore builds a Store over db. c may be nil to disable read caching.
func NewStore(db *dbx.DB, c *cache.Cache, opts ...Option) *Store {
	s := &Store{
		repo:   NewRepository(db),
		cache:  c,
		events: nopPublisher{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ============================================================================
// READS
// ============================================================================

// ListTrips returns the caller's non-deleted trips matching f.
func (s *Store) ListTrips(ctx context.Context, caller string, f models.TripFilter) ([]models.Trip, error) {
	if caller == "" {
		return nil, &apperr.AuthorizationError{Action: "list", Resource: "trips"}
	}
	f.Search = strings.TrimSpace(f.Search)
	key := cache.TripListKey(caller, FilterKey(f))
	scope := cache.TripListPrefix(caller)
	var version uint64
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			return append([]models.Trip(nil), v.([]models.Trip)...), nil
		}
		version = s.cache.Version(scope)
	}

	trips, err := s.repo.ListTrips(ctx, caller, f)
	if err != nil {
		return nil, err
	}
	if s.loaded != nil {
		s.loaded()
	}
	if s.cache != nil {
		s.cache.SetIfUnchanged(scope, version, key, trips)
	}
	return append([]models.Trip(nil), trips...), nil
}

// GetTrip returns a trip with all of its items.
func (s *Store) GetTrip(ctx context.Context, caller, tripID string) (models.TripWithItems, error) {
	if caller == "" {
		return models.TripWithItems{}, &apperr.AuthorizationError{Action: "read", Resource: "trip", ID: tripID}
	}
	key := cache.TripKey(tripID)
	var version uint64
	if s.cache != nil {
		if v, ok := s.cache.Get(key); ok {
			cached := v.(models.TripWithItems)
			if cached.OwnerID != caller {
				return models.TripWithItems{}, &apperr.AuthorizationError{Action: "read", Resource: "trip", ID: tripID}
			}
			return cloneTrip(cached), nil
		}
		version = s.cache.Version(key)
	}

	trip, err := s.ownedTrip(ctx, s.repo, caller, tripID, "read")
	if err != nil {
		return models.TripWithItems{}, err
	}
	items, err := s.repo.ListItems(ctx, tripID)
	if err != nil {
		return models.TripWithItems{}, err
	}

	out := models.TripWithItems{Trip: trip, Items: items}
	if s.loaded != nil {
		s.loaded()
	}
	if s.cache != nil {
		s.cache.SetIfUnchanged(key, version, key, cloneTrip(out))
	}
	return out, nil
}

// cloneTrip copies t deeply enough that callers can change the result
// without touching the cached value.
func cloneTrip(t models.TripWithItems) models.TripWithItems {
	out := t
	out.Destination = clonePtr(t.Destination)
	out.Description = clonePtr(t.Description)
	out.Budget = clonePtr(t.Budget)
	out.Currency = clonePtr(t.Currency)
	out.DeletedAt = clonePtr(t.DeletedAt)
	out.Items = make([]models.TripItem, len(t.Items))
	for i, it := range t.Items {
		c := it
		c.SourceID = clonePtr(it.SourceID)
		c.Description = clonePtr(it.Description)
		c.StartAt = clonePtr(it.StartAt)
		c.EndAt = clonePtr(it.EndAt)
		c.LocationName = clonePtr(it.LocationName)
		c.Address = clonePtr(it.Address)
		c.Latitude = clonePtr(it.Latitude)
		c.Longitude = clonePtr(it.Longitude)
		c.Metadata = cloneMetadata(it.Metadata)
		out.Items[i] = c
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneMetadata(m map[string]interface{}) map[string]interface{} {
	if m == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

// cloneValue copies the nested maps and slices a decoded JSON value may hold.
func cloneValue(v interface{}) interface{} {
	switch x := v.(type) {
	case map[string]interface{}:
		return cloneMetadata(x)
	case []interface{}:
		out := make([]interface{}, len(x))
		for i, e := range x {
			out[i] = cloneValue(e)
		}
		return out
	default:
		return v
	}
}

// ============================================================================
// TRIP WRITES
// ============================================================================

// CreateTrip inserts a new draft trip owned by the caller.
func (s *Store) CreateTrip(ctx context.Context, caller string, in models.CreateTripInput) (models.Trip, error) {
	if caller == "" {
		return models.Trip{}, &apperr.AuthorizationError{Action: "create", Resource: "trip"}
	}
	in.Title = strings.TrimSpace(in.Title)
	in.Currency = upperPtr(in.Currency)
	if err := validation.ValidateCreateTrip(in); err != nil {
		return models.Trip{}, err
	}

	now := s.stamp()
	trip := models.Trip{
		ID:          uuid.NewString(),
		OwnerID:     caller,
		Title:       in.Title,
		Destination: in.Destination,
		Description: in.Description,
		StartDate:   in.StartDate,
		EndDate:     in.EndDate,
		Status:      models.TripDraft,
		Budget:      in.Budget,
		Currency:    in.Currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertTrip(ctx, trip); err != nil {
		return models.Trip{}, err
	}

	log.Printf("✅ [ITINERARY] trip created id=%s owner=%s", trip.ID, caller)
	s.committed(models.TripCreated, caller, trip.ID, "")
	return trip, nil
}

// UpdateTrip applies a partial update to one of the caller's trips.
func (s *Store) UpdateTrip(ctx context.Context, caller, tripID string, patch models.TripPatch) (models.Trip, error) {
	trip, err := s.ownedTrip(ctx, s.repo, caller, tripID, "update")
	if err != nil {
		return models.Trip{}, err
	}
	if patch.IsEmpty() {
		return trip, nil
	}

	if patch.Title != nil {
		patch.Title = lo.ToPtr(strings.TrimSpace(*patch.Title))
	}
	patch.Currency.Value = upperPtr(patch.Currency.Value)
	updated := patch.Apply(trip)
	if err := validation.ValidateTrip(updated); err != nil {
		return models.Trip{}, err
	}
	updated.UpdatedAt = s.stamp()

	if err := s.repo.UpdateTrip(ctx, updated); err != nil {
		return models.Trip{}, err
	}

	log.Printf("[ITINERARY] trip updated id=%s", tripID)
	s.committed(models.TripUpdated, caller, tripID, "")
	return updated, nil
}

// SoftDeleteTrip marks one of the caller's trips deleted. The row and its
// items stay in the database.
func (s *Store) SoftDeleteTrip(ctx context.Context, caller, tripID string) error {
	if _, err := s.ownedTrip(ctx, s.repo, caller, tripID, "delete"); err != nil {
		return err
	}
	if err := s.repo.SoftDeleteTrip(ctx, tripID, s.stamp()); err != nil {
		return err
	}

	log.Printf("🗑️ [ITINERARY] trip soft-deleted id=%s", tripID)
	s.committed(models.TripDeleted, caller, tripID, "")
	return nil
}

// ============================================================================
// ITEM WRITES
// ============================================================================

// AddItem attaches a new item to one of the caller's trips.
func (s *Store) AddItem(ctx context.Context, caller, tripID string, in models.CreateItemInput) (models.TripItem, error) {
	if _, err := s.ownedTrip(ctx, s.repo, caller, tripID, "update"); err != nil {
		return models.TripItem{}, err
	}

	now := s.stamp()
	item := models.TripItem{
		ID:           uuid.NewString(),
		TripID:       tripID,
		ItemType:     in.ItemType,
		SourceID:     in.SourceID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		StartAt:      utcPtr(in.StartAt),
		EndAt:        utcPtr(in.EndAt),
		LocationName: in.LocationName,
		Address:      in.Address,
		Latitude:     in.Latitude,
		Longitude:    in.Longitude,
		Metadata:     in.Metadata,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := validation.ValidateItem(item); err != nil {
		return models.TripItem{}, err
	}
	if err := s.repo.InsertItem(ctx, item); err != nil {
		return models.TripItem{}, err
	}

	log.Printf("[ITINERARY] item added id=%s trip=%s type=%s", item.ID, tripID, item.ItemType)
	s.committed(models.ItemAdded, caller, tripID, item.ID)
	return item, nil
}

// UpdateItem applies a partial update to an item of one of the caller's trips.
func (s *Store) UpdateItem(ctx context.Context, caller, itemID string, patch models.ItemPatch) (models.TripItem, error) {
	item, err := s.ownedItem(ctx, caller, itemID, "update")
	if err != nil {
		return models.TripItem{}, err
	}
	if patch.IsEmpty() {
		return item, nil
	}

	if patch.Title != nil {
		patch.Title = lo.ToPtr(strings.TrimSpace(*patch.Title))
	}
	patch.StartAt.Value = utcPtr(patch.StartAt.Value)
	patch.EndAt.Value = utcPtr(patch.EndAt.Value)
	updated := patch.Apply(item)
	if err := validation.ValidateItem(updated); err != nil {
		return models.TripItem{}, err
	}
	updated.UpdatedAt = s.stamp()

	if err := s.repo.UpdateItem(ctx, updated); err != nil {
		return models.TripItem{}, err
	}

	log.Printf("[ITINERARY] item updated id=%s trip=%s", itemID, item.TripID)
	s.committed(models.ItemUpdated, caller, item.TripID, itemID)
	return updated, nil
}

// RemoveItem hard-deletes an item of one of the caller's trips.
func (s *Store) RemoveItem(ctx context.Context, caller, itemID string) error {
	item, err := s.ownedItem(ctx, caller, itemID, "delete")
	if err != nil {
		return err
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return err
	}

	log.Printf("🗑️ [ITINERARY] item removed id=%s trip=%s", itemID, item.TripID)
	s.committed(models.ItemRemoved, caller, item.TripID, itemID)
	return nil
}

// ApplyOrder persists an accepted ordering. The listed items keep the same
// set of start times between them, handed out in the new order, and each
// item keeps its own duration. Every listed item must belong to the trip and
// be scheduled. It returns the rewritten items in their new order.
func (s *Store) ApplyOrder(ctx context.Context, caller, tripID string, itemIDs []string) ([]models.TripItem, error) {
	if len(itemIDs) == 0 {
		return nil, apperr.Invalid("order", "at least one item id is required")
	}
	if dupes := lo.FindDuplicates(itemIDs); len(dupes) > 0 {
		return nil, apperr.Invalid("order", "item %s is listed more than once", dupes[0])
	}

	var reordered []models.TripItem
	err := s.repo.Transactional(ctx, func(tx *Repository) error {
		if _, err := s.ownedTrip(ctx, tx, caller, tripID, "update"); err != nil {
			return err
		}
		items, err := tx.ListItems(ctx, tripID)
		if err != nil {
			return err
		}
		byID := lo.KeyBy(items, func(it models.TripItem) string { return it.ID })

		selected := make([]models.TripItem, 0, len(itemIDs))
		for _, id := range itemIDs {
			item, ok := byID[id]
			if !ok {
				return &apperr.NotFoundError{Resource: "item", ID: id}
			}
			if item.StartAt == nil {
				return apperr.Invalid("order", "item %s has no start time", id)
			}
			selected = append(selected, item)
		}

		slots := lo.Map(selected, func(it models.TripItem, _ int) time.Time { return *it.StartAt })
		sort.Slice(slots, func(i, j int) bool { return slots[i].Before(slots[j]) })

		now := s.stamp()
		reordered = make([]models.TripItem, 0, len(selected))
		for i, item := range selected {
			start := slots[i]
			if !item.StartAt.Equal(start) {
				if item.EndAt != nil {
					end := start.Add(item.EndAt.Sub(*item.StartAt))
					item.EndAt = &end
				}
				item.StartAt = &start
				item.UpdatedAt = now
				if err := tx.UpdateItem(ctx, item); err != nil {
					return err
				}
			}
			reordered = append(reordered, item)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ITINERARY] %d items reordered trip=%s", len(reordered), tripID)
	s.committed(models.ItemsReordered, caller, tripID, "")
	return reordered, nil
}

// ============================================================================
// HELPERS
// ============================================================================

// ownedTrip loads a live trip and checks the caller owns it.
func (s *Store) ownedTrip(ctx context.Context, repo *Repository, caller, tripID, action string) (models.Trip, error) {
	if caller == "" {
		return models.Trip{}, &apperr.AuthorizationError{Action: action, Resource: "trip", ID: tripID}
	}
	trip, err := repo.FindTrip(ctx, tripID)
	if err != nil {
		return models.Trip{}, err
	}
	if trip.IsDeleted() {
		return models.Trip{}, &apperr.NotFoundError{Resource: "trip", ID: tripID}
	}
	if trip.OwnerID != caller {
		log.Printf("⚠️ [ITINERARY] %s denied trip=%s caller=%s", action, tripID, caller)
		return models.Trip{}, &apperr.AuthorizationError{Action: action, Resource: "trip", ID: tripID}
	}
	return trip, nil
}

func (s *Store) ownedItem(ctx context.Context, caller, itemID, action string) (models.TripItem, error) {
	if caller == "" {
		return models.TripItem{}, &apperr.AuthorizationError{Action: action, Resource: "item", ID: itemID}
	}
	item, err := s.repo.FindItem(ctx, itemID)
	if err != nil {
		return models.TripItem{}, err
	}
	if _, err := s.ownedTrip(ctx, s.repo, caller, item.TripID, action); err != nil {
		var authErr *apperr.AuthorizationError
		if errors.As(err, &authErr) {
			return models.TripItem{}, &apperr.AuthorizationError{Action: action, Resource: "item", ID: itemID}
		}
		return models.TripItem{}, err
	}
	return item, nil
}

// committed invalidates cached reads and then publishes the event.
func (s *Store) committed(kind models.ChangeType, owner, tripID, itemID string) {
	if s.cache != nil {
		s.cache.InvalidateTrip(owner, tripID)
	}
	s.events.Publish(models.ChangeEvent{
		Type:    kind,
		OwnerID: owner,
		TripID:  tripID,
		ItemID:  itemID,
		At:      s.now().UTC(),
	})
}

// stamp is the current time truncated to the stored precision.
func (s *Store) stamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// FilterKey renders f as a stable cache key suffix.
func FilterKey(f models.TripFilter) string {
	parts := make([]string, 0, 4)
	if f.Status != nil {
		parts = append(parts, "status="+string(*f.Status))
	}
	if f.From != nil {
		parts = append(parts, "from="+f.From.String())
	}
	if f.To != nil {
		parts = append(parts, "to="+f.To.String())
	}
	if q := strings.TrimSpace(f.Search); q != "" {
		parts = append(parts, "q="+strings.ToLower(q))
	}
	if len(parts) == 0 {
		return "all"
	}
	return strings.Join(parts, "&")
}

func upperPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return lo.ToPtr(strings.ToUpper(strings.TrimSpace(*s)))
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC().Truncate(time.Millisecond)
	return &v
}
