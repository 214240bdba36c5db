package itinerary

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

const (
	tripsTable = "trips"
	itemsTable = "trip_items"
)

// Repository is the row-level access to trips and trip items.
// It performs no ownership checks; Store does.
type Repository struct {
	root *dbx.DB
	b    dbx.Builder
}

// NewRepository wraps an open dbx connection.
func NewRepository(db *dbx.DB) *Repository {
	return &Repository{root: db, b: db}
}

// Transactional runs fn against a repository bound to a single transaction.
func (r *Repository) Transactional(ctx context.Context, fn func(tx *Repository) error) error {
	if r.root == nil {
		// already inside a transaction
		return fn(r)
	}
	return r.root.TransactionalContext(ctx, nil, func(tx *dbx.Tx) error {
		return fn(&Repository{b: tx})
	})
}

type tripRow struct {
	ID          string          `db:"id"`
	OwnerID     string          `db:"owner_id"`
	Title       string          `db:"title"`
	Destination sql.NullString  `db:"destination"`
	Description sql.NullString  `db:"description"`
	StartDate   string          `db:"start_date"`
	EndDate     string          `db:"end_date"`
	Status      string          `db:"status"`
	Budget      sql.NullFloat64 `db:"budget"`
	Currency    sql.NullString  `db:"currency"`
	DeletedAt   sql.NullInt64   `db:"deleted_at"`
	CreatedAt   int64           `db:"created_at"`
	UpdatedAt   int64           `db:"updated_at"`
}

type itemRow struct {
	ID           string          `db:"id"`
	TripID       string          `db:"trip_id"`
	ItemType     string          `db:"item_type"`
	SourceID     sql.NullString  `db:"source_id"`
	Title        string          `db:"title"`
	Description  sql.NullString  `db:"description"`
	StartAt      sql.NullInt64   `db:"start_at"`
	EndAt        sql.NullInt64   `db:"end_at"`
	LocationName sql.NullString  `db:"location_name"`
	Address      sql.NullString  `db:"address"`
	Latitude     sql.NullFloat64 `db:"latitude"`
	Longitude    sql.NullFloat64 `db:"longitude"`
	Metadata     sql.NullString  `db:"metadata"`
	CreatedAt    int64           `db:"created_at"`
	UpdatedAt    int64           `db:"updated_at"`
}

// ----- trips -----

// ListTrips returns the owner's non-deleted trips matching f, newest start first.
func (r *Repository) ListTrips(ctx context.Context, ownerID string, f models.TripFilter) ([]models.Trip, error) {
	q := r.b.Select("*").From(tripsTable).
		Where(dbx.HashExp{"owner_id": ownerID}).
		AndWhere(dbx.NewExp("deleted_at IS NULL"))

	if f.Status != nil {
		q.AndWhere(dbx.HashExp{"status": string(*f.Status)})
	}
	// overlap: the trip ends on/after From and starts on/before To
	if f.From != nil {
		q.AndWhere(dbx.NewExp("end_date >= {:from}", dbx.Params{"from": f.From.String()}))
	}
	if f.To != nil {
		q.AndWhere(dbx.NewExp("start_date <= {:to}", dbx.Params{"to": f.To.String()}))
	}
	if f.Search != "" {
		q.AndWhere(dbx.Or(dbx.Like("title", f.Search), dbx.Like("destination", f.Search)))
	}

	var rows []tripRow
	if err := q.OrderBy("start_date DESC", "created_at DESC").WithContext(ctx).All(&rows); err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}

	trips := make([]models.Trip, 0, len(rows))
	for _, row := range rows {
		t, err := row.toModel()
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, nil
}

// FindTrip loads a trip by id, soft-deleted ones included.
func (r *Repository) FindTrip(ctx context.Context, id string) (models.Trip, error) {
	var row tripRow
	err := r.b.Select("*").From(tripsTable).Where(dbx.HashExp{"id": id}).WithContext(ctx).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Trip{}, &apperr.NotFoundError{Resource: "trip", ID: id}
	}
	if err != nil {
		return models.Trip{}, fmt.Errorf("find trip %s: %w", id, err)
	}
	return row.toModel()
}

func (r *Repository) InsertTrip(ctx context.Context, t models.Trip) error {
	params := tripParams(t)
	params["id"] = t.ID
	params["owner_id"] = t.OwnerID
	params["created_at"] = t.CreatedAt.UnixMilli()
	if _, err := r.b.Insert(tripsTable, params).WithContext(ctx).Execute(); err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

// UpdateTrip writes every mutable column of t.
func (r *Repository) UpdateTrip(ctx context.Context, t models.Trip) error {
	_, err := r.b.Update(tripsTable, tripParams(t), dbx.HashExp{"id": t.ID}).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("update trip %s: %w", t.ID, err)
	}
	return nil
}

func (r *Repository) SoftDeleteTrip(ctx context.Context, id string, at time.Time) error {
	_, err := r.b.Update(tripsTable,
		dbx.Params{"deleted_at": at.UnixMilli(), "updated_at": at.UnixMilli()},
		dbx.And(dbx.HashExp{"id": id}, dbx.NewExp("deleted_at IS NULL")),
	).WithContext(ctx).Execute()
	if err != nil {
		return fmt.Errorf("soft delete trip %s: %w", id, err)
	}
	return nil
}

func tripParams(t models.Trip) dbx.Params {
	return dbx.Params{
		"title":       t.Title,
		"destination": nullString(t.Destination),
		"description": nullString(t.Description),
		"start_date":  t.StartDate.String(),
		"end_date":    t.EndDate.String(),
		"status":      string(t.Status),
		"budget":      nullFloat(t.Budget),
		"currency":    nullString(t.Currency),
		"deleted_at":  nullMillis(t.DeletedAt),
		"updated_at":  t.UpdatedAt.UnixMilli(),
	}
}

func (row tripRow) toModel() (models.Trip, error) {
	start, err := models.ParseDate(row.StartDate)
	if err != nil {
		return models.Trip{}, fmt.Errorf("trip %s: %w", row.ID, err)
	}
	end, err := models.ParseDate(row.EndDate)
	if err != nil {
		return models.Trip{}, fmt.Errorf("trip %s: %w", row.ID, err)
	}
	return models.Trip{
		ID:          row.ID,
		OwnerID:     row.OwnerID,
		Title:       row.Title,
		Destination: stringPtr(row.Destination),
		Description: stringPtr(row.Description),
		StartDate:   start,
		EndDate:     end,
		Status:      models.TripStatus(row.Status),
		Budget:      floatPtr(row.Budget),
		Currency:    stringPtr(row.Currency),
		DeletedAt:   timePtr(row.DeletedAt),
		CreatedAt:   time.UnixMilli(row.CreatedAt).UTC(),
		UpdatedAt:   time.UnixMilli(row.UpdatedAt).UTC(),
	}, nil
}

// ----- items -----

// ListItems returns the items of a trip in insertion order.
func (r *Repository) ListItems(ctx context.Context, tripID string) ([]models.TripItem, error) {
	var rows []itemRow
	err := r.b.Select("*").From(itemsTable).
		Where(dbx.HashExp{"trip_id": tripID}).
		OrderBy("created_at ASC", "id ASC").
		WithContext(ctx).All(&rows)
	if err != nil {
		return nil, fmt.Errorf("list items of trip %s: %w", tripID, err)
	}
	items := make([]models.TripItem, 0, len(rows))
	for _, row := range rows {
		item, err := row.toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

func (r *Repository) FindItem(ctx context.Context, id string) (models.TripItem, error) {
	var row itemRow
	err := r.b.Select("*").From(itemsTable).Where(dbx.HashExp{"id": id}).WithContext(ctx).One(&row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.TripItem{}, &apperr.NotFoundError{Resource: "item", ID: id}
	}
	if err != nil {
		return models.TripItem{}, fmt.Errorf("find item %s: %w", id, err)
	}
	return row.toModel()
}

func (r *Repository) InsertItem(ctx context.Context, item models.TripItem) error {
	params, err := itemParams(item)
	if err != nil {
		return err
	}
	params["id"] = item.ID
	params["trip_id"] = item.TripID
	params["item_type"] = string(item.ItemType)
	params["source_id"] = nullString(item.SourceID)
	params["created_at"] = item.CreatedAt.UnixMilli()
	if _, err := r.b.Insert(itemsTable, params).WithContext(ctx).Execute(); err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// UpdateItem writes every mutable column of item. trip_id, item_type and
// source_id are fixed at insertion.
func (r *Repository) UpdateItem(ctx context.Context, item models.TripItem) error {
	params, err := itemParams(item)
	if err != nil {
		return err
	}
	if _, err := r.b.Update(itemsTable, params, dbx.HashExp{"id": item.ID}).WithContext(ctx).Execute(); err != nil {
		return fmt.Errorf("update item %s: %w", item.ID, err)
	}
	return nil
}

func (r *Repository) DeleteItem(ctx context.Context, id string) error {
	if _, err := r.b.Delete(itemsTable, dbx.HashExp{"id": id}).WithContext(ctx).Execute(); err != nil {
		return fmt.Errorf("delete item %s: %w", id, err)
	}
	return nil
}

func itemParams(item models.TripItem) (dbx.Params, error) {
	metadata := sql.NullString{}
	if len(item.Metadata) > 0 {
		raw, err := json.Marshal(item.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata of item %s: %w", item.ID, err)
		}
		metadata = sql.NullString{String: string(raw), Valid: true}
	}
	return dbx.Params{
		"title":         item.Title,
		"description":   nullString(item.Description),
		"start_at":      nullMillis(item.StartAt),
		"end_at":        nullMillis(item.EndAt),
		"location_name": nullString(item.LocationName),
		"address":       nullString(item.Address),
		"latitude":      nullFloat(item.Latitude),
		"longitude":     nullFloat(item.Longitude),
		"metadata":      metadata,
		"updated_at":    item.UpdatedAt.UnixMilli(),
	}, nil
}

func (row itemRow) toModel() (models.TripItem, error) {
	item := models.TripItem{
		ID:           row.ID,
		TripID:       row.TripID,
		ItemType:     models.ItemType(row.ItemType),
		SourceID:     stringPtr(row.SourceID),
		Title:        row.Title,
		Description:  stringPtr(row.Description),
		StartAt:      timePtr(row.StartAt),
		EndAt:        timePtr(row.EndAt),
		LocationName: stringPtr(row.LocationName),
		Address:      stringPtr(row.Address),
		Latitude:     floatPtr(row.Latitude),
		Longitude:    floatPtr(row.Longitude),
		CreatedAt:    time.UnixMilli(row.CreatedAt).UTC(),
		UpdatedAt:    time.UnixMilli(row.UpdatedAt).UTC(),
	}
	if row.Metadata.Valid && row.Metadata.String != "" {
		if err := json.Unmarshal([]byte(row.Metadata.String), &item.Metadata); err != nil {
			return models.TripItem{}, fmt.Errorf("decode metadata of item %s: %w", row.ID, err)
		}
	}
	return item, nil
}

// ----- null helpers -----

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func nullMillis(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	v := f.Float64
	return &v
}

func timePtr(ms sql.NullInt64) *time.Time {
	if !ms.Valid {
		return nil
	}
	v := time.UnixMilli(ms.Int64).UTC()
	return &v
}
