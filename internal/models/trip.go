package models

import "time"

// TripStatus is the lifecycle state of a trip.
type TripStatus string

const (
	TripDraft     TripStatus = "draft"
	TripActive    TripStatus = "active"
	TripCompleted TripStatus = "completed"
	TripCancelled TripStatus = "cancelled"
)

// TripStatuses lists every valid status.
var TripStatuses = []TripStatus{TripDraft, TripActive, TripCompleted, TripCancelled}

// Trip is a user-owned planned travel period.
type Trip struct {
	ID          string     `json:"id"`
	OwnerID     string     `json:"owner_id"`
	Title       string     `json:"title"`
	Destination *string    `json:"destination,omitempty"`
	Description *string    `json:"description,omitempty"`
	StartDate   Date       `json:"start_date"`
	EndDate     Date       `json:"end_date"`
	Status      TripStatus `json:"status"`
	Budget      *float64   `json:"budget,omitempty"`
	Currency    *string    `json:"currency,omitempty"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// IsDeleted reports whether the trip carries a soft-delete marker.
func (t Trip) IsDeleted() bool {
	return t.DeletedAt != nil
}

// DayCount is the inclusive number of calendar days the trip spans.
func (t Trip) DayCount() int {
	return t.StartDate.DaysUntil(t.EndDate) + 1
}

// TripWithItems is a trip together with all of its items.
type TripWithItems struct {
	Trip
	Items []TripItem `json:"items"`
}

// TripFilter narrows a trip listing. Zero values mean "no filter".
type TripFilter struct {
	Status *TripStatus `json:"status,omitempty"`
	From   *Date       `json:"from,omitempty"` // trips ending on or after From
	To     *Date       `json:"to,omitempty"`   // trips starting on or before To
	Search string      `json:"search,omitempty"`
}

// CreateTripInput holds the fields accepted when creating a trip.
// The status is not part of the input: new trips are always drafts.
type CreateTripInput struct {
	Title       string   `json:"title"`
	Destination *string  `json:"destination,omitempty"`
	Description *string  `json:"description,omitempty"`
	StartDate   Date     `json:"start_date"`
	EndDate     Date     `json:"end_date"`
	Budget      *float64 `json:"budget,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
}

// TripPatch is a partial trip update. Absent fields are left untouched; an
// explicit null clears destination, description, budget or currency.
type TripPatch struct {
	Title       *string           `json:"title,omitempty"`
	Destination Nullable[string]  `json:"destination,omitzero"`
	Description Nullable[string]  `json:"description,omitzero"`
	StartDate   *Date             `json:"start_date,omitempty"`
	EndDate     *Date             `json:"end_date,omitempty"`
	Status      *TripStatus       `json:"status,omitempty"`
	Budget      Nullable[float64] `json:"budget,omitzero"`
	Currency    Nullable[string]  `json:"currency,omitzero"`
}

// IsEmpty reports whether the patch changes nothing.
func (p TripPatch) IsEmpty() bool {
	return p.Title == nil && !p.Destination.Present && !p.Description.Present &&
		p.StartDate == nil && p.EndDate == nil && p.Status == nil &&
		!p.Budget.Present && !p.Currency.Present
}

// Apply returns a copy of t with the patch applied.
func (p TripPatch) Apply(t Trip) Trip {
	if p.Title != nil {
		t.Title = *p.Title
	}
	p.Destination.applyTo(&t.Destination)
	p.Description.applyTo(&t.Description)
	if p.StartDate != nil {
		t.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = *p.EndDate
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	p.Budget.applyTo(&t.Budget)
	p.Currency.applyTo(&t.Currency)
	return t
}
