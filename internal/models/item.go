package models

import "time"

// ItemType tags what a trip item refers to.
type ItemType string

const (
	ItemApartment  ItemType = "apartment"
	ItemCar        ItemType = "car"
	ItemRestaurant ItemType = "restaurant"
	ItemEvent      ItemType = "event"
	ItemActivity   ItemType = "activity"
	ItemTransport  ItemType = "transport"
	ItemNote       ItemType = "note"
)

// TripItem is one entry (booking, activity, note) attached to a trip.
type TripItem struct {
	ID           string                 `json:"id"`
	TripID       string                 `json:"trip_id"`
	ItemType     ItemType               `json:"item_type"`
	SourceID     *string                `json:"source_id,omitempty"`
	Title        string                 `json:"title"`
	Description  *string                `json:"description,omitempty"`
	StartAt      *time.Time             `json:"start_at,omitempty"`
	EndAt        *time.Time             `json:"end_at,omitempty"`
	LocationName *string                `json:"location_name,omitempty"`
	Address      *string                `json:"address,omitempty"`
	Latitude     *float64               `json:"latitude,omitempty"`
	Longitude    *float64               `json:"longitude,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// HasLocation reports whether the item is geocoded.
func (i TripItem) HasLocation() bool {
	return i.Latitude != nil && i.Longitude != nil
}

// Scheduled reports whether the item has a start time.
func (i TripItem) Scheduled() bool {
	return i.StartAt != nil
}

// CreateItemInput holds the fields accepted when attaching an item to a trip.
type CreateItemInput struct {
	ItemType     ItemType               `json:"item_type"`
	SourceID     *string                `json:"source_id,omitempty"`
	Title        string                 `json:"title"`
	Description  *string                `json:"description,omitempty"`
	StartAt      *time.Time             `json:"start_at,omitempty"`
	EndAt        *time.Time             `json:"end_at,omitempty"`
	LocationName *string                `json:"location_name,omitempty"`
	Address      *string                `json:"address,omitempty"`
	Latitude     *float64               `json:"latitude,omitempty"`
	Longitude    *float64               `json:"longitude,omitempty"`
	Metadata     map[string]interface{} `json:"metadata,omitempty"`
}

// ItemPatch is a partial item update. Absent fields are left untouched; an
// explicit null clears a nullable field. The owning trip cannot be changed.
type ItemPatch struct {
	Title        *string                          `json:"title,omitempty"`
	Description  Nullable[string]                 `json:"description,omitzero"`
	StartAt      Nullable[time.Time]              `json:"start_at,omitzero"`
	EndAt        Nullable[time.Time]              `json:"end_at,omitzero"`
	LocationName Nullable[string]                 `json:"location_name,omitzero"`
	Address      Nullable[string]                 `json:"address,omitzero"`
	Latitude     Nullable[float64]                `json:"latitude,omitzero"`
	Longitude    Nullable[float64]                `json:"longitude,omitzero"`
	Metadata     Nullable[map[string]interface{}] `json:"metadata,omitzero"`
}

// IsEmpty reports whether the patch changes nothing.
func (p ItemPatch) IsEmpty() bool {
	return p.Title == nil && !p.Description.Present && !p.StartAt.Present &&
		!p.EndAt.Present && !p.LocationName.Present && !p.Address.Present &&
		!p.Latitude.Present && !p.Longitude.Present && !p.Metadata.Present
}

// Apply returns a copy of i with the patch applied.
func (p ItemPatch) Apply(i TripItem) TripItem {
	if p.Title != nil {
		i.Title = *p.Title
	}
	p.Description.applyTo(&i.Description)
	p.StartAt.applyTo(&i.StartAt)
	p.EndAt.applyTo(&i.EndAt)
	p.LocationName.applyTo(&i.LocationName)
	p.Address.applyTo(&i.Address)
	p.Latitude.applyTo(&i.Latitude)
	p.Longitude.applyTo(&i.Longitude)
	if p.Metadata.Present {
		i.Metadata = nil
		if p.Metadata.Value != nil {
			i.Metadata = *p.Metadata.Value
		}
	}
	return i
}
