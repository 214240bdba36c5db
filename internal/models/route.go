package models

import "time"

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Stop is a geocoded waypoint handed to a directions provider.
type Stop struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// StopFromItem builds a stop from a geocoded item. ok is false when the
// item has no coordinates.
func StopFromItem(item TripItem) (Stop, bool) {
	if !item.HasLocation() {
		return Stop{}, false
	}
	return Stop{
		ID:        item.ID,
		Title:     item.Title,
		Latitude:  *item.Latitude,
		Longitude: *item.Longitude,
	}, true
}

// RouteLeg is one directed hop between two consecutive stops.
type RouteLeg struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
	Start           LatLng  `json:"start"`
	End             LatLng  `json:"end"`
	Polyline        string  `json:"polyline"`
}

// RouteResult is the provider's answer for an ordered stop sequence.
type RouteResult struct {
	Legs                 []RouteLeg `json:"legs"`
	TotalDistanceMeters  float64    `json:"total_distance_meters"`
	TotalDurationSeconds float64    `json:"total_duration_seconds"`
	OverviewPolyline     string     `json:"overview_polyline"`
	// WaypointOrder is the provider's permutation of the intermediate stops,
	// zero-based into the original intermediates. Nil unless reordering was
	// requested.
	WaypointOrder []int `json:"waypoint_order,omitempty"`
	// Stops is the travel order: origin, intermediates as permuted, destination.
	Stops []Stop `json:"stops"`
}

// Savings is the estimated gain of a suggested order over the current one.
type Savings struct {
	DistanceKm  float64 `json:"distanceKm"`
	TimeMinutes float64 `json:"timeMinutes"`
}

// OptimizationSuggestion is a proposed ordering of one day's items.
type OptimizationSuggestion struct {
	OptimizedOrder []string `json:"optimizedOrder"`
	Explanation    string   `json:"explanation"`
	Savings        Savings  `json:"savings"`
}

// ChangeType names the kind of write that produced a ChangeEvent.
type ChangeType string

const (
	TripCreated    ChangeType = "trip.created"
	TripUpdated    ChangeType = "trip.updated"
	TripDeleted    ChangeType = "trip.deleted"
	ItemAdded      ChangeType = "item.added"
	ItemUpdated    ChangeType = "item.updated"
	ItemRemoved    ChangeType = "item.removed"
	ItemsReordered ChangeType = "items.reordered"
)

// ChangeEvent is published after every successful itinerary write.
type ChangeEvent struct {
	Type    ChangeType `json:"type"`
	OwnerID string     `json:"owner_id"`
	TripID  string     `json:"trip_id"`
	ItemID  string     `json:"item_id,omitempty"`
	At      time.Time  `json:"at"`
}
