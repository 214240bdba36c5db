// Package routing computes travel legs between an ordered list of stops.
//
// The first stop is the origin and the last the destination. With
// optimizeOrder a provider may permute the stops strictly between them and
// reports the permutation as zero-based indices into those intermediates.
// Nothing here retries or caches.
package routing

import (
	"context"
	"fmt"

	"github.com/twpayne/go-polyline"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/validation"
)

// Router computes a route through stops.
type Router interface {
	ComputeRoute(ctx context.Context, stops []models.Stop, optimizeOrder bool) (models.RouteResult, error)
}

// ValidateStops is the local precondition every Router enforces before any
// network call.
func ValidateStops(stops []models.Stop) error {
	if len(stops) < 2 {
		return &apperr.InsufficientStopsError{Got: len(stops)}
	}
	for i, s := range stops {
		if err := validation.ValidateCoordinatePair(s.Latitude, s.Longitude, fmt.Sprintf("stops[%d]", i)); err != nil {
			return err
		}
	}
	return nil
}

// StopsFromItems turns geocoded items into stops, keeping their order and
// skipping items without coordinates.
func StopsFromItems(items []models.TripItem) []models.Stop {
	stops := make([]models.Stop, 0, len(items))
	for _, item := range items {
		if s, ok := models.StopFromItem(item); ok {
			stops = append(stops, s)
		}
	}
	return stops
}

// checkPermutation reports whether order is a permutation of 0..n-1.
func checkPermutation(order []int, n int) error {
	if len(order) != n {
		return fmt.Errorf("waypoint order has %d entries for %d intermediate stops", len(order), n)
	}
	seen := make([]bool, n)
	for _, idx := range order {
		if idx < 0 || idx >= n || seen[idx] {
			return fmt.Errorf("waypoint order %v is not a permutation of 0..%d", order, n-1)
		}
		seen[idx] = true
	}
	return nil
}

// travelOrder applies an intermediate permutation to stops.
func travelOrder(stops []models.Stop, order []int) []models.Stop {
	out := make([]models.Stop, 0, len(stops))
	out = append(out, stops[0])
	inner := stops[1 : len(stops)-1]
	if order == nil {
		out = append(out, inner...)
	} else {
		for _, idx := range order {
			out = append(out, inner[idx])
		}
	}
	return append(out, stops[len(stops)-1])
}

// identity returns 0..n-1.
func identity(n int) []int {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	return order
}

func sumLegs(result *models.RouteResult) {
	result.TotalDistanceMeters = 0
	result.TotalDurationSeconds = 0
	for _, leg := range result.Legs {
		result.TotalDistanceMeters += leg.DistanceMeters
		result.TotalDurationSeconds += leg.DurationSeconds
	}
}

// Path decodes the overview polyline of a route.
func Path(result models.RouteResult) ([]models.LatLng, error) {
	return DecodePolyline(result.OverviewPolyline)
}

// DecodePolyline decodes an encoded polyline of precision 5.
func DecodePolyline(encoded string) ([]models.LatLng, error) {
	if encoded == "" {
		return nil, nil
	}
	coords, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, fmt.Errorf("decode polyline: %w", err)
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("decode polyline: %d trailing bytes", len(rest))
	}
	path := make([]models.LatLng, len(coords))
	for i, c := range coords {
		path[i] = models.LatLng{Lat: c[0], Lng: c[1]}
	}
	return path, nil
}

// EncodePolyline is the inverse of DecodePolyline.
func EncodePolyline(path []models.LatLng) string {
	coords := make([][]float64, len(path))
	for i, p := range path {
		coords[i] = []float64{p.Lat, p.Lng}
	}
	return string(polyline.EncodeCoords(coords))
}
