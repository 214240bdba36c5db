// Package advisor proposes a better visiting order for one day of a trip.
//
// Client is the consumer side used by the CLI and UI collaborators. The
// Provider implementations (OpenAI and NearestNeighbor) back the server's
// optimization endpoint. Savings are always recomputed from straight-line
// path lengths, never taken from model output.
package advisor

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/samber/lo"

	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/spatial"
	"github.com/yourorg/wanderplan/internal/validation"
)

// Item is one stop of the day as sent to a provider.
type Item struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Lat     *float64        `json:"lat"`
	Lng     *float64        `json:"lng"`
	Type    models.ItemType `json:"type"`
	StartAt *time.Time      `json:"start_at,omitempty"`
}

// Request is the body of an optimization request. Items are in the current
// visiting order.
type Request struct {
	Items   []Item      `json:"items"`
	DayDate models.Date `json:"dayDate"`
}

// Provider produces a suggestion for a request whose items all carry usable
// coordinates.
type Provider interface {
	Suggest(ctx context.Context, req Request) (models.OptimizationSuggestion, error)
}

// ItemFromTripItem converts a trip item.
func ItemFromTripItem(it models.TripItem) Item {
	return Item{
		ID:      it.ID,
		Title:   it.Title,
		Lat:     it.Latitude,
		Lng:     it.Longitude,
		Type:    it.ItemType,
		StartAt: it.StartAt,
	}
}

// Located reports whether the item has usable coordinates.
func (i Item) Located() bool {
	return i.Lat != nil && i.Lng != nil && validation.UsableCoordinate(*i.Lat, *i.Lng)
}

func (i Item) stop() models.Stop {
	return models.Stop{ID: i.ID, Title: i.Title, Latitude: *i.Lat, Longitude: *i.Lng}
}

// Stops returns the located items as stops, in order.
func Stops(items []Item) []models.Stop {
	located := lo.Filter(items, func(it Item, _ int) bool { return it.Located() })
	return lo.Map(located, func(it Item, _ int) models.Stop { return it.stop() })
}

// Estimate compares visiting stops in the given id order with their current
// order. Positive values are savings.
func Estimate(current []models.Stop, order []string) (models.Savings, error) {
	if err := checkOrder(current, order); err != nil {
		return models.Savings{}, err
	}
	byID := lo.KeyBy(current, func(s models.Stop) string { return s.ID })
	proposed := lo.Map(order, func(id string, _ int) models.Stop { return byID[id] })

	saved := spatial.PathLength(current) - spatial.PathLength(proposed)
	return models.Savings{
		DistanceKm:  round(saved/1000, 2),
		TimeMinutes: round(spatial.TravelMinutes(saved), 1),
	}, nil
}

// checkOrder reports whether order is a permutation of the stop ids.
func checkOrder(stops []models.Stop, order []string) error {
	if len(order) != len(stops) {
		return fmt.Errorf("suggested order has %d ids for %d stops", len(order), len(stops))
	}
	want := lo.SliceToMap(stops, func(s models.Stop) (string, bool) { return s.ID, true })
	seen := make(map[string]bool, len(order))
	for _, id := range order {
		if !want[id] {
			return fmt.Errorf("suggested order names unknown item %q", id)
		}
		if seen[id] {
			return fmt.Errorf("suggested order repeats item %q", id)
		}
		seen[id] = true
	}
	return nil
}

func round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	r := math.Round(v*p) / p
	if r == 0 {
		return 0 // no negative zero in JSON
	}
	return r
}
