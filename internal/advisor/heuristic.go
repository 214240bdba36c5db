package advisor

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/spatial"
)

// NearestNeighbor orders stops greedily: start at the first stop, then always
// go to the closest unvisited one. It keeps the current order when the
// greedy tour is not shorter.
type NearestNeighbor struct{}

func (NearestNeighbor) Suggest(_ context.Context, req Request) (models.OptimizationSuggestion, error) {
	stops := Stops(req.Items)
	if len(stops) == 0 {
		return models.OptimizationSuggestion{}, apperr.Invalid("items", "no item has valid coordinates")
	}
	current := lo.Map(stops, func(s models.Stop, _ int) string { return s.ID })
	if len(stops) < 3 {
		return unchanged(current), nil
	}

	visited := make([]bool, len(stops))
	visited[0] = true
	order := []string{stops[0].ID}
	last := stops[0]
	for len(order) < len(stops) {
		next, best := -1, 0.0
		for i, s := range stops {
			if visited[i] {
				continue
			}
			if d := spatial.StopDistance(last, s); next < 0 || d < best {
				next, best = i, d
			}
		}
		visited[next] = true
		order = append(order, stops[next].ID)
		last = stops[next]
	}

	savings, err := Estimate(stops, order)
	if err != nil {
		return models.OptimizationSuggestion{}, &apperr.OptimizerError{Err: err}
	}
	if savings.DistanceKm <= 0 {
		return unchanged(current), nil
	}
	return models.OptimizationSuggestion{
		OptimizedOrder: order,
		Explanation: fmt.Sprintf("Starting at %s and always heading to the nearest remaining stop shortens the day by about %.1f km.",
			stops[0].Title, savings.DistanceKm),
		Savings: savings,
	}, nil
}

func unchanged(order []string) models.OptimizationSuggestion {
	return models.OptimizationSuggestion{
		OptimizedOrder: order,
		Explanation:    "The current order is already the shortest one found.",
	}
}
