// ============================================================================
// Provider endpoints - wanderplan
// ============================================================================
// The server side of the two provider contracts the route client and the
// advisor consume:
//   - POST /api/directions      : GraphHopper, one request per leg
//   - POST /api/route-optimizer : OpenAI, or the nearest-neighbour heuristic
// ============================================================================

package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/lo"

	"github.com/yourorg/wanderplan/internal/advisor"
	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/routing"
)

// ============================================================================
// ENDPOINT: POST /api/directions
// ============================================================================
// No route between the stops is answered as 200 with an empty route list.
// ============================================================================
func Directions(c *fiber.Ctx) error {
	router := getDeps().Directions
	if router == nil {
		return notReady(c)
	}
	var req routing.DirectionsRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	stops := lo.Map(req.Waypoints, func(w routing.Waypoint, _ int) models.Stop {
		return models.Stop{ID: w.ID, Title: w.Title, Latitude: w.Latitude, Longitude: w.Longitude}
	})

	result, err := router.ComputeRoute(c.UserContext(), stops, req.OptimizeOrder)
	if errors.Is(err, apperr.ErrNoRoute) {
		return c.JSON(routing.DirectionsResponse{Routes: []routing.WireRoute{}})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(routing.DirectionsResponse{Routes: []routing.WireRoute{routing.ToWire(result)}})
}

// ============================================================================
// ENDPOINT: POST /api/route-optimizer
// ============================================================================
// Items without usable coordinates are ignored. Rate limiting and quota
// exhaustion upstream come back as 429 and 402.
// ============================================================================
func RouteOptimizer(c *fiber.Ctx) error {
	provider := getDeps().Optimizer
	if provider == nil {
		return notReady(c)
	}
	var req advisor.Request
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	req.Items = lo.Filter(req.Items, func(it advisor.Item, _ int) bool { return it.Located() })
	if dups := lo.FindDuplicatesBy(req.Items, func(it advisor.Item) string { return it.ID }); len(dups) > 0 {
		return fail(c, apperr.Invalid("items", "duplicate item id %q", dups[0].ID))
	}

	switch len(req.Items) {
	case 0:
		return fail(c, apperr.Invalid("items", "no item has valid coordinates"))
	case 1:
		return c.JSON(models.OptimizationSuggestion{
			OptimizedOrder: []string{req.Items[0].ID},
			Explanation:    "A single stop needs no reordering.",
		})
	}

	suggestion, err := provider.Suggest(c.UserContext(), req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(suggestion)
}
