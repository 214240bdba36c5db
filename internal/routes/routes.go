package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"github.com/yourorg/wanderplan/internal/events"
	"github.com/yourorg/wanderplan/internal/handlers"
	"github.com/yourorg/wanderplan/internal/middleware"
)

// Options tune route registration.
type Options struct {
	// ServiceToken guards the provider endpoints; empty leaves them open.
	ServiceToken string
	// DisableLimits turns off rate limiting, for tests.
	DisableLimits bool
}

// Register mounts every endpoint. handlers.Setup must have been called.
func Register(app *fiber.App, verifier middleware.TokenVerifier, hub *events.Hub, opts Options) {
	limit := func(h fiber.Handler) fiber.Handler {
		if opts.DisableLimits {
			return func(c *fiber.Ctx) error { return c.Next() }
		}
		return h
	}

	// ============================================================================
	// PUBLIC API
	// ============================================================================
	api := app.Group("/api")

	// Health check (no rate limiting)
	api.Get("/health", handlers.Health)

	// ============================================================================
	// AUTHENTICATION (strict rate limiting)
	// ============================================================================
	api.Post("/register", limit(middleware.AuthRateLimiter()), handlers.Register)
	api.Post("/login", limit(middleware.AuthRateLimiter()), handlers.Login)

	// ============================================================================
	// ITINERARY (bearer token required)
	// ============================================================================
	auth := middleware.RequireAuth(verifier)

	trips := api.Group("/trips", auth, limit(middleware.APIRateLimiter()))
	trips.Get("/", handlers.ListTrips)
	trips.Post("/", handlers.CreateTrip)
	trips.Get("/:id", handlers.GetTrip)
	trips.Patch("/:id", handlers.UpdateTrip)
	trips.Delete("/:id", handlers.DeleteTrip)
	trips.Get("/:id/timeline", handlers.GetTimeline)
	trips.Get("/:id/calendar.ics", handlers.GetCalendar)
	trips.Put("/:id/order", handlers.ApplyOrder)
	trips.Post("/:id/items", handlers.AddItem)

	items := api.Group("/items", auth, limit(middleware.APIRateLimiter()))
	items.Patch("/:id", handlers.UpdateItem)
	items.Delete("/:id", handlers.RemoveItem)

	api.Get("/cache/stats", auth, handlers.GetCacheStats)

	// ============================================================================
	// PROVIDER ENDPOINTS (expensive operations)
	// ============================================================================
	provider := middleware.ProviderAuth(opts.ServiceToken, verifier)
	api.Post("/directions", provider, limit(middleware.ExpensiveOperationLimiterWith(60, 5*time.Minute)), handlers.Directions)
	api.Post("/route-optimizer", provider, limit(middleware.ExpensiveOperationLimiter()), handlers.RouteOptimizer)

	// ============================================================================
	// CHANGE FEED
	// ============================================================================
	app.Use("/ws/trips", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, auth)
	app.Get("/ws/trips", websocket.New(hub.Serve))
}
