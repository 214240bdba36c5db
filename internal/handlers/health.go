package handlers

import (
	"context"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/wanderplan/internal/cache"
	"github.com/yourorg/wanderplan/internal/middleware"
)

// HealthResponse is the system health report.
type HealthResponse struct {
	Status    string                    `json:"status"`
	Timestamp time.Time                 `json:"timestamp"`
	Services  map[string]string         `json:"services"`
	Cache     *cache.Stats              `json:"cache,omitempty"`
	Requests  *middleware.StatsSnapshot `json:"requests,omitempty"`
	Version   string                    `json:"version,omitempty"`
}

// Health reports the database and the routing engine. The database is
// required; an unreachable routing engine only degrades the report.
func Health(c *fiber.Ctx) error {
	d := getDeps()
	services := make(map[string]string)
	overall := "healthy"
	statusCode := fiber.StatusOK

	// ============================================================================
	// CHECK: Database
	// ============================================================================
	if d.DB != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := d.DB.DB().PingContext(ctx); err != nil {
			services["database"] = "unhealthy: " + err.Error()
			overall = "unhealthy"
			statusCode = fiber.StatusServiceUnavailable
		} else {
			services["database"] = "healthy"
		}
	} else {
		services["database"] = "not_initialized"
		overall = "unhealthy"
		statusCode = fiber.StatusServiceUnavailable
	}

	// ============================================================================
	// CHECK: GraphHopper
	// ============================================================================
	if d.Engine != nil {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()
		if err := d.Engine.HealthCheck(ctx); err != nil {
			services["graphhopper"] = "unhealthy: " + err.Error()
			if overall == "healthy" {
				overall = "degraded"
			}
		} else {
			services["graphhopper"] = "healthy"
		}
	} else {
		services["graphhopper"] = "not_configured"
	}

	resp := HealthResponse{
		Status:    overall,
		Timestamp: time.Now(),
		Services:  services,
		Version:   os.Getenv("APP_VERSION"),
	}
	if d.Cache != nil {
		stats := d.Cache.GetStats()
		resp.Cache = &stats
	}
	if d.Stats != nil {
		snap := d.Stats.Snapshot()
		resp.Requests = &snap
	}
	return c.Status(statusCode).JSON(resp)
}
