package handlers

import (
	"github.com/gofiber/fiber/v2"
)

// ============================================================================
// CACHE STATISTICS ENDPOINT
// ============================================================================
// GET /api/cache/stats

// GetCacheStats reports the trip read cache.
func GetCacheStats(c *fiber.Ctx) error {
	d := getDeps()
	if d.Cache == nil {
		return notReady(c)
	}
	return c.JSON(fiber.Map{
		"status": "ok",
		"cache":  d.Cache.GetStats(),
	})
}
