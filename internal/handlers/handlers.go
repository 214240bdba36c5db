package handlers

import (
	"log"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/pocketbase/dbx"

	"github.com/yourorg/wanderplan/internal/accounts"
	"github.com/yourorg/wanderplan/internal/advisor"
	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/cache"
	"github.com/yourorg/wanderplan/internal/events"
	"github.com/yourorg/wanderplan/internal/graphhopper"
	"github.com/yourorg/wanderplan/internal/itinerary"
	"github.com/yourorg/wanderplan/internal/middleware"
	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/notify"
	"github.com/yourorg/wanderplan/internal/routing"
	"github.com/yourorg/wanderplan/internal/timeline"
)

// Deps are the collaborators the handlers share.
type Deps struct {
	DB       *dbx.DB
	Store    *itinerary.Store
	Accounts *accounts.Service
	Cache    *cache.Cache
	Hub      *events.Hub
	Stats    *middleware.RequestStats

	// Directions backs POST /api/directions, Engine is probed by /api/health.
	Directions routing.Router
	Engine     *graphhopper.Client
	// Optimizer backs POST /api/route-optimizer.
	Optimizer advisor.Provider
	Zones     *timeline.ZoneResolver
}

// package-level dependencies
var (
	setupMu sync.RWMutex // guards deps
	deps    Deps
)

// Setup wires shared dependencies for handlers. Call this during app bootstrap.
func Setup(d Deps) {
	setupMu.Lock()
	defer setupMu.Unlock()
	if d.Zones == nil {
		d.Zones = timeline.NewZoneResolver()
	}
	if d.Optimizer == nil {
		d.Optimizer = advisor.NearestNeighbor{}
	}
	deps = d
}

func getDeps() Deps {
	setupMu.RLock()
	defer setupMu.RUnlock()
	return deps
}

// fail writes err as an ErrorResponse with the status notify assigns to it.
func fail(c *fiber.Ctx, err error) error {
	status := notify.Status(err)
	if status >= fiber.StatusInternalServerError {
		log.Printf("❌ [HTTP] %s %s: %v", c.Method(), c.Path(), err)
	}
	n := notify.FromError(err)
	return c.Status(status).JSON(models.ErrorResponse{Error: string(n.Code), Title: n.Title, Message: n.Message})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(models.ErrorResponse{Error: msg})
}

func notReady(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "server not ready"})
}

// caller returns the authenticated user, or an AuthorizationError.
func caller(c *fiber.Ctx) (string, error) {
	if id := middleware.UserID(c); id != "" {
		return id, nil
	}
	return "", &apperr.AuthorizationError{Action: "access", Resource: "itinerary"}
}
