package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/calendar"
	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/timeline"
)

// TimelineResponse is a trip projected onto its days.
type TimelineResponse struct {
	Trip        models.Trip       `json:"trip"`
	Timezone    string            `json:"timezone"`
	Days        []timeline.Day    `json:"days"`
	Unscheduled []models.TripItem `json:"unscheduled"`
}

// OrderRequest is the body of PUT /api/trips/:id/order.
type OrderRequest struct {
	ItemIDs []string `json:"item_ids"`
}

// ListTrips handles GET /api/trips?status=&from=&to=&q=
func ListTrips(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	f, err := tripFilter(c)
	if err != nil {
		return fail(c, err)
	}
	trips, err := d.Store.ListTrips(c.UserContext(), user, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"trips": trips, "count": len(trips)})
}

// CreateTrip handles POST /api/trips.
func CreateTrip(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	var in models.CreateTripInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	trip, err := d.Store.CreateTrip(c.UserContext(), user, in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(trip)
}

// GetTrip handles GET /api/trips/:id.
func GetTrip(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	trip, err := d.Store.GetTrip(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(trip)
}

// UpdateTrip handles PATCH /api/trips/:id.
func UpdateTrip(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	var patch models.TripPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "invalid json")
	}
	trip, err := d.Store.UpdateTrip(c.UserContext(), user, c.Params("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(trip)
}

// DeleteTrip handles DELETE /api/trips/:id. The trip is soft-deleted.
func DeleteTrip(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	if err := d.Store.SoftDeleteTrip(c.UserContext(), user, c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetTimeline handles GET /api/trips/:id/timeline?tz=
// Without tz the zone of the first geocoded item is used.
func GetTimeline(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	trip, err := d.Store.GetTrip(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	loc, err := tripLocation(c, d.Zones, trip.Items)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(TimelineResponse{
		Trip:        trip.Trip,
		Timezone:    loc.String(),
		Days:        timeline.ProjectTrip(trip, loc),
		Unscheduled: timeline.Unscheduled(trip.Items),
	})
}

// GetCalendar handles GET /api/trips/:id/calendar.ics?tz=
func GetCalendar(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	trip, err := d.Store.GetTrip(c.UserContext(), user, c.Params("id"))
	if err != nil {
		return fail(c, err)
	}
	loc, err := tripLocation(c, d.Zones, trip.Items)
	if err != nil {
		return fail(c, err)
	}
	c.Set(fiber.HeaderContentType, "text/calendar; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="trip-%s.ics"`, trip.ID))
	return c.SendString(calendar.Export(trip.Trip, trip.Items, loc))
}

// ApplyOrder handles PUT /api/trips/:id/order, writing back an accepted
// suggestion.
func ApplyOrder(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	var req OrderRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid json")
	}
	items, err := d.Store.ApplyOrder(c.UserContext(), user, c.Params("id"), req.ItemIDs)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"items": items})
}

func tripFilter(c *fiber.Ctx) (models.TripFilter, error) {
	f := models.TripFilter{Search: strings.TrimSpace(c.Query("q"))}
	if s := c.Query("status"); s != "" {
		status := models.TripStatus(s)
		f.Status = &status
	}
	for _, p := range []struct {
		key string
		dst **models.Date
	}{{"from", &f.From}, {"to", &f.To}} {
		raw := c.Query(p.key)
		if raw == "" {
			continue
		}
		d, err := models.ParseDate(raw)
		if err != nil {
			return f, apperr.Invalid(p.key, "must be a YYYY-MM-DD date")
		}
		*p.dst = &d
	}
	return f, nil
}

func tripLocation(c *fiber.Ctx, zones *timeline.ZoneResolver, items []models.TripItem) (*time.Location, error) {
	if tz := c.Query("tz"); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return nil, apperr.Invalid("tz", "unknown time zone %q", tz)
		}
		return loc, nil
	}
	return zones.ForItems(items), nil
}
