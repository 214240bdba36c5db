// Package calendar renders a trip's scheduled items as an iCalendar feed.
package calendar

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/timeline"
)

const productID = "-//wanderplan//itinerary//EN"

// DefaultDuration is used for items that have a start but no end.
const DefaultDuration = time.Hour

// Export builds a VCALENDAR with one VEVENT per scheduled item. Days are
// counted in loc. Unscheduled items are left out.
func Export(trip models.Trip, items []models.TripItem, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	cal.SetName(trip.Title)

	dayOf := map[string]int{}
	for _, day := range timeline.Project(trip.StartDate, trip.EndDate, items, loc) {
		for _, it := range day.Items {
			dayOf[it.ID] = day.Index + 1
		}
	}

	scheduled := make([]models.TripItem, 0, len(items))
	for _, it := range items {
		if it.Scheduled() {
			scheduled = append(scheduled, it)
		}
	}
	timeline.SortByStart(scheduled)

	for _, it := range scheduled {
		ev := cal.AddEvent(fmt.Sprintf("%s@%s.wanderplan", it.ID, trip.ID))
		ev.SetDtStampTime(it.UpdatedAt.UTC())
		ev.SetSummary(fmt.Sprintf("%s: %s", it.ItemType.Info().Label, it.Title))
		start := it.StartAt.UTC()
		end := start.Add(DefaultDuration)
		if it.EndAt != nil && it.EndAt.After(start) {
			end = it.EndAt.UTC()
		}
		ev.SetStartAt(start)
		ev.SetEndAt(end)
		if where := location(it); where != "" {
			ev.SetLocation(where)
		}
		if desc := description(trip, it, dayOf[it.ID]); desc != "" {
			ev.SetDescription(desc)
		}
	}
	return cal.Serialize()
}

func location(it models.TripItem) string {
	var parts []string
	if it.LocationName != nil && *it.LocationName != "" {
		parts = append(parts, *it.LocationName)
	}
	if it.Address != nil && *it.Address != "" {
		parts = append(parts, *it.Address)
	}
	return strings.Join(parts, ", ")
}

func description(trip models.Trip, it models.TripItem, day int) string {
	var lines []string
	if day > 0 {
		lines = append(lines, fmt.Sprintf("Day %d of %s", day, trip.Title))
	}
	if it.Description != nil && *it.Description != "" {
		lines = append(lines, *it.Description)
	}
	return strings.Join(lines, "\n")
}
