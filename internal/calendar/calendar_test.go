package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/wanderplan/internal/models"
)

func ptr[T any](v T) *T { return &v }

func TestExport(t *testing.T) {
	trip := models.Trip{
		ID:        "trip-1",
		Title:     "Lisbon",
		StartDate: models.MustParseDate("2025-06-10"),
		EndDate:   models.MustParseDate("2025-06-12"),
	}
	dinner := time.Date(2025, 6, 11, 19, 30, 0, 0, time.UTC)
	tour := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	tourEnd := tour.Add(3 * time.Hour)
	items := []models.TripItem{
		{ID: "dinner", ItemType: models.ItemRestaurant, Title: "Ramiro", StartAt: &dinner, LocationName: ptr("Ramiro")},
		{ID: "memo", ItemType: models.ItemNote, Title: "Buy tram card"},
		{ID: "tour", ItemType: models.ItemActivity, Title: "Walking tour", StartAt: &tour, EndAt: &tourEnd,
			Description: ptr("Meet at the fountain")},
	}

	out := Export(trip, items, time.UTC)

	assert.True(t, strings.HasPrefix(out, "BEGIN:VCALENDAR"))
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"), "unscheduled items are skipped")
	assert.NotContains(t, out, "Buy tram card")

	assert.Contains(t, out, "SUMMARY:Activity: Walking tour")
	assert.Contains(t, out, "SUMMARY:Restaurant: Ramiro")
	assert.Contains(t, out, "UID:tour@trip-1.wanderplan")
	assert.Contains(t, out, "DTSTART:20250610T090000Z")
	assert.Contains(t, out, "DTEND:20250610T120000Z")
	assert.Contains(t, out, "DTEND:20250611T203000Z", "default duration")
	assert.Contains(t, out, "LOCATION:Ramiro")
	assert.Contains(t, out, "Day 1 of Lisbon")
	assert.Contains(t, out, "Day 2 of Lisbon")

	// events are emitted in start order
	require.Less(t, strings.Index(out, "Walking tour"), strings.Index(out, "SUMMARY:Restaurant"))
}

func TestExportCountsDaysInZone(t *testing.T) {
	trip := models.Trip{
		ID:        "trip-2",
		Title:     "Tokyo",
		StartDate: models.MustParseDate("2025-03-01"),
		EndDate:   models.MustParseDate("2025-03-02"),
	}
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	// 16:00 UTC on the 1st is already the 2nd in Tokyo
	start := time.Date(2025, 3, 1, 16, 0, 0, 0, time.UTC)
	items := []models.TripItem{{ID: "sushi", ItemType: models.ItemRestaurant, Title: "Sushi", StartAt: &start}}

	assert.Contains(t, Export(trip, items, tokyo), "Day 2 of Tokyo")
	assert.Contains(t, Export(trip, items, nil), "Day 1 of Tokyo")
}

func TestExportEmptyTrip(t *testing.T) {
	out := Export(models.Trip{ID: "t", Title: "Empty"}, nil, time.UTC)
	assert.Contains(t, out, "END:VCALENDAR")
	assert.NotContains(t, out, "BEGIN:VEVENT")
}
