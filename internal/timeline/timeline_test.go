package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/wanderplan/internal/models"
)

func at(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func TestProjectThreeDayScenario(t *testing.T) {
	x := models.TripItem{ID: "x", Title: "X", StartAt: at("2024-03-02T10:00:00Z")}
	y := models.TripItem{ID: "y", Title: "Y"}

	days := Project(models.MustParseDate("2024-03-01"), models.MustParseDate("2024-03-03"),
		[]models.TripItem{x, y}, time.UTC)

	require.Len(t, days, 3)
	assert.Empty(t, days[0].Items)
	require.Len(t, days[1].Items, 1)
	assert.Equal(t, "x", days[1].Items[0].ID)
	assert.Empty(t, days[2].Items)
	assert.Equal(t, "2024-03-02", days[1].Date.String())
	assert.Equal(t, 2, days[2].Index)

	for _, d := range days {
		for _, it := range d.Items {
			assert.NotEqual(t, "y", it.ID, "unscheduled items appear nowhere")
		}
	}
}

func TestProjectBucketCountAndPlacement(t *testing.T) {
	start := models.MustParseDate("2024-02-27")
	end := models.MustParseDate("2024-03-02") // crosses a leap day
	var items []models.TripItem
	for k := 0; k < 5; k++ {
		ts := start.AddDays(k).Midnight(time.UTC).Add(time.Duration(k) * time.Hour)
		items = append(items, models.TripItem{ID: start.AddDays(k).String(), StartAt: &ts})
	}

	days := Project(start, end, items, time.UTC)
	require.Len(t, days, start.DaysUntil(end)+1)
	require.Len(t, days, 5)
	for k, d := range days {
		require.Len(t, d.Items, 1, "day %d", k)
		assert.Equal(t, start.AddDays(k).String(), d.Items[0].ID)
	}
	assert.Equal(t, "2024-02-29", days[2].Date.String())
}

func TestProjectOutOfRangeAndOrder(t *testing.T) {
	items := []models.TripItem{
		{ID: "late", StartAt: at("2024-03-01T21:00:00Z")},
		{ID: "before", StartAt: at("2024-02-29T23:59:59Z")},
		{ID: "early", StartAt: at("2024-03-01T08:00:00Z")},
		{ID: "after", StartAt: at("2024-03-02T00:00:00Z")},
	}
	days := Project(models.MustParseDate("2024-03-01"), models.MustParseDate("2024-03-01"), items, time.UTC)
	require.Len(t, days, 1)
	ids := []string{}
	for _, it := range days[0].Items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"late", "early"}, ids, "input order is kept")
}

func TestProjectUsesLocation(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	// 2024-03-01 20:00 UTC is 2024-03-02 05:00 in Tokyo
	items := []models.TripItem{{ID: "x", StartAt: at("2024-03-01T20:00:00Z")}}
	start, end := models.MustParseDate("2024-03-01"), models.MustParseDate("2024-03-02")

	utc := Project(start, end, items, time.UTC)
	assert.Len(t, utc[0].Items, 1)

	local := Project(start, end, items, tokyo)
	assert.Empty(t, local[0].Items)
	assert.Len(t, local[1].Items, 1)
}

func TestProjectMalformedRange(t *testing.T) {
	assert.Empty(t, Project(models.MustParseDate("2024-03-03"), models.MustParseDate("2024-03-01"), nil, time.UTC))
	assert.Empty(t, Project(models.Date{}, models.MustParseDate("2024-03-01"), nil, time.UTC))
}

func TestProjectIsDeterministic(t *testing.T) {
	items := []models.TripItem{
		{ID: "a", StartAt: at("2024-03-01T10:00:00Z")},
		{ID: "b", StartAt: at("2024-03-02T10:00:00Z")},
	}
	start, end := models.MustParseDate("2024-03-01"), models.MustParseDate("2024-03-02")
	assert.Equal(t, Project(start, end, items, time.UTC), Project(start, end, items, time.UTC))
}

func TestSortByStart(t *testing.T) {
	items := []models.TripItem{
		{ID: "none"},
		{ID: "noon", StartAt: at("2024-03-01T12:00:00Z")},
		{ID: "nine", StartAt: at("2024-03-01T09:00:00Z")},
	}
	SortByStart(items)
	assert.Equal(t, "nine", items[0].ID)
	assert.Equal(t, "noon", items[1].ID)
	assert.Equal(t, "none", items[2].ID)

	assert.Len(t, Unscheduled(items), 1)
}

type fixedFinder string

func (f fixedFinder) GetTimezoneName(lng, lat float64) string { return string(f) }

func TestZoneResolverForItems(t *testing.T) {
	r := NewZoneResolverWith(fixedFinder("Europe/Lisbon"))
	lat, lng := 38.72, -9.14
	loc := r.ForItems([]models.TripItem{
		{ID: "no-location"},
		{ID: "lisbon", Latitude: &lat, Longitude: &lng},
	})
	assert.Equal(t, "Europe/Lisbon", loc.String())

	assert.Equal(t, time.UTC, r.ForItems(nil))
	assert.Equal(t, time.UTC, NewZoneResolverWith(fixedFinder("")).Locate(lat, lng))
	assert.Equal(t, time.UTC, NewZoneResolverWith(fixedFinder("Not/AZone")).Locate(lat, lng))
	assert.Equal(t, time.UTC, r.Locate(0, 0))
}

func TestProjectCenturiesLongRange(t *testing.T) {
	start := models.MustParseDate("1700-01-01")
	end := models.MustParseDate("2024-01-01")

	days := Project(start, end, nil, time.UTC)

	require.Len(t, days, 118339)
	assert.Equal(t, start, days[0].Date)
	assert.Equal(t, end, days[len(days)-1].Date)
}
