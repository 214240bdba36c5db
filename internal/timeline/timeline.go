// Package timeline projects trip items onto the calendar days of a trip.
package timeline

import (
	"sort"
	"time"

	"github.com/yourorg/wanderplan/internal/models"
)

// Day is one calendar day of a trip and the items that start on it.
type Day struct {
	Index int               `json:"index"`
	Date  models.Date       `json:"date"`
	Items []models.TripItem `json:"items"`
}

// Project buckets items by the calendar date of their start_at, read in loc,
// into one Day per date of the inclusive range [start, end]. Items without a
// start time or outside the range land in no bucket. Bucket contents keep
// the input order. A range with end before start yields no days.
func Project(start, end models.Date, items []models.TripItem, loc *time.Location) []Day {
	n := start.DaysUntil(end) + 1
	if start.IsZero() || end.IsZero() || n <= 0 {
		return nil
	}
	if loc == nil {
		loc = time.UTC
	}

	days := make([]Day, n)
	for i := range days {
		days[i] = Day{Index: i, Date: start.AddDays(i), Items: []models.TripItem{}}
	}
	for _, item := range items {
		if item.StartAt == nil {
			continue
		}
		k := start.DaysUntil(models.DateOf(*item.StartAt, loc))
		if k < 0 || k >= n {
			continue
		}
		days[k].Items = append(days[k].Items, item)
	}
	return days
}

// ProjectTrip is Project over a trip's own range.
func ProjectTrip(trip models.TripWithItems, loc *time.Location) []Day {
	return Project(trip.StartDate, trip.EndDate, trip.Items, loc)
}

// Unscheduled returns the items that have no start time.
func Unscheduled(items []models.TripItem) []models.TripItem {
	out := []models.TripItem{}
	for _, item := range items {
		if item.StartAt == nil {
			out = append(out, item)
		}
	}
	return out
}

// SortByStart orders items by start_at ascending in place. Unscheduled
// items go last; ties keep their relative order.
func SortByStart(items []models.TripItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].StartAt, items[j].StartAt
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.Before(*b)
		}
	})
}
