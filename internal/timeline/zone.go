package timeline

import (
	"log"
	"sync"
	"time"

	"github.com/ringsaturn/tzf"

	"github.com/yourorg/wanderplan/internal/models"
	"github.com/yourorg/wanderplan/internal/validation"
)

// ZoneFinder maps a coordinate to an IANA zone name. tzf.F satisfies it.
type ZoneFinder interface {
	GetTimezoneName(lng, lat float64) string
}

// ZoneResolver picks the time zone a trip's days are read in.
type ZoneResolver struct {
	once   sync.Once
	finder ZoneFinder
	err    error
}

// NewZoneResolver returns a resolver backed by the embedded tzf dataset,
// loaded on first use.
func NewZoneResolver() *ZoneResolver {
	return &ZoneResolver{}
}

// NewZoneResolverWith uses a custom finder.
func NewZoneResolverWith(f ZoneFinder) *ZoneResolver {
	r := &ZoneResolver{finder: f}
	r.once.Do(func() {})
	return r
}

func (r *ZoneResolver) load() ZoneFinder {
	r.once.Do(func() {
		r.finder, r.err = tzf.NewDefaultFinder()
		if r.err != nil {
			log.Printf("⚠️ [TIMELINE] timezone finder unavailable, using UTC: %v", r.err)
		}
	})
	return r.finder
}

// Locate returns the zone at a coordinate, or UTC.
func (r *ZoneResolver) Locate(lat, lng float64) *time.Location {
	if !validation.UsableCoordinate(lat, lng) {
		return time.UTC
	}
	finder := r.load()
	if finder == nil {
		return time.UTC
	}
	name := finder.GetTimezoneName(lng, lat)
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ForItems returns the zone of the first geocoded item, or UTC.
func (r *ZoneResolver) ForItems(items []models.TripItem) *time.Location {
	for _, item := range items {
		if item.HasLocation() && validation.UsableCoordinate(*item.Latitude, *item.Longitude) {
			return r.Locate(*item.Latitude, *item.Longitude)
		}
	}
	return time.UTC
}
