package spatial

import (
	"github.com/golang/geo/s2"

	"github.com/yourorg/wanderplan/internal/models"
)

const (
	// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
	EarthRadiusMeters = 6371008.8

	// CitySpeedKmh is the average door-to-door speed used to turn a
	// straight-line distance into a travel time estimate.
	CitySpeedKmh = 25.0
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// StopDistance is HaversineDistance between two stops.
func StopDistance(a, b models.Stop) float64 {
	return HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

// PathLength is the straight-line length in meters of visiting stops in order.
func PathLength(stops []models.Stop) float64 {
	total := 0.0
	for i := 1; i < len(stops); i++ {
		total += StopDistance(stops[i-1], stops[i])
	}
	return total
}

// TravelMinutes estimates the travel time for a distance at CitySpeedKmh.
func TravelMinutes(meters float64) float64 {
	return meters / 1000 / CitySpeedKmh * 60
}
