package spatial

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yourorg/wanderplan/internal/models"
)

func TestHaversineDistance(t *testing.T) {
	// Lisbon to Porto is roughly 274 km in a straight line
	d := HaversineDistance(38.7223, -9.1393, 41.1579, -8.6291)
	assert.InDelta(t, 274000, d, 3000)

	assert.Zero(t, HaversineDistance(10, 10, 10, 10))
}

func TestPathLength(t *testing.T) {
	a := models.Stop{ID: "a", Latitude: 0, Longitude: 0}
	b := models.Stop{ID: "b", Latitude: 0, Longitude: 1}
	c := models.Stop{ID: "c", Latitude: 0, Longitude: 2}

	direct := PathLength([]models.Stop{a, b, c})
	detour := PathLength([]models.Stop{a, c, b})
	assert.InDelta(t, 2*StopDistance(a, b), direct, 1)
	assert.Greater(t, detour, direct)
	assert.Zero(t, PathLength([]models.Stop{a}))
}

func TestTravelMinutes(t *testing.T) {
	assert.InDelta(t, 60, TravelMinutes(CitySpeedKmh*1000), 1e-9)
}
