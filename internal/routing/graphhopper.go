package routing

import (
	"context"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/graphhopper"
	"github.com/yourorg/wanderplan/internal/models"
)

// maxParallelLegs bounds the concurrent requests sent to the engine.
const maxParallelLegs = 4

// GraphHopper routes each consecutive pair of stops on a GraphHopper engine.
// It never reorders: with optimizeOrder it reports the identity permutation.
type GraphHopper struct {
	engine *graphhopper.Client
}

func NewGraphHopper(engine *graphhopper.Client) *GraphHopper {
	return &GraphHopper{engine: engine}
}

// ComputeRoute implements Router.
func (g *GraphHopper) ComputeRoute(ctx context.Context, stops []models.Stop, optimizeOrder bool) (models.RouteResult, error) {
	if err := ValidateStops(stops); err != nil {
		return models.RouteResult{}, err
	}

	legs := make([]models.RouteLeg, len(stops)-1)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(maxParallelLegs)
	for i := range legs {
		i := i
		eg.Go(func() error {
			leg, err := g.leg(egCtx, stops[i], stops[i+1])
			if err != nil {
				return fmt.Errorf("leg %d (%s -> %s): %w", i, stops[i].ID, stops[i+1].ID, err)
			}
			legs[i] = leg
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		if ctx.Err() != nil {
			return models.RouteResult{}, ctx.Err()
		}
		log.Printf("❌ [ROUTING] graphhopper: %v", err)
		return models.RouteResult{}, err
	}

	result := models.RouteResult{
		Legs:  legs,
		Stops: append([]models.Stop(nil), stops...),
	}
	if optimizeOrder {
		result.WaypointOrder = identity(len(stops) - 2)
	}
	overview, err := stitch(legs)
	if err != nil {
		return models.RouteResult{}, &apperr.TransientRouteError{Err: err}
	}
	result.OverviewPolyline = overview
	sumLegs(&result)
	return result, nil
}

func (g *GraphHopper) leg(ctx context.Context, from, to models.Stop) (models.RouteLeg, error) {
	resp, err := g.engine.GetRoute(ctx, []graphhopper.Point{
		{Lat: from.Latitude, Lon: from.Longitude},
		{Lat: to.Latitude, Lon: to.Longitude},
	})
	if err != nil {
		var apiErr *graphhopper.APIError
		if errors.As(err, &apiErr) {
			if apiErr.PointNotFound() {
				return models.RouteLeg{}, &apperr.NoRouteFoundError{}
			}
			return models.RouteLeg{}, &apperr.RouteProviderError{Status: apiErr.Status, Message: apiErr.Message}
		}
		return models.RouteLeg{}, &apperr.TransientRouteError{Err: err}
	}
	if len(resp.Paths) == 0 {
		return models.RouteLeg{}, &apperr.NoRouteFoundError{}
	}

	path := resp.Paths[0]
	return models.RouteLeg{
		DistanceMeters:  path.Distance,
		DurationSeconds: float64(path.Time) / 1000,
		Start:           models.LatLng{Lat: from.Latitude, Lng: from.Longitude},
		End:             models.LatLng{Lat: to.Latitude, Lng: to.Longitude},
		Polyline:        path.Points,
	}, nil
}

// stitch joins leg geometries into one overview polyline, dropping the point
// shared by consecutive legs.
func stitch(legs []models.RouteLeg) (string, error) {
	var all []models.LatLng
	for i, leg := range legs {
		pts, err := DecodePolyline(leg.Polyline)
		if err != nil {
			return "", fmt.Errorf("leg %d: %w", i, err)
		}
		if len(all) > 0 && len(pts) > 0 && all[len(all)-1] == pts[0] {
			pts = pts[1:]
		}
		all = append(all, pts...)
	}
	return EncodePolyline(all), nil
}
