package routing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

// Waypoint is one stop in a directions request.
type Waypoint struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Title     string  `json:"title"`
}

// DirectionsRequest is the body POSTed to a directions provider.
type DirectionsRequest struct {
	Waypoints     []Waypoint `json:"waypoints"`
	OptimizeOrder bool       `json:"optimizeOrder"`
}

// WireLeg is one leg as the provider encodes it.
type WireLeg struct {
	DistanceMeters  float64       `json:"distance_meters"`
	DurationSeconds float64       `json:"duration_seconds"`
	StartLocation   models.LatLng `json:"start_location"`
	EndLocation     models.LatLng `json:"end_location"`
	Polyline        string        `json:"polyline"`
}

// WireRoute is one route as the provider encodes it.
type WireRoute struct {
	Legs                 []WireLeg `json:"legs"`
	OverviewPolyline     string    `json:"overview_polyline"`
	WaypointOrder        []int     `json:"waypoint_order,omitempty"`
	TotalDistanceMeters  float64   `json:"total_distance_meters"`
	TotalDurationSeconds float64   `json:"total_duration_seconds"`
}

// DirectionsResponse is the provider's answer. The first route is used.
type DirectionsResponse struct {
	Routes []WireRoute `json:"routes"`
}

// Client calls an HTTP directions provider.
type Client struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

// NewClient returns a client POSTing to endpoint. token, when set, is sent as
// a bearer credential.
func NewClient(endpoint, token string) *Client {
	return &Client{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// ComputeRoute implements Router.
func (c *Client) ComputeRoute(ctx context.Context, stops []models.Stop, optimizeOrder bool) (models.RouteResult, error) {
	if err := ValidateStops(stops); err != nil {
		return models.RouteResult{}, err
	}

	body := DirectionsRequest{OptimizeOrder: optimizeOrder, Waypoints: make([]Waypoint, len(stops))}
	for i, s := range stops {
		body.Waypoints[i] = Waypoint{ID: s.ID, Latitude: s.Latitude, Longitude: s.Longitude, Title: s.Title}
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return models.RouteResult{}, &apperr.TransientRouteError{Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return models.RouteResult{}, &apperr.TransientRouteError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return models.RouteResult{}, err
		}
		return models.RouteResult{}, &apperr.TransientRouteError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return models.RouteResult{}, &apperr.TransientRouteError{Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(raw)
		log.Printf("❌ [ROUTING] provider status=%d: %s", resp.StatusCode, msg)
		return models.RouteResult{}, &apperr.RouteProviderError{Status: resp.StatusCode, Message: msg}
	}

	var decoded DirectionsResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return models.RouteResult{}, &apperr.TransientRouteError{Err: fmt.Errorf("decode directions: %w", err)}
	}
	if len(decoded.Routes) == 0 {
		return models.RouteResult{}, &apperr.NoRouteFoundError{}
	}

	result, err := fromWire(decoded.Routes[0], stops, optimizeOrder)
	if err != nil {
		return models.RouteResult{}, &apperr.TransientRouteError{Err: err}
	}
	log.Printf("[ROUTING] %d stops, %d legs, %.0f m in %dms", len(stops), len(result.Legs),
		result.TotalDistanceMeters, time.Since(start).Milliseconds())
	return result, nil
}

func fromWire(route WireRoute, stops []models.Stop, optimizeOrder bool) (models.RouteResult, error) {
	if len(route.Legs) != len(stops)-1 {
		return models.RouteResult{}, fmt.Errorf("provider returned %d legs for %d stops", len(route.Legs), len(stops))
	}

	var order []int
	if optimizeOrder {
		order = route.WaypointOrder
		if order == nil {
			order = identity(len(stops) - 2)
		}
		if err := checkPermutation(order, len(stops)-2); err != nil {
			return models.RouteResult{}, err
		}
	}

	result := models.RouteResult{
		Legs:             make([]models.RouteLeg, len(route.Legs)),
		OverviewPolyline: route.OverviewPolyline,
		WaypointOrder:    order,
		Stops:            travelOrder(stops, order),
	}
	for i, leg := range route.Legs {
		result.Legs[i] = models.RouteLeg{
			DistanceMeters:  leg.DistanceMeters,
			DurationSeconds: leg.DurationSeconds,
			Start:           leg.StartLocation,
			End:             leg.EndLocation,
			Polyline:        leg.Polyline,
		}
	}
	sumLegs(&result)
	return result, nil
}

// ToWire encodes a result the way Client expects to receive it.
func ToWire(result models.RouteResult) WireRoute {
	route := WireRoute{
		Legs:                 make([]WireLeg, len(result.Legs)),
		OverviewPolyline:     result.OverviewPolyline,
		WaypointOrder:        result.WaypointOrder,
		TotalDistanceMeters:  result.TotalDistanceMeters,
		TotalDurationSeconds: result.TotalDurationSeconds,
	}
	for i, leg := range result.Legs {
		route.Legs[i] = WireLeg{
			DistanceMeters:  leg.DistanceMeters,
			DurationSeconds: leg.DurationSeconds,
			StartLocation:   leg.Start,
			EndLocation:     leg.End,
			Polyline:        leg.Polyline,
		}
	}
	return route
}

// errorMessage pulls a readable message out of a JSON error payload.
func errorMessage(raw []byte) string {
	if gjson.ValidBytes(raw) {
		for _, path := range []string{"error.message", "message", "error"} {
			if v := gjson.GetBytes(raw, path); v.Exists() && v.Type == gjson.String {
				return v.String()
			}
		}
	}
	msg := strings.TrimSpace(string(raw))
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}
