// ============================================================================
// GraphHopper Client - Wanderplan
// ============================================================================
// Thin client of a GraphHopper routing engine. It only asks for point-to-point
// routes with encoded geometry; leg stitching lives in internal/routing.
// ============================================================================

package graphhopper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Cliente para GraphHopper API
type Client struct {
	baseURL    string
	profile    string
	httpClient *http.Client
}

// NewClient creates a client for the engine at baseURL using a vehicle
// profile such as "car" or "foot".
func NewClient(baseURL, profile string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8989"
	}
	if profile == "" {
		profile = "car"
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		profile: profile,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// ============================================================================
// ESTRUCTURAS DE DATOS
// ============================================================================

// Point representa un punto geográfico
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// RouteResponse representa la respuesta de GraphHopper
type RouteResponse struct {
	Paths []Path                 `json:"paths"`
	Info  map[string]interface{} `json:"info,omitempty"`
}

// Path is one computed route. Points is an encoded polyline (precision 5).
type Path struct {
	Distance float64 `json:"distance"` // metros
	Time     int64   `json:"time"`     // milisegundos
	Points   string  `json:"points"`
}

// APIError is a non-2xx answer of the engine.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("GraphHopper error %d: %s", e.Status, e.Message)
}

// PointNotFound reports whether the engine could not route at all between
// the given points, as opposed to failing.
func (e *APIError) PointNotFound() bool {
	msg := strings.ToLower(e.Message)
	return e.Status == http.StatusBadRequest &&
		(strings.Contains(msg, "cannot find point") || strings.Contains(msg, "connection between locations not found"))
}

// ============================================================================
// MÉTODOS PRINCIPALES
// ============================================================================

// GetRoute obtiene una ruta que pasa por points en orden.
func (c *Client) GetRoute(ctx context.Context, points []Point) (*RouteResponse, error) {
	u, err := url.Parse(c.baseURL + "/route")
	if err != nil {
		return nil, fmt.Errorf("error parsing URL: %w", err)
	}

	q := u.Query()
	for _, p := range points {
		q.Add("point", strconv.FormatFloat(p.Lat, 'f', 6, 64)+","+strconv.FormatFloat(p.Lon, 'f', 6, 64))
	}
	q.Set("profile", c.profile)
	q.Set("points_encoded", "true")
	q.Set("instructions", "false")
	q.Set("calc_points", "true")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		return nil, &APIError{Status: resp.StatusCode, Message: msg}
	}

	var routeResp RouteResponse
	if err := json.NewDecoder(resp.Body).Decode(&routeResp); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}
	return &routeResp, nil
}

// HealthCheck verifica si GraphHopper está disponible
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GraphHopper no disponible: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GraphHopper health check failed: %d", resp.StatusCode)
	}
	return nil
}
