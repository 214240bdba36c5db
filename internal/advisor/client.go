package advisor

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
	"github.com/yourorg/wanderplan/internal/timeline"
)

// Client calls an optimization-suggestion provider over HTTP.
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
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// SuggestOrder asks the provider for a better order of one day's items.
//
// With fewer than two items it returns (nil, nil) without a call. Items
// without usable coordinates are not sent; if none remain the result is a
// ValidationError. A single located item needs no suggestion.
func (c *Client) SuggestOrder(ctx context.Context, items []models.TripItem, day models.Date) (*models.OptimizationSuggestion, error) {
	if len(items) < 2 {
		return nil, nil
	}
	ordered := append([]models.TripItem(nil), items...)
	timeline.SortByStart(ordered)

	req := Request{DayDate: day}
	for _, it := range ordered {
		if ai := ItemFromTripItem(it); ai.Located() {
			req.Items = append(req.Items, ai)
		}
	}
	switch len(req.Items) {
	case 0:
		return nil, apperr.Invalid("items", "no item has valid coordinates")
	case 1:
		return nil, nil
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, &apperr.OptimizerError{Err: err}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &apperr.OptimizerError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		return nil, &apperr.OptimizerError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &apperr.OptimizerError{Err: err}
	}
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		log.Printf("⚠️ [ADVISOR] provider rate limited")
		return nil, &apperr.RateLimitedError{Message: "try again later"}
	case resp.StatusCode == http.StatusPaymentRequired:
		log.Printf("⚠️ [ADVISOR] provider quota exhausted")
		return nil, &apperr.QuotaExceededError{Message: "service quota exhausted"}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg := errorMessage(raw)
		log.Printf("❌ [ADVISOR] provider status=%d: %s", resp.StatusCode, msg)
		return nil, &apperr.OptimizerError{Status: resp.StatusCode, Message: msg}
	}

	var suggestion models.OptimizationSuggestion
	if err := json.Unmarshal(raw, &suggestion); err != nil {
		return nil, &apperr.OptimizerError{Err: fmt.Errorf("decode suggestion: %w", err)}
	}
	savings, err := Estimate(Stops(req.Items), suggestion.OptimizedOrder)
	if err != nil {
		return nil, &apperr.OptimizerError{Message: "unusable suggestion", Err: err}
	}
	suggestion.Savings = savings
	log.Printf("[ADVISOR] %d items for %s, saves %.2f km in %dms", len(req.Items), day,
		suggestion.Savings.DistanceKm, time.Since(start).Milliseconds())
	return &suggestion, nil
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
