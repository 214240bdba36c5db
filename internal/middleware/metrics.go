package middleware

import (
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
)

// RequestStats counts handled requests for the health endpoint.
type RequestStats struct {
	total        atomic.Int64
	clientErrors atomic.Int64
	serverErrors atomic.Int64
	totalMicros  atomic.Int64
	started      time.Time
}

// StatsSnapshot is a point-in-time copy of RequestStats.
type StatsSnapshot struct {
	Requests      int64   `json:"requests"`
	ClientErrors  int64   `json:"client_errors"`
	ServerErrors  int64   `json:"server_errors"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
	UptimeSeconds int64   `json:"uptime_seconds"`
}

func NewRequestStats() *RequestStats {
	return &RequestStats{started: time.Now()}
}

// MetricsMiddleware records status and duration of every request.
func MetricsMiddleware(stats *RequestStats) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		// the error handler has not written the response yet
		if err != nil {
			status = fiber.StatusInternalServerError
			if fe, ok := err.(*fiber.Error); ok {
				status = fe.Code
			}
		}
		stats.total.Add(1)
		stats.totalMicros.Add(time.Since(start).Microseconds())
		switch {
		case status >= 500:
			stats.serverErrors.Add(1)
		case status >= 400:
			stats.clientErrors.Add(1)
		}
		return err
	}
}

// Snapshot returns the current counters.
func (s *RequestStats) Snapshot() StatsSnapshot {
	snap := StatsSnapshot{
		Requests:      s.total.Load(),
		ClientErrors:  s.clientErrors.Load(),
		ServerErrors:  s.serverErrors.Load(),
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
	}
	if snap.Requests > 0 {
		snap.AvgLatencyMs = float64(s.totalMicros.Load()) / float64(snap.Requests) / 1000
	}
	return snap
}
