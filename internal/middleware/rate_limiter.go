package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
)

// ============================================================================
// RATE LIMITING MIDDLEWARE
// ============================================================================
// Levels by endpoint cost. Limits are per IP unless the caller is signed in.

// GlobalRateLimiter - 1000 requests per minute per IP.
func GlobalRateLimiter() fiber.Handler {
	return newLimiter(1000, time.Minute, ipKey, "Rate limit exceeded",
		"Too many requests. Please try again in 1 minute.")
}

// AuthRateLimiter - 10 requests per minute per IP and endpoint, against
// password guessing.
func AuthRateLimiter() fiber.Handler {
	return newLimiter(10, time.Minute, func(c *fiber.Ctx) string {
		return c.IP() + ":" + c.Path()
	}, "Authentication rate limit exceeded", "Too many login attempts. Please try again in 1 minute.")
}

// APIRateLimiter - 200 requests per minute per user (IP when anonymous).
func APIRateLimiter() fiber.Handler {
	return newLimiter(200, time.Minute, userKey, "API rate limit exceeded",
		"Too many requests. Please try again in 1 minute.")
}

// ExpensiveOperationLimiter - for calls that fan out to paid or slow
// providers (directions, optimization). 5 requests every 5 minutes.
func ExpensiveOperationLimiter() fiber.Handler {
	return ExpensiveOperationLimiterWith(5, 5*time.Minute)
}

// ExpensiveOperationLimiterWith is ExpensiveOperationLimiter with custom
// bounds.
func ExpensiveOperationLimiterWith(max int, window time.Duration) fiber.Handler {
	return newLimiter(max, window, userKey, "Expensive operation rate limit exceeded",
		"This operation is rate-limited. Try again later.")
}

func newLimiter(max int, window time.Duration, key func(*fiber.Ctx) string, errMsg, message string) fiber.Handler {
	return limiter.New(limiter.Config{
		Max:          max,
		Expiration:   window,
		KeyGenerator: key,
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error":       errMsg,
				"retry_after": int(window.Seconds()),
				"message":     message,
			})
		},
		LimiterMiddleware: limiter.SlidingWindow{},
	})
}

func ipKey(c *fiber.Ctx) string { return c.IP() }

func userKey(c *fiber.Ctx) string {
	if userID, ok := c.Locals(LocalUserID).(string); ok && userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.IP()
}
