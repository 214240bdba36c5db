package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/wanderplan/internal/accounts"
	"github.com/yourorg/wanderplan/internal/models"
)

// Locals keys set by RequireAuth.
const (
	LocalUserID   = "user_id"
	LocalUsername = "username"
)

// TokenVerifier checks a bearer token.
type TokenVerifier interface {
	ParseToken(raw string) (accounts.Claims, error)
}

// RequireAuth rejects requests without a valid bearer token and stores the
// caller's id in Locals. Websocket upgrades may pass the token as ?token=
// since browsers cannot set headers on them.
func RequireAuth(v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c.Get(fiber.HeaderAuthorization))
		if raw == "" {
			raw = c.Query("token")
		}
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Error: "missing bearer token"})
		}
		claims, err := v.ParseToken(raw)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Error: err.Error()})
		}
		c.Locals(LocalUserID, claims.UserID)
		c.Locals(LocalUsername, claims.Username)
		return c.Next()
	}
}

// UserID returns the authenticated caller, or "".
func UserID(c *fiber.Ctx) string {
	id, _ := c.Locals(LocalUserID).(string)
	return id
}

func bearer(header string) string {
	const prefix = "bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// ProviderAuth guards the provider endpoints. A request passes with the
// shared service token or any valid user token. An empty service token
// leaves the endpoints open.
func ProviderAuth(serviceToken string, v TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if serviceToken == "" {
			return c.Next()
		}
		raw := bearer(c.Get(fiber.HeaderAuthorization))
		if raw == serviceToken {
			return c.Next()
		}
		if raw != "" && v != nil {
			if claims, err := v.ParseToken(raw); err == nil {
				c.Locals(LocalUserID, claims.UserID)
				return c.Next()
			}
		}
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Error: "invalid service token"})
	}
}
