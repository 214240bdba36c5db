package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/wanderplan/internal/accounts"
	"github.com/yourorg/wanderplan/internal/apperr"
	"github.com/yourorg/wanderplan/internal/models"
)

// Register handles POST /api/register.
func Register(c *fiber.Ctx) error {
	svc := getDeps().Accounts
	if svc == nil {
		return notReady(c)
	}
	var req models.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid json")
	}

	resp, err := svc.Register(c.UserContext(), req)
	switch {
	case errors.Is(err, accounts.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(models.ErrorResponse{Error: err.Error()})
	case errors.Is(err, apperr.ErrValidation):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(models.ErrorResponse{Error: err.Error()})
	case err != nil:
		log.Printf("❌ [AUTH] register %q: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "db error"})
	}
	c.Set("Cache-Control", "no-store")
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /api/login.
func Login(c *fiber.Ctx) error {
	svc := getDeps().Accounts
	if svc == nil {
		return notReady(c)
	}
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid json")
	}

	resp, err := svc.Login(c.UserContext(), req)
	switch {
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(models.ErrorResponse{Error: err.Error()})
	case err != nil:
		log.Printf("❌ [AUTH] login %q: %v", req.Username, err)
		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{Error: "db error"})
	}
	c.Set("Cache-Control", "no-store")
	return c.Status(fiber.StatusOK).JSON(resp)
}
