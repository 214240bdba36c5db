package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/yourorg/wanderplan/internal/models"
)

// AddItem handles POST /api/trips/:id/items.
func AddItem(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	var in models.CreateItemInput
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "invalid json")
	}
	item, err := d.Store.AddItem(c.UserContext(), user, c.Params("id"), in)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateItem handles PATCH /api/items/:id.
func UpdateItem(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	var patch models.ItemPatch
	if err := c.BodyParser(&patch); err != nil {
		return badRequest(c, "invalid json")
	}
	item, err := d.Store.UpdateItem(c.UserContext(), user, c.Params("id"), patch)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(item)
}

// RemoveItem handles DELETE /api/items/:id.
func RemoveItem(c *fiber.Ctx) error {
	d := getDeps()
	user, err := caller(c)
	if err != nil {
		return fail(c, err)
	}
	if err := d.Store.RemoveItem(c.UserContext(), user, c.Params("id")); err != nil {
		return fail(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
