package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// parseIDParam reads a positive numeric route parameter, 0 on failure.
func parseIDParam(c *fiber.Ctx, name string) uint {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0
	}
	return uint(id)
}

// parsePagination reads offset/limit query params with sane bounds.
func parsePagination(c *fiber.Ctx) (int, int) {
	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}
	limit := c.QueryInt("limit", 50)
	if limit < 1 || limit > 200 {
		limit = 50
	}
	return offset, limit
}

func jsonError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": code, "message": message})
}
