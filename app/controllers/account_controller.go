package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pdfcorretor/pdfcorretor/app/repository"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/usercontext"
)

type selectLayoutRequest struct {
	LayoutID uint `json:"layout_id"`
}

// HandleIssueAPIKey mints a new API key for the session user. Only the
// hash is stored; the raw key is returned exactly once and a lost key
// is replaced, never recovered. Issuing again invalidates the old key.
func HandleIssueAPIKey(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	users := repository.GetGlobalRepositories().User
	user, err := users.GetByID(userCtx.UserID)
	if err != nil {
		log.Printf("[ERROR] account: loading user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to issue API key")
	}

	rawKey, err := user.GenerateAPIKey()
	if err != nil {
		log.Printf("[ERROR] account: generating API key for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to issue API key")
	}
	if err := users.Update(user); err != nil {
		log.Printf("[ERROR] account: storing API key for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to issue API key")
	}

	return c.JSON(fiber.Map{
		"api_key":        rawKey,
		"api_key_prefix": user.APIKeyPrefix,
	})
}

// HandleSelectActiveLayout switches the account's document layout. The
// next generation picks it up immediately.
func HandleSelectActiveLayout(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req selectLayoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Invalid request body")
	}
	if req.LayoutID == 0 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "layout_id is required")
	}

	repos := repository.GetGlobalRepositories()
	layout, err := repos.Layout.GetByID(req.LayoutID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Unknown layout")
		}
		log.Printf("[ERROR] account: loading layout %d failed: %v", req.LayoutID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to select layout")
	}
	if !layout.IsActive {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Layout is not available")
	}

	user, err := repos.User.GetByID(userCtx.UserID)
	if err != nil {
		log.Printf("[ERROR] account: loading user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to select layout")
	}
	user.ActiveLayoutID = &layout.ID
	if err := repos.User.Update(user); err != nil {
		log.Printf("[ERROR] account: storing layout choice for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to select layout")
	}

	return c.JSON(fiber.Map{"active_layout_id": layout.ID})
}
