package controllers

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/pdfcorretor/pdfcorretor/internal/pkg/credits"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/database"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/usercontext"
)

type grantCreditsRequest struct {
	UserID  uint   `json:"user_id"`
	Monthly int    `json:"monthly"`
	Extra   int    `json:"extra"`
	Reason  string `json:"reason"`
}

// HandleGetCredits returns the authenticated user's credit balance.
func HandleGetCredits(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	ledger := credits.NewLedgerFromDB(database.GetDB())
	balance, err := ledger.Balance(context.Background(), userCtx.UserID)
	if err != nil {
		log.Printf("[ERROR] credits: loading balance for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load credit balance")
	}

	canConsume, err := ledger.CanConsume(context.Background(), userCtx.UserID)
	if err != nil {
		log.Printf("[ERROR] credits: checking balance for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load credit balance")
	}

	return c.JSON(fiber.Map{
		"monthly_limit":     balance.MonthlyLimit,
		"monthly_used":      balance.MonthlyUsed,
		"monthly_remaining": balance.MonthlyRemaining(),
		"extra_available":   balance.ExtraAvailable,
		"total_available":   balance.TotalAvailable(),
		"can_consume":       canConsume,
	})
}

// HandleAdminGrantCredits applies a manual credit adjustment, admin only.
func HandleAdminGrantCredits(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req grantCreditsRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Invalid request body")
	}
	if req.UserID == 0 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "user_id is required")
	}
	if req.Monthly == 0 && req.Extra == 0 {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "nothing to grant")
	}

	ledger := credits.NewLedgerFromDB(database.GetDB())
	if err := ledger.Grant(context.Background(), req.UserID, req.Monthly, req.Extra); err != nil {
		log.Printf("[ERROR] credits: admin grant for user %d failed: %v", req.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to grant credits")
	}
	log.Printf("[INFO] credits: admin %d granted monthly=%d extra=%d to user %d (%s)",
		userCtx.UserID, req.Monthly, req.Extra, req.UserID, req.Reason)

	balance, err := ledger.Balance(context.Background(), req.UserID)
	if err != nil {
		log.Printf("[ERROR] credits: loading balance after grant failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load credit balance")
	}

	return c.JSON(fiber.Map{
		"monthly_limit":   balance.MonthlyLimit,
		"monthly_used":    balance.MonthlyUsed,
		"extra_available": balance.ExtraAvailable,
	})
}
