package controllers

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pdfcorretor/pdfcorretor/internal/pkg/billing"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/credits"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/database"
)

// HandlePaymentWebhook ingests payment gateway events. Signature and
// payload failures are rejected outright. A handler failure answers
// non-2xx with the error stored on the event row, so the gateway
// redelivers and processing gets another attempt.
func HandlePaymentWebhook(c *fiber.Ctx) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)
	signature := strings.TrimSpace(c.Get("X-Webhook-Signature"))

	db := database.GetDB()
	svc := billing.NewServiceFromDB(db, credits.NewLedgerFromDB(db))
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := svc.Ingest(ctx, rawBody, signature)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrInvalidSignature):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
		case errors.Is(err, billing.ErrMalformedPayload):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload"})
		case result != nil:
			// Recorded with the failure on the event row; the non-2xx
			// makes the gateway redeliver for a retry.
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed", "recorded": true})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "webhook_persist_failed"})
		}
	}

	if result.Duplicate {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "duplicate": true})
	}
	if !result.Handled {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true, "ignored": true})
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"ok": true})
}
