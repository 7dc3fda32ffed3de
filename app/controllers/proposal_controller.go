package controllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/app/repository"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/database"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/docgen"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/shortener"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/usercontext"
)

type proposalRequest struct {
	PropertyID      uint              `json:"property_id"`
	ClientName      string            `json:"client_name"`
	Unit            string            `json:"unit"`
	FinalPriceCents int64             `json:"final_price_cents"`
	DiscountCents   int64             `json:"discount_cents"`
	PaymentTerms    models.StringList `json:"payment_terms"`
	LayoutID        *uint             `json:"layout_id"`
}

// HandleListProposals lists the authenticated user's proposals,
// optionally filtered by lifecycle status.
func HandleListProposals(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := parsePagination(c)

	status := strings.TrimSpace(c.Query("status"))
	if status != "" && !models.IsValidProposalStatus(status) {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Unknown status filter")
	}

	repo := repository.GetGlobalFactory().GetProposalRepository()
	var (
		proposals []models.Proposal
		total     int64
		err       error
	)
	if status != "" {
		proposals, err = repo.ListByUserAndStatus(userCtx.UserID, status, offset, limit)
	} else {
		proposals, err = repo.ListByUser(userCtx.UserID, offset, limit)
	}
	if err != nil {
		log.Printf("[ERROR] proposals: listing for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load proposals")
	}
	if status != "" {
		total, err = repo.CountByUserAndStatus(userCtx.UserID, status)
	} else {
		total, err = repo.CountByUser(userCtx.UserID)
	}
	if err != nil {
		log.Printf("[ERROR] proposals: counting for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load proposals")
	}

	return c.JSON(fiber.Map{
		"proposals": proposals,
		"total":     total,
		"offset":    offset,
		"limit":     limit,
	})
}

// HandleCreateProposal creates a proposal draft in generated-pending.
// Creating never touches credits; only generation consumes one.
func HandleCreateProposal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req proposalRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Invalid request body")
	}

	// The referenced property must belong to the caller.
	propertyRepo := repository.GetGlobalFactory().GetPropertyRepository()
	if _, err := propertyRepo.GetByIDForUser(req.PropertyID, userCtx.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Unknown property")
		}
		log.Printf("[ERROR] proposals: property lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create proposal")
	}

	ref, err := shortener.GenerateSecureSlug(shortener.PublicRefLength)
	if err != nil {
		log.Printf("[ERROR] proposals: generating public ref failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create proposal")
	}

	proposal := &models.Proposal{
		PublicRef:       ref,
		UserID:          userCtx.UserID,
		PropertyID:      req.PropertyID,
		ClientName:      req.ClientName,
		Unit:            req.Unit,
		FinalPriceCents: req.FinalPriceCents,
		DiscountCents:   req.DiscountCents,
		PaymentTerms:    req.PaymentTerms,
		LayoutID:        req.LayoutID,
		Status:          models.ProposalStatusPending,
	}
	if err := proposal.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetProposalRepository()
	if err := repo.Create(proposal); err != nil {
		log.Printf("[ERROR] proposals: creating for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create proposal")
	}

	return c.Status(fiber.StatusCreated).JSON(proposal)
}

// HandleGetProposal returns one owned proposal.
func HandleGetProposal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id := parseIDParam(c, "id")
	if id == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid proposal id")
	}

	repo := repository.GetGlobalFactory().GetProposalRepository()
	proposal, err := repo.GetByIDForUser(id, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Proposal not found")
		}
		log.Printf("[ERROR] proposals: loading %d failed: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load proposal")
	}

	return c.JSON(proposal)
}

// HandleGenerateProposal runs the credit-gated document generation for
// an owned proposal and returns the stored document URL.
func HandleGenerateProposal(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id := parseIDParam(c, "id")
	if id == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid proposal id")
	}

	orch := docgen.NewOrchestratorFromDB(database.GetDB())
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	result, err := orch.Generate(ctx, id, userCtx.UserID)
	if err != nil {
		switch {
		case errors.Is(err, docgen.ErrNotFound):
			return jsonError(c, fiber.StatusNotFound, "not_found", "Proposal not found")
		case errors.Is(err, docgen.ErrInsufficientCredits):
			return jsonError(c, fiber.StatusPaymentRequired, "insufficient_credits", "No proposal credits available")
		case errors.Is(err, docgen.ErrGenerationFailed):
			return jsonError(c, fiber.StatusBadGateway, "generation_failed", "Document generation failed, credit refunded")
		case errors.Is(err, docgen.ErrPersistenceFailed):
			return jsonError(c, fiber.StatusInternalServerError, "persistence_failed", "Document generated but could not be stored")
		default:
			log.Printf("[ERROR] proposals: generating %d failed: %v", id, err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Document generation failed")
		}
	}

	return c.JSON(fiber.Map{
		"document_url": result.DocumentURL,
		"layout_id":    result.LayoutID,
	})
}
