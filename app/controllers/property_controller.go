package controllers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/app/repository"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/usercontext"
)

type propertyRequest struct {
	Name       string                  `json:"name"`
	Address    string                  `json:"address"`
	PriceCents int64                   `json:"price_cents"`
	SqMeters   int                     `json:"sq_meters"`
	Images     models.StringList       `json:"images"`
	Features   models.PropertyFeatures `json:"features"`
}

// HandleListProperties lists the authenticated user's properties.
func HandleListProperties(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	offset, limit := parsePagination(c)

	repo := repository.GetGlobalFactory().GetPropertyRepository()
	properties, err := repo.ListByUser(userCtx.UserID, offset, limit)
	if err != nil {
		log.Printf("[ERROR] properties: listing for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load properties")
	}
	total, err := repo.CountByUser(userCtx.UserID)
	if err != nil {
		log.Printf("[ERROR] properties: counting for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load properties")
	}

	return c.JSON(fiber.Map{
		"properties": properties,
		"total":      total,
		"offset":     offset,
		"limit":      limit,
	})
}

// HandleCreateProperty creates a property for the authenticated user.
func HandleCreateProperty(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req propertyRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Invalid request body")
	}

	property := &models.Property{
		UserID:     userCtx.UserID,
		Name:       req.Name,
		Address:    req.Address,
		PriceCents: req.PriceCents,
		SqMeters:   req.SqMeters,
		Images:     req.Images,
		Features:   req.Features,
	}
	if err := property.Validate(); err != nil {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", err.Error())
	}

	repo := repository.GetGlobalFactory().GetPropertyRepository()
	if err := repo.Create(property); err != nil {
		log.Printf("[ERROR] properties: creating for user %d failed: %v", userCtx.UserID, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create property")
	}

	return c.Status(fiber.StatusCreated).JSON(property)
}

// HandleGetProperty returns one owned property.
func HandleGetProperty(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	id := parseIDParam(c, "id")
	if id == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid property id")
	}

	repo := repository.GetGlobalFactory().GetPropertyRepository()
	property, err := repo.GetByIDForUser(id, userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Property not found")
		}
		log.Printf("[ERROR] properties: loading %d failed: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load property")
	}

	return c.JSON(property)
}
