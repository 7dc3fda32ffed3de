package controllers

import (
	"errors"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/app/repository"
)

type layoutRequest struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	TemplateRef string `json:"template_ref"`
	IsActive    *bool  `json:"is_active"`
}

// HandleListLayouts returns the layouts an agent can pick from.
func HandleListLayouts(c *fiber.Ctx) error {
	layouts, err := repository.GetGlobalRepositories().Layout.ListActive()
	if err != nil {
		log.Printf("[ERROR] layouts: listing failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load layouts")
	}
	return c.JSON(fiber.Map{"layouts": layouts})
}

// HandleAdminCreateLayout registers a new document template, admin only.
func HandleAdminCreateLayout(c *fiber.Ctx) error {
	var req layoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Invalid request body")
	}
	if strings.TrimSpace(req.Slug) == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.TemplateRef) == "" {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "slug, name and template_ref are required")
	}

	layouts := repository.GetGlobalRepositories().Layout
	if _, err := layouts.GetBySlug(req.Slug); err == nil {
		return jsonError(c, fiber.StatusConflict, "slug_taken", "Slug already in use")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("[ERROR] layouts: slug lookup failed: %v", err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create layout")
	}

	layout := &models.Layout{
		Slug:        req.Slug,
		Name:        req.Name,
		TemplateRef: req.TemplateRef,
		IsActive:    true,
	}
	if req.IsActive != nil {
		layout.IsActive = *req.IsActive
	}
	if err := layouts.Create(layout); err != nil {
		log.Printf("[ERROR] layouts: creating %q failed: %v", req.Slug, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to create layout")
	}

	return c.Status(fiber.StatusCreated).JSON(layout)
}

// HandleAdminUpdateLayout edits a layout's name, template reference or
// availability. Deactivating a layout hides it from agents; proposals
// already rendered with it keep their documents.
func HandleAdminUpdateLayout(c *fiber.Ctx) error {
	id := parseIDParam(c, "id")
	if id == 0 {
		return jsonError(c, fiber.StatusBadRequest, "invalid_id", "Invalid layout id")
	}

	layouts := repository.GetGlobalRepositories().Layout
	layout, err := layouts.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusNotFound, "not_found", "Layout not found")
		}
		log.Printf("[ERROR] layouts: loading %d failed: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update layout")
	}

	var req layoutRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Invalid request body")
	}
	if strings.TrimSpace(req.Name) != "" {
		layout.Name = req.Name
	}
	if strings.TrimSpace(req.TemplateRef) != "" {
		layout.TemplateRef = req.TemplateRef
	}
	if req.IsActive != nil {
		layout.IsActive = *req.IsActive
	}

	if err := layouts.Update(layout); err != nil {
		log.Printf("[ERROR] layouts: updating %d failed: %v", id, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to update layout")
	}

	return c.JSON(layout)
}
