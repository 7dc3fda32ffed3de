package controllers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/pdfcorretor/pdfcorretor/app/models"
	"github.com/pdfcorretor/pdfcorretor/app/repository"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/usercontext"
)

// editableSettingKeys lists the settings the back office may change.
// Writes outside this set are rejected.
var editableSettingKeys = map[string]bool{
	models.SettingMsgAccept:     true,
	models.SettingMsgAdjust:     true,
	models.SettingAcceptMessage: true,
	models.SettingAdjustMessage: true,
}

type settingRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HandleAdminListSettings returns the editable settings with their
// current values. Unset keys come back empty, the defaults apply.
func HandleAdminListSettings(c *fiber.Ctx) error {
	settings := repository.GetGlobalRepositories().Setting

	out := fiber.Map{}
	for key := range editableSettingKeys {
		value, err := settings.GetValue(key)
		if err != nil {
			log.Printf("[ERROR] settings: loading %q failed: %v", key, err)
			return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to load settings")
		}
		out[key] = value
	}

	return c.JSON(fiber.Map{"settings": out})
}

// HandleAdminUpdateSetting writes one message template or button label.
// An empty value clears the override back to the built-in default.
func HandleAdminUpdateSetting(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)

	var req settingRequest
	if err := c.BodyParser(&req); err != nil {
		return jsonError(c, fiber.StatusBadRequest, "invalid_payload", "Invalid request body")
	}
	if !editableSettingKeys[req.Key] {
		return jsonError(c, fiber.StatusUnprocessableEntity, "validation_failed", "Unknown setting key")
	}

	if err := repository.GetGlobalRepositories().Setting.SetValue(req.Key, req.Value); err != nil {
		log.Printf("[ERROR] settings: storing %q failed: %v", req.Key, err)
		return jsonError(c, fiber.StatusInternalServerError, "internal_server_error", "Failed to store setting")
	}
	log.Printf("[INFO] settings: admin %d set %q", userCtx.UserID, req.Key)

	return c.JSON(fiber.Map{"key": req.Key, "value": req.Value})
}
