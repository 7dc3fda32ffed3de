package controllers

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdfcorretor/pdfcorretor/app/models"
)

func TestAdminUpdateSettingRejectsUnknownKey(t *testing.T) {
	app := fiber.New()
	app.Put("/settings", HandleAdminUpdateSetting)

	req := httptest.NewRequest("PUT", "/settings", strings.NewReader(`{"key":"smtp_password","value":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}

func TestAdminUpdateSettingRejectsBadBody(t *testing.T) {
	app := fiber.New()
	app.Put("/settings", HandleAdminUpdateSetting)

	req := httptest.NewRequest("PUT", "/settings", strings.NewReader(`not json`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestEditableSettingKeysCoverTemplates(t *testing.T) {
	for _, key := range []string{
		models.SettingMsgAccept,
		models.SettingMsgAdjust,
		models.SettingAcceptMessage,
		models.SettingAdjustMessage,
	} {
		assert.True(t, editableSettingKeys[key], "key %q must be editable", key)
	}
}
