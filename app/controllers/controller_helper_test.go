package controllers

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIDParam(t *testing.T) {
	app := fiber.New()
	var got uint
	app.Get("/items/:id", func(c *fiber.Ctx) error {
		got = parseIDParam(c, "id")
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		path string
		want uint
	}{
		{"/items/42", 42},
		{"/items/0", 0},
		{"/items/abc", 0},
		{"/items/-5", 0},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, tt.want, got, "path %s", tt.path)
	}
}

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var offset, limit int
	app.Get("/list", func(c *fiber.Ctx) error {
		offset, limit = parsePagination(c)
		return c.SendStatus(fiber.StatusNoContent)
	})

	tests := []struct {
		query      string
		wantOffset int
		wantLimit  int
	}{
		{"", 0, 50},
		{"?offset=20&limit=10", 20, 10},
		{"?offset=-1&limit=0", 0, 50},
		{"?limit=9999", 0, 50},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", "/list"+tt.query, nil), -1)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
		assert.Equal(t, tt.wantOffset, offset, "query %q", tt.query)
		assert.Equal(t, tt.wantLimit, limit, "query %q", tt.query)
	}
}

func TestJSONError(t *testing.T) {
	app := fiber.New()
	app.Get("/fail", func(c *fiber.Ctx) error {
		return jsonError(c, fiber.StatusPaymentRequired, "insufficient_credits", "No proposal credits available")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/fail", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusPaymentRequired, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var payload map[string]string
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "insufficient_credits", payload["error"])
	assert.Equal(t, "No proposal credits available", payload["message"])
}
