package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/pdfcorretor/pdfcorretor/app/controllers"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New())
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group("/v1")

	// Auth
	v1.Post("/auth/register", controllers.HandleRegister)
	v1.Post("/auth/login", controllers.HandleLogin)
	v1.Post("/auth/logout", controllers.HandleLogout)

	// Public SPA endpoint for client proposal actions, rate limited
	// like the document links.
	publicLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
	})
	v1.Post("/public/proposal-action", publicLimiter, controllers.HandlePublicActionJSON)

	// API keys are minted from a browser session only; a leaked key
	// cannot rotate itself into a fresh one.
	v1.Post("/account/api-key", middleware.RequireAPISessionAuth, controllers.HandleIssueAPIKey)

	// Session or API key protected routes
	protected := v1.Group("", middleware.RequireAPIAuth())

	protected.Get("/credits", controllers.HandleGetCredits)

	protected.Get("/layouts", controllers.HandleListLayouts)
	protected.Put("/account/active-layout", controllers.HandleSelectActiveLayout)

	protected.Get("/properties", controllers.HandleListProperties)
	protected.Post("/properties", controllers.HandleCreateProperty)
	protected.Get("/properties/:id", controllers.HandleGetProperty)

	protected.Get("/proposals", controllers.HandleListProposals)
	protected.Post("/proposals", controllers.HandleCreateProposal)
	protected.Get("/proposals/:id", controllers.HandleGetProposal)
	protected.Post("/proposals/:id/generate", controllers.HandleGenerateProposal)

	// Admin routes
	admin := v1.Group("/admin", middleware.RequireAPIAdmin)
	admin.Post("/credits/grant", controllers.HandleAdminGrantCredits)
	admin.Get("/settings", controllers.HandleAdminListSettings)
	admin.Put("/settings", controllers.HandleAdminUpdateSetting)
	admin.Post("/layouts", controllers.HandleAdminCreateLayout)
	admin.Put("/layouts/:id", controllers.HandleAdminUpdateLayout)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
