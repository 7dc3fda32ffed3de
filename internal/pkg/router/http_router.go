package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/pdfcorretor/pdfcorretor/app/controllers"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/middleware"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/session"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	// Apply UserContext middleware globally as first middleware
	app.Use(middleware.UserContextMiddleware)

	h.registerPublicRoutes(app)
}

// registerPublicRoutes wires the unauthenticated surface: the action
// links embedded in generated documents and the payment webhook. The
// public action links get a rate limit since refs are guessable in
// theory and we answer 404 uniformly.
func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	actionLimiter := limiter.New(limiter.Config{
		Max:        30,
		Expiration: 1 * time.Minute,
	})
	app.Get("/r/:action/:ref", actionLimiter, controllers.HandlePublicActionRedirect)

	app.Post("/webhooks/payments", controllers.HandlePaymentWebhook)
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
