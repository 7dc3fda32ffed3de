package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/pdfcorretor/pdfcorretor/app/repository"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/cache"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/database"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/env"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/metrics/counter"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/router"
	"github.com/pdfcorretor/pdfcorretor/internal/pkg/usercontext"
)

// counterFlushInterval controls how often pending click counters are
// drained from redis into the proposals table.
const counterFlushInterval = 30 * time.Second

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1048576, // 1 MiB, JSON-only API
	})

	// request correlation, recovery and logging
	app.Use(requestid.New(requestid.Config{
		Generator:  func() string { return uuid.NewString() },
		ContextKey: usercontext.KeyRequestID,
	}))
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	go flushCountersLoop()

	return app
}

func flushCountersLoop() {
	ticker := time.NewTicker(counterFlushInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := counter.FlushAll(); err != nil {
			log.Printf("[WARN] flushing click counters failed: %v", err)
		}
	}
}
