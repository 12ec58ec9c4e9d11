// Package main provides the Operion Builder API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/dukex/operion-builder/pkg/eventbus"
	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/dukex/operion-builder/pkg/services"
	"github.com/dukex/operion-builder/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	tracer      trace.Tracer
	requireAuth bool
	validate    *validator.Validate
}

func NewAPI(
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
	requireAuth bool,
) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		eventBus:    eventBus,
		tracer:      tracer,
		requireAuth: requireAuth,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	opts := []services.Option{services.WithLogger(a.logger)}

	if a.tracer != nil {
		opts = append(opts, services.WithTracer(a.tracer))
	}

	if a.eventBus != nil {
		opts = append(opts, services.WithPublisher(a.eventBus))
	}

	workflowService := services.NewWorkflow(a.persistence, opts...)
	handlers := web.NewAPIHandlers(workflowService, a.validate, a.logger)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "x-auth-id", "x-customer-name", "token"},
	}))
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())
	app.Get("/health", handlers.HealthCheck)

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Operion Builder API")
	})

	w := app.Group("/workflows", web.AuthMiddleware(a.requireAuth))
	w.Get("/:id", handlers.GetWorkflow)
	w.Put("/:id/nodes", handlers.ReplaceNodes)
	w.Patch("/:id/nodes", handlers.PatchNode)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
