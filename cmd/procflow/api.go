package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/dukex/procflow/pkg/persistence"
	"github.com/dukex/procflow/pkg/services"
	"github.com/dukex/procflow/pkg/web"
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
	tracer      trace.Tracer
	validate    *validator.Validate
}

func NewAPI(logger *slog.Logger, persistence persistence.Persistence, tracer trace.Tracer) *API {
	return &API{
		logger:      logger,
		persistence: persistence,
		tracer:      tracer,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *API) App() *fiber.App {
	workflowService := services.NewWorkflow(a.persistence, a.logger, a.tracer)
	handlers := web.NewAPIHandlers(workflowService, a.validate)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("procflow API")
	})

	handlers.RegisterRoutes(app)

	return app
}

// Start serves the API until ctx is cancelled.
func (a *API) Start(ctx context.Context, port int) error {
	app := a.App()

	errs := make(chan error, 1)

	go func() {
		errs <- app.Listen(":" + strconv.Itoa(port))
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
		a.logger.InfoContext(ctx, "Shutting down procflow API")

		return app.Shutdown()
	}
}
