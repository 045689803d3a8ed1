package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"slices"
	"syscall"

	"github.com/dukex/procflow/pkg/cmd"
	"github.com/dukex/procflow/pkg/condition"
	"github.com/dukex/procflow/pkg/config"
	"github.com/dukex/procflow/pkg/models"
	"github.com/dukex/procflow/pkg/otelhelper"
	"github.com/dukex/procflow/pkg/schema"
	"github.com/dukex/procflow/pkg/workflow"
	cli "github.com/urfave/cli/v3"
	"go.opentelemetry.io/otel/trace"
)

func runValidate(w io.Writer, path string) error {
	document, err := loadWorkflow(path)
	if err != nil {
		return err
	}

	if err := workflow.Validate(document); err != nil {
		return fmt.Errorf("workflow %s is invalid: %w", document.ID, err)
	}

	_, err = fmt.Fprintf(w, "workflow %s is valid\n", document.ID)

	return err
}

func runSchema(w io.Writer, element string) error {
	document := schema.Document()

	if element != "" {
		kind := models.ElementType(element)
		if !slices.Contains(models.ElementTypes, kind) {
			return fmt.Errorf("unknown element type %q", element)
		}

		document = schema.Element(kind)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(document)
}

func runPrintCondition(w io.Writer, path string, flatten bool) error {
	root, err := loadCondition(path)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, condition.Print(root, condition.WithFlatten(flatten)))

	return err
}

// resolveConfig layers explicitly set flags and environment variables over
// the configuration file, which is layered over the defaults.
func resolveConfig(command *cli.Command) (config.Config, error) {
	cfg, err := config.Load(command.String("config"))
	if err != nil {
		return config.Config{}, err
	}

	if command.IsSet("port") {
		cfg.Server.Port = command.Int("port")
	}

	if command.IsSet("database-url") {
		cfg.DatabaseURL = command.String("database-url")
	}

	if command.IsSet("log-level") {
		cfg.LogLevel = command.String("log-level")
	}

	if command.IsSet("otel-enabled") {
		cfg.Tracing.Enabled = command.Bool("otel-enabled")
	}

	return cfg, nil
}

func runServe(ctx context.Context, logger *slog.Logger, cfg config.Config) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.InfoContext(ctx, "Initializing procflow API", "port", cfg.Server.Port)

	p, err := cmd.NewPersistence(ctx, logger, cfg.DatabaseURL)
	if err != nil {
		return err
	}

	defer func() {
		if err := p.Close(ctx); err != nil {
			logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
		}
	}()

	var tracer trace.Tracer

	if cfg.Tracing.Enabled {
		var shutdown otelhelper.ShutdownFunc

		tracer, shutdown, err = otelhelper.NewTracer(ctx, cfg.Tracing.ServiceName)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}

		defer func() {
			if err := shutdown(context.WithoutCancel(ctx)); err != nil {
				logger.ErrorContext(ctx, "Failed to shut down tracer", "error", err)
			}
		}()
	}

	return NewAPI(logger, p, tracer).Start(ctx, cfg.Server.Port)
}
