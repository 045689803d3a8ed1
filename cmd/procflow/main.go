// Package main provides the procflow command line interface.
package main

import (
	"context"
	"os"

	"github.com/dukex/procflow/pkg/config"
	"github.com/dukex/procflow/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.WithModule("cli").Error("procflow failed", "error", err)
		os.Exit(1)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:                  "procflow",
		Usage:                 "Edit and validate process workflow definitions",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML configuration file",
				Sources: cli.EnvVars("PROCFLOW_CONFIG"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   config.DefaultLogLevel,
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Before: func(ctx context.Context, command *cli.Command) (context.Context, error) {
			log.Setup(command.String("log-level"))

			return ctx, nil
		},
		Commands: []*cli.Command{
			{
				Name:  "validate",
				Usage: "Validate a workflow document (JSON or YAML)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Workflow document to validate",
						Required: true,
					},
				},
				Action: func(_ context.Context, command *cli.Command) error {
					return runValidate(command.Root().Writer, command.String("file"))
				},
			},
			{
				Name:  "schema",
				Usage: "Print the JSON Schema of the workflow document",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "element",
						Usage: "Print the schema of one element type instead (EVENT_LISTENER, GATEWAY, ...)",
					},
				},
				Action: func(_ context.Context, command *cli.Command) error {
					return runSchema(command.Root().Writer, command.String("element"))
				},
			},
			{
				Name:  "print-condition",
				Usage: "Print a condition tree as indented text",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Condition document (JSON or YAML)",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "flatten",
						Usage: "Inline nested groups that repeat their parent's operator",
						Value: true,
					},
				},
				Action: func(_ context.Context, command *cli.Command) error {
					return runPrintCondition(command.Root().Writer, command.String("file"), command.Bool("flatten"))
				},
			},
			{
				Name:  "serve",
				Usage: "Run the workflow editing API",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:    "port",
						Aliases: []string{"p"},
						Usage:   "Port to run the API server on",
						Value:   config.DefaultPort,
						Sources: cli.EnvVars("PORT"),
					},
					&cli.StringFlag{
						Name:    "database-url",
						Usage:   "Database connection URL for persistence (file://, postgres://, redis://)",
						Value:   config.DefaultDatabaseURL,
						Sources: cli.EnvVars("DATABASE_URL"),
					},
					&cli.BoolFlag{
						Name:    "otel-enabled",
						Usage:   "Export traces over OTLP/HTTP",
						Sources: cli.EnvVars("OTEL_ENABLED"),
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					cfg, err := resolveConfig(command)
					if err != nil {
						return err
					}

					log.Setup(cfg.LogLevel)

					return runServe(ctx, log.WithModule("api"), cfg)
				},
			},
		},
	}
}
