package main

import (
	"context"
	"os"

	"github.com/dukex/operion-builder/pkg/cmd"
	"github.com/dukex/operion-builder/pkg/log"
	"github.com/dukex/operion-builder/pkg/otelhelper"
	cli "github.com/urfave/cli/v3"
)

const (
	defaultPort = 9091
	serviceName = "operion-builder-api"
)

func main() {
	command := &cli.Command{
		Name:                  serviceName,
		Usage:                 "Serve the workflow node API of the builder",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to run the API server on",
				Value:   defaultPort,
				Sources: cli.EnvVars("PORT"),
			},
			&cli.StringFlag{
				Name:     "database-url",
				Usage:    "Database connection URL for persistence (file://, postgres://, mongodb://, redis://)",
				Required: true,
				Sources:  cli.EnvVars("DATABASE_URL"),
			},
			&cli.StringFlag{
				Name:    "event-bus",
				Usage:   "Event bus type (gochannel, kafka); empty disables events",
				Sources: cli.EnvVars("EVENT_BUS_TYPE"),
			},
			&cli.StringFlag{
				Name:    "kafka-brokers",
				Usage:   "Comma separated Kafka brokers",
				Value:   "localhost:9092",
				Sources: cli.EnvVars("KAFKA_BROKERS"),
			},
			&cli.BoolFlag{
				Name:    "log-events",
				Usage:   "Log every builder event received from the event bus",
				Value:   true,
				Sources: cli.EnvVars("LOG_EVENTS"),
			},
			&cli.BoolFlag{
				Name:    "require-auth",
				Usage:   "Reject workflow requests without x-auth-id and token headers",
				Sources: cli.EnvVars("REQUIRE_AUTH"),
			},
			&cli.BoolFlag{
				Name:    "otel-enabled",
				Usage:   "Export traces over OTLP/HTTP",
				Sources: cli.EnvVars("OTEL_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: func(ctx context.Context, command *cli.Command) error {
			log.Setup(command.String("log-level"))

			logger := log.WithModule("api")
			logger.InfoContext(ctx, "Initializing Operion Builder API")

			tracer, shutdownTracer, err := otelhelper.NewTracer(ctx, serviceName, command.Bool("otel-enabled"))
			if err != nil {
				return err
			}

			defer func() {
				if err := shutdownTracer(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to shutdown tracer provider", "error", err)
				}
			}()

			persistence, err := cmd.NewPersistence(ctx, logger, command.String("database-url"))
			if err != nil {
				return err
			}

			defer func() {
				if err := persistence.Close(ctx); err != nil {
					logger.ErrorContext(ctx, "Failed to close persistence", "error", err)
				}
			}()

			eventBus, err := cmd.NewEventBus(command.String("event-bus"), command.String("kafka-brokers"), serviceName, logger)
			if err != nil {
				return err
			}

			if eventBus != nil {
				defer func() {
					if err := eventBus.Close(); err != nil {
						logger.ErrorContext(ctx, "Failed to close event bus", "error", err)
					}
				}()

				if command.Bool("log-events") {
					err = subscribeActivityLog(ctx, eventBus, log.WithModule("activity"))
					if err != nil {
						return err
					}
				}
			}

			api := NewAPI(logger, persistence, eventBus, tracer, command.Bool("require-auth"))

			err = api.Start(command.Int("port"))
			if err != nil {
				logger.ErrorContext(ctx, "Failed to start API server", "error", err)

				return err
			}

			return nil
		},
	}

	err := command.Run(context.Background(), os.Args)
	if err != nil {
		panic(err)
	}
}
