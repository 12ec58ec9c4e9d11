// Package main provides the operion-builder command line: catalog browsing and node
// configuration against a running builder API.
package main

import (
	"context"
	"os"

	"github.com/dukex/operion-builder/pkg/catalog"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "operion-builder",
		Usage:                 "Browse integrations and configure workflow nodes",
		EnableShellCompletion: true,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Usage:   "Base URL of the builder API",
				Value:   "http://localhost:9091",
				Sources: cli.EnvVars("API_URL"),
			},
			&cli.StringFlag{
				Name:    "catalog-url",
				Usage:   "Base URL of the integration catalog",
				Value:   catalog.DefaultBaseURL,
				Sources: cli.EnvVars("CATALOG_URL"),
			},
			&cli.StringFlag{
				Name:    "token",
				Usage:   "Integration token; signed from the workspace key and secret when empty",
				Sources: cli.EnvVars("CATALOG_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "workspace-key",
				Usage:   "Workspace key used as token issuer",
				Sources: cli.EnvVars("WORKSPACE_KEY"),
			},
			&cli.StringFlag{
				Name:    "workspace-secret",
				Usage:   "Workspace secret used to sign tokens",
				Sources: cli.EnvVars("WORKSPACE_SECRET"),
			},
			&cli.StringFlag{
				Name:    "customer-id",
				Usage:   "Customer the requests are made for",
				Sources: cli.EnvVars("CUSTOMER_ID"),
			},
			&cli.StringFlag{
				Name:    "customer-name",
				Usage:   "Display name of the customer",
				Sources: cli.EnvVars("CUSTOMER_NAME"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "warn",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			integrationsCommand(),
			actionsCommand(),
			nodesCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
