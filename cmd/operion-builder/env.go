package main

import (
	"context"
	"log/slog"

	"github.com/dukex/operion-builder/pkg/apiclient"
	"github.com/dukex/operion-builder/pkg/auth"
	"github.com/dukex/operion-builder/pkg/catalog"
	"github.com/dukex/operion-builder/pkg/cmd"
	"github.com/dukex/operion-builder/pkg/log"
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/urfave/cli/v3"
)

// nodeAPI is the part of the builder API the node commands use.
type nodeAPI interface {
	Workflow(ctx context.Context, workflowID string) (*models.Workflow, error)
	ReplaceNodes(ctx context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error)
	UpdateNodeOutputSchema(ctx context.Context, workflowID, nodeID string, schema models.Schema, status models.ExecutionStatus) (*models.Workflow, error)
}

type env struct {
	logger  *slog.Logger
	catalog catalog.Client
	api     nodeAPI
}

func catalogConfig(command *cli.Command) cmd.CatalogConfig {
	return cmd.CatalogConfig{
		BaseURL:         command.String("catalog-url"),
		Token:           command.String("token"),
		WorkspaceKey:    command.String("workspace-key"),
		WorkspaceSecret: command.String("workspace-secret"),
		Customer: auth.Credentials{
			CustomerID:   command.String("customer-id"),
			CustomerName: command.String("customer-name"),
		},
	}
}

func newEnv(ctx context.Context, command *cli.Command) (*env, error) {
	log.Setup(command.String("log-level"))

	cfg := catalogConfig(command)

	catalogClient, err := cmd.NewCatalogClient(cfg)
	if err != nil {
		return nil, err
	}

	token, err := cmd.ResolveToken(ctx, cfg)
	if err != nil {
		return nil, err
	}

	credentials := cfg.Customer
	credentials.Token = token

	return &env{
		logger:  log.WithModule("cli"),
		catalog: catalogClient,
		api:     apiclient.New(command.String("api-url"), credentials),
	}, nil
}
