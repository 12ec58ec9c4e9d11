package main

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dukex/operion-builder/pkg/catalog"
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/urfave/cli/v3"
)

const noIntegrations = "No integrations available"

func integrationsCommand() *cli.Command {
	return &cli.Command{
		Name:    "integrations",
		Aliases: []string{"i"},
		Usage:   "Browse catalog integrations",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List integrations available to the customer",
				Action: func(ctx context.Context, command *cli.Command) error {
					e, err := newEnv(ctx, command)
					if err != nil {
						return err
					}

					return listIntegrations(ctx, e, command.Root().Writer)
				},
			},
		},
	}
}

func listIntegrations(ctx context.Context, e *env, w io.Writer) error {
	integrations := catalog.FetchOrDefault(ctx, e.logger, "integrations", e.catalog.ListIntegrations, []models.Integration{})
	if len(integrations) == 0 {
		_, err := fmt.Fprintln(w, noIntegrations)

		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tNAME\tCONNECTION")

	for _, integration := range integrations {
		connection := "-"
		if integration.Connection != nil {
			connection = integration.Connection.ID
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\n", integration.Key, integration.Name, connection)
	}

	return tw.Flush()
}
