package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dukex/operion-builder/pkg/catalog"
	"github.com/dukex/operion-builder/pkg/jsonview"
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/urfave/cli/v3"
)

const (
	noActions        = "No actions available"
	noSchema         = "No schema available"
	actionLoadFailed = "Failed to load action details. Please try again later."
	actionNotFound   = "Action not found or no longer available."
)

var errUnknownSchema = errors.New("copy expects input or output")

func actionsCommand() *cli.Command {
	return &cli.Command{
		Name:    "actions",
		Aliases: []string{"a"},
		Usage:   "Browse the actions of an integration",
		Commands: []*cli.Command{
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List the actions of an integration (the first integration when omitted)",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "integration",
						Usage: "Integration key",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					e, err := newEnv(ctx, command)
					if err != nil {
						return err
					}

					return listActions(ctx, e, command.Root().Writer, command.String("integration"))
				},
			},
			{
				Name:  "schema",
				Usage: "Show the input and default output schema of an action",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "action",
						Usage:    "Action id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "search",
						Usage: "Only show entries matching this term",
					},
					&cli.StringFlag{
						Name:  "copy",
						Usage: "Copy a schema to the clipboard (input, output)",
					},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					e, err := newEnv(ctx, command)
					if err != nil {
						return err
					}

					return showActionSchemas(ctx, e, command.Root().Writer, schemaOptions{
						actionID:  command.String("action"),
						search:    command.String("search"),
						copy:      command.String("copy"),
						clipboard: jsonview.SystemClipboard{},
					})
				},
			},
		},
	}
}

func listActions(ctx context.Context, e *env, w io.Writer, integrationKey string) error {
	if integrationKey == "" {
		integrations := catalog.FetchOrDefault(ctx, e.logger, "integrations", e.catalog.ListIntegrations, []models.Integration{})
		if len(integrations) == 0 {
			_, err := fmt.Fprintln(w, noIntegrations)

			return err
		}

		integrationKey = integrations[0].Key
	}

	actions := catalog.FetchOrDefault(ctx, e.logger, "actions", func(ctx context.Context) ([]models.Action, error) {
		return e.catalog.ListActions(ctx, integrationKey)
	}, []models.Action{})

	if len(actions) == 0 {
		_, err := fmt.Fprintln(w, noActions)

		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ACTIONS FOR %s\n", integrationKey)
	fmt.Fprintln(tw, "ID\tKEY\tNAME\tCOLLECTION")

	for _, action := range actions {
		collection := action.CollectionKey()
		if collection == "" {
			collection = "-"
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", action.ID, action.Key, action.DisplayName(), collection)
	}

	return tw.Flush()
}

type schemaOptions struct {
	actionID  string
	search    string
	copy      string
	clipboard jsonview.Clipboard
}

func showActionSchemas(ctx context.Context, e *env, w io.Writer, opts schemaOptions) error {
	switch opts.copy {
	case "", "input", "output":
	default:
		return fmt.Errorf("%w: %q", errUnknownSchema, opts.copy)
	}

	action, err := e.catalog.GetAction(ctx, opts.actionID)
	if err != nil {
		if errors.Is(err, catalog.ErrActionNotFound) {
			_, err = fmt.Fprintln(w, actionNotFound)

			return err
		}

		e.logger.ErrorContext(ctx, "Failed to fetch action", "action_id", opts.actionID, "error", err)

		return errors.New(actionLoadFailed)
	}

	if action == nil {
		_, err = fmt.Fprintln(w, actionNotFound)

		return err
	}

	schemas := []struct {
		name   string
		title  string
		schema models.Schema
	}{
		{name: "input", title: "Input Schema", schema: action.InputSchema},
		{name: "output", title: "Output Schema", schema: action.DefaultOutputSchema},
	}

	for _, s := range schemas {
		if jsonview.IsEmpty(s.schema) {
			if _, err := fmt.Fprintf(w, "%s\n%s\n", s.title, noSchema); err != nil {
				return err
			}

			continue
		}

		viewer := jsonview.NewViewer(s.title, s.schema, jsonview.WithLogger(e.logger))
		viewer.SearchTerm = opts.search

		if err := viewer.Render(w); err != nil {
			return err
		}

		if opts.copy == s.name {
			if viewer.Copy(ctx, opts.clipboard) {
				fmt.Fprintf(w, "Copied %s to clipboard\n", s.title)
			}
		}
	}

	return nil
}
