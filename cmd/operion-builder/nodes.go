package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/dukex/operion-builder/pkg/jsonview"
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/nodeconfig"
	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

var (
	errNodeNotFound  = errors.New("node not found in workflow")
	errInvalidStatus = errors.New("invalid execution status")
)

func nodesCommand() *cli.Command {
	workflowFlag := &cli.StringFlag{Name: "workflow", Aliases: []string{"w"}, Usage: "Workflow id", Required: true}
	nodeFlag := &cli.StringFlag{Name: "node", Aliases: []string{"n"}, Usage: "Node id", Required: true}
	nameFlag := &cli.StringFlag{Name: "name", Usage: "Node name"}
	inputFlag := &cli.StringFlag{Name: "input", Usage: "Input mapping as JSON"}

	return &cli.Command{
		Name:    "nodes",
		Aliases: []string{"n"},
		Usage:   "Add, configure and report workflow nodes",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Add a node bound to a connection and an action",
				Flags: []cli.Flag{
					workflowFlag,
					&cli.StringFlag{Name: "connection", Usage: "Connection id", Required: true},
					&cli.StringFlag{Name: "action", Usage: "Action key", Required: true},
					nameFlag,
					inputFlag,
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					e, err := newEnv(ctx, command)
					if err != nil {
						return err
					}

					input, err := parseInput(command.String("input"))
					if err != nil {
						return err
					}

					return addNode(ctx, e, command.Root().Writer, nodeOptions{
						workflowID:   command.String("workflow"),
						connectionID: command.String("connection"),
						actionKey:    command.String("action"),
						name:         command.String("name"),
						input:        input,
					})
				},
			},
			{
				Name:  "configure",
				Usage: "Edit an existing node",
				Flags: []cli.Flag{
					workflowFlag,
					nodeFlag,
					&cli.StringFlag{Name: "connection", Usage: "Switch to another connection"},
					&cli.StringFlag{Name: "action", Usage: "Switch to another action key"},
					nameFlag,
					inputFlag,
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					e, err := newEnv(ctx, command)
					if err != nil {
						return err
					}

					input, err := parseInput(command.String("input"))
					if err != nil {
						return err
					}

					return configureNode(ctx, e, command.Root().Writer, nodeOptions{
						workflowID:   command.String("workflow"),
						nodeID:       command.String("node"),
						connectionID: command.String("connection"),
						actionKey:    command.String("action"),
						name:         command.String("name"),
						input:        input,
					})
				},
			},
			{
				Name:  "variables",
				Usage: "Show the outputs of the other nodes a node can reference",
				Flags: []cli.Flag{
					workflowFlag,
					nodeFlag,
					&cli.StringFlag{Name: "search", Usage: "Only show entries matching this term"},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					e, err := newEnv(ctx, command)
					if err != nil {
						return err
					}

					return showVariables(ctx, e, command.Root().Writer, command.String("workflow"), command.String("node"), command.String("search"))
				},
			},
			{
				Name:  "report",
				Usage: "Record the execution result of a node",
				Flags: []cli.Flag{
					workflowFlag,
					nodeFlag,
					&cli.StringFlag{Name: "status", Usage: "Execution status (pending, running, completed, failed)", Value: string(models.ExecutionStatusCompleted)},
					&cli.StringFlag{Name: "schema", Usage: "Output schema as JSON"},
				},
				Action: func(ctx context.Context, command *cli.Command) error {
					e, err := newEnv(ctx, command)
					if err != nil {
						return err
					}

					var schema models.Schema
					if raw := command.String("schema"); raw != "" {
						if err := json.Unmarshal([]byte(raw), &schema); err != nil {
							return fmt.Errorf("invalid output schema: %w", err)
						}
					}

					return reportNode(ctx, e, command.Root().Writer, command.String("workflow"), command.String("node"), models.ExecutionStatus(command.String("status")), schema)
				},
			},
		},
	}
}

type nodeOptions struct {
	workflowID   string
	nodeID       string
	connectionID string
	actionKey    string
	name         string
	input        any
}

func parseInput(raw string) (any, error) {
	if raw == "" {
		return nil, nil
	}

	var input any
	if err := json.Unmarshal([]byte(raw), &input); err != nil {
		return nil, fmt.Errorf("invalid input mapping: %w", err)
	}

	return input, nil
}

// applyOptions runs the selections of opts against an open session, waiting for each
// catalog fetch to settle before the next step.
func applyOptions(session *nodeconfig.Session, opts nodeOptions) error {
	if opts.connectionID != "" {
		if err := session.SelectConnection(opts.connectionID); err != nil {
			return err
		}

		session.Wait()
	}

	if opts.actionKey != "" {
		if err := session.SelectAction(opts.actionKey); err != nil {
			return err
		}

		session.Wait()
	}

	if opts.name != "" {
		if err := session.SetName(opts.name); err != nil {
			return err
		}
	}

	if opts.input != nil {
		if err := session.SetInputMapping(opts.input); err != nil {
			return err
		}
	}

	return nil
}

func addNode(ctx context.Context, e *env, w io.Writer, opts nodeOptions) error {
	workflow, err := e.api.Workflow(ctx, opts.workflowID)
	if err != nil {
		return err
	}

	session, err := nodeconfig.NewSession(nodeconfig.Config{
		Catalog:       e.catalog,
		Logger:        e.logger,
		Mode:          nodeconfig.ModeCreate,
		WorkflowNodes: workflow.Nodes,
	})
	if err != nil {
		return err
	}
	defer session.Cancel()

	if err := session.Open(ctx); err != nil {
		return err
	}

	if err := applyOptions(session, opts); err != nil {
		return err
	}

	var node *models.WorkflowNode

	err = session.Submit(func(draft models.NodeDraft) {
		node = draft.ToNode(uuid.NewString())
	})
	if err != nil {
		return err
	}

	nodes := append(append([]*models.WorkflowNode{}, workflow.Nodes...), node)

	if _, err := e.api.ReplaceNodes(ctx, opts.workflowID, nodes); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "Added node %s (%s)\n", node.ID, node.Name)

	return err
}

func configureNode(ctx context.Context, e *env, w io.Writer, opts nodeOptions) error {
	workflow, err := e.api.Workflow(ctx, opts.workflowID)
	if err != nil {
		return err
	}

	existing := workflow.NodeByID(opts.nodeID)
	if existing == nil {
		return fmt.Errorf("%w: %s", errNodeNotFound, opts.nodeID)
	}

	session, err := nodeconfig.NewSession(nodeconfig.Config{
		Catalog:       e.catalog,
		Logger:        e.logger,
		Mode:          nodeconfig.ModeConfigure,
		Node:          existing,
		WorkflowNodes: workflow.Nodes,
	})
	if err != nil {
		return err
	}
	defer session.Cancel()

	if err := session.Open(ctx); err != nil {
		return err
	}

	session.Wait()

	if err := applyOptions(session, opts); err != nil {
		return err
	}

	updated := *existing

	err = session.Submit(func(draft models.NodeDraft) {
		draft.Apply(&updated)
	})
	if err != nil {
		return err
	}

	if _, err := e.api.ReplaceNodes(ctx, opts.workflowID, replaceNode(workflow.Nodes, &updated)); err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "Updated node %s (%s)\n", updated.ID, updated.Name)

	return err
}

// replaceNode returns a copy of nodes with the node of the same id swapped for node.
func replaceNode(nodes []*models.WorkflowNode, node *models.WorkflowNode) []*models.WorkflowNode {
	replaced := make([]*models.WorkflowNode, len(nodes))

	for i, n := range nodes {
		if n != nil && n.ID == node.ID {
			replaced[i] = node

			continue
		}

		replaced[i] = n
	}

	return replaced
}

func showVariables(ctx context.Context, e *env, w io.Writer, workflowID, nodeID, search string) error {
	workflow, err := e.api.Workflow(ctx, workflowID)
	if err != nil {
		return err
	}

	viewer := jsonview.NewViewer("Variables", nodeconfig.VariablesSchema(workflow.Nodes, nodeID), jsonview.WithLogger(e.logger))
	viewer.SearchTerm = search

	return viewer.Render(w)
}

func reportNode(ctx context.Context, e *env, w io.Writer, workflowID, nodeID string, status models.ExecutionStatus, schema models.Schema) error {
	if status == "" || !status.IsValid() {
		return fmt.Errorf("%w: %q", errInvalidStatus, status)
	}

	if _, err := e.api.UpdateNodeOutputSchema(ctx, workflowID, nodeID, schema, status); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "Recorded %s for node %s\n", status, nodeID)

	return err
}
