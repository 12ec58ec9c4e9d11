// Package redis provides Redis persistence implementation for workflow documents.
// Each workflow is one JSON value; mutations run as optimistic WATCH/MULTI transactions.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

const (
	keyPrefix       = "operion-builder:workflow:"
	maxTxRetries    = 20
	txRetryInterval = 5 * time.Millisecond
)

// ErrTooManyConflicts is returned when optimistic retries are exhausted.
var ErrTooManyConflicts = errors.New("too many concurrent updates")

// Persistence implements the persistence layer for Redis.
type Persistence struct {
	client *goredis.Client
	logger *slog.Logger
}

// NewPersistence connects to the Redis server in databaseURL (redis://host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	return NewPersistenceWithClient(ctx, logger, goredis.NewClient(opts))
}

// NewPersistenceWithClient wraps an existing client and checks connectivity.
func NewPersistenceWithClient(ctx context.Context, logger *slog.Logger, client *goredis.Client) (*Persistence, error) {
	err := client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return &Persistence{client: client, logger: logger}, nil
}

func workflowKey(id string) string {
	return keyPrefix + id
}

// Close closes the client.
func (p *Persistence) Close(_ context.Context) error {
	err := p.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

// HealthCheck pings the server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func decodeWorkflow(data []byte) (*models.Workflow, error) {
	var workflow models.Workflow

	err := json.Unmarshal(data, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to decode workflow: %w", err)
	}

	workflow.Nodes = persistence.NormalizeNodes(workflow.Nodes)

	return &workflow, nil
}

type stringGetter interface {
	Get(ctx context.Context, key string) *goredis.StringCmd
}

func (p *Persistence) get(ctx context.Context, getter stringGetter, id string) (*models.Workflow, error) {
	data, err := getter.Get(ctx, workflowKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to read workflow: %w", err)
	}

	return decodeWorkflow(data)
}

// WorkflowByID returns a workflow by its ID.
func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := p.get(ctx, p.client, id)
	if err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	return workflow, nil
}

// SaveWorkflow creates or overwrites a workflow document.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		return persistence.NewWorkflowError("SaveWorkflow", "", persistence.ErrWorkflowIDRequired)
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now
	workflow.Nodes = persistence.NormalizeNodes(workflow.Nodes)

	data, err := json.Marshal(workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	err = p.client.Set(ctx, workflowKey(workflow.ID), data, 0).Err()
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// update reads, mutates and writes the document inside WATCH/MULTI, retrying on conflicts.
// Nothing is written when mutate returns an error.
func (p *Persistence) update(ctx context.Context, id string, mutate func(*models.Workflow) error) (*models.Workflow, error) {
	key := workflowKey(id)

	var result *models.Workflow

	txf := func(tx *goredis.Tx) error {
		workflow, err := p.get(ctx, tx, id)
		if err != nil {
			return err
		}

		err = mutate(workflow)
		if err != nil {
			return err
		}

		workflow.Nodes = persistence.NormalizeNodes(workflow.Nodes)
		workflow.UpdatedAt = time.Now().UTC()

		data, err := json.Marshal(workflow)
		if err != nil {
			return fmt.Errorf("failed to encode workflow: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, data, 0)

			return nil
		})
		if err != nil {
			return err
		}

		result = workflow

		return nil
	}

	for attempt := range maxTxRetries {
		err := p.client.Watch(ctx, txf, key)
		if err == nil {
			return result, nil
		}

		if !errors.Is(err, goredis.TxFailedErr) {
			return nil, err
		}

		p.logger.DebugContext(ctx, "workflow update conflict, retrying", "workflow_id", id, "attempt", attempt+1)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(txRetryInterval):
		}
	}

	return nil, ErrTooManyConflicts
}

// ReplaceNodes replaces the whole node array.
func (p *Persistence) ReplaceNodes(ctx context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error) {
	workflow, err := p.update(ctx, workflowID, func(w *models.Workflow) error {
		w.Nodes = nodes

		return nil
	})
	if err != nil {
		return nil, persistence.NewWorkflowError("ReplaceNodes", workflowID, err)
	}

	return workflow, nil
}

// PatchNodeFields updates the three execution fields of one node.
func (p *Persistence) PatchNodeFields(ctx context.Context, workflowID, nodeID string, patch persistence.NodeFieldsPatch) (*models.Workflow, error) {
	workflow, err := p.update(ctx, workflowID, func(w *models.Workflow) error {
		node := w.NodeByID(nodeID)
		if node == nil {
			return persistence.ErrNodeNotFound
		}

		patch.Apply(node)

		return nil
	})
	if err != nil {
		return nil, persistence.NewNodeError("PatchNodeFields", workflowID, nodeID, err)
	}

	return workflow, nil
}
