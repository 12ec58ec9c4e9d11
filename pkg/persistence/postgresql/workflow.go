package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
)

const workflowColumns = `
			id
		  , name
		  , nodes
		  , created_at
		  , updated_at
`

// WorkflowRepository handles workflow-related database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *WorkflowRepository) scanWorkflow(row rowScanner) (*models.Workflow, error) {
	var (
		workflow  models.Workflow
		nodesJSON []byte
	)

	err := row.Scan(&workflow.ID, &workflow.Name, &nodesJSON, &workflow.CreatedAt, &workflow.UpdatedAt)
	if err != nil {
		return nil, err
	}

	err = json.Unmarshal(nodesJSON, &workflow.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
	}

	workflow.Nodes = persistence.NormalizeNodes(workflow.Nodes)

	return &workflow, nil
}

// GetByID returns nil without an error when no workflow matches.
func (r *WorkflowRepository) GetByID(ctx context.Context, id string) (*models.Workflow, error) {
	query := `SELECT` + workflowColumns + `FROM workflows WHERE id = $1`

	workflow, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan workflow: %w", err)
	}

	return workflow, nil
}

// Save saves a workflow to the database.
func (r *WorkflowRepository) Save(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		return persistence.ErrWorkflowIDRequired
	}

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now
	workflow.Nodes = persistence.NormalizeNodes(workflow.Nodes)

	nodesJSON, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	query := `
		INSERT INTO workflows (id, name, nodes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			nodes = EXCLUDED.nodes,
			updated_at = EXCLUDED.updated_at
	`

	_, err = r.db.ExecContext(ctx, query, workflow.ID, workflow.Name, nodesJSON, workflow.CreatedAt, workflow.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to save workflow: %w", err)
	}

	return nil
}

// ReplaceNodes overwrites the node array in one statement and returns the updated row.
func (r *WorkflowRepository) ReplaceNodes(ctx context.Context, id string, nodes []*models.WorkflowNode) (*models.Workflow, error) {
	nodesJSON, err := json.Marshal(persistence.NormalizeNodes(nodes))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal nodes: %w", err)
	}

	query := `
		UPDATE workflows
		SET nodes = $2, updated_at = $3
		WHERE id = $1
		RETURNING` + workflowColumns

	workflow, err := r.scanWorkflow(r.db.QueryRowContext(ctx, query, id, nodesJSON, time.Now().UTC()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.ErrWorkflowNotFound
		}

		return nil, fmt.Errorf("failed to replace nodes: %w", err)
	}

	return workflow, nil
}

// PatchNode locks the workflow row, patches the matched node and writes the array back.
func (r *WorkflowRepository) PatchNode(ctx context.Context, id, nodeID string, patch persistence.NodeFieldsPatch) (*models.Workflow, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		if err != nil {
			rollbackErr := tx.Rollback()
			if rollbackErr != nil && !errors.Is(rollbackErr, sql.ErrTxDone) {
				r.logger.ErrorContext(ctx, "failed to rollback transaction", "error", rollbackErr)
			}
		}
	}()

	query := `SELECT` + workflowColumns + `FROM workflows WHERE id = $1 FOR UPDATE`

	workflow, err := r.scanWorkflow(tx.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = persistence.ErrWorkflowNotFound

			return nil, err
		}

		return nil, fmt.Errorf("failed to lock workflow: %w", err)
	}

	node := workflow.NodeByID(nodeID)
	if node == nil {
		err = persistence.ErrNodeNotFound

		return nil, err
	}

	patch.Apply(node)
	workflow.UpdatedAt = time.Now().UTC()

	nodesJSON, err := json.Marshal(workflow.Nodes)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal nodes: %w", err)
	}

	_, err = tx.ExecContext(ctx, `UPDATE workflows SET nodes = $2, updated_at = $3 WHERE id = $1`, id, nodesJSON, workflow.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to update node: %w", err)
	}

	err = tx.Commit()
	if err != nil {
		return nil, fmt.Errorf("failed to commit node update: %w", err)
	}

	return workflow, nil
}
