// Package postgresql provides PostgreSQL persistence implementation for workflow documents.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/dukex/operion-builder/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	workflowRepo *WorkflowRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	postgres := &Persistence{
		db:           database,
		logger:       logger,
		workflowRepo: NewWorkflowRepository(database, logger),
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// WorkflowByID returns a workflow by its ID.
func (p *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := p.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

// SaveWorkflow creates or overwrites a workflow document.
func (p *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	err := p.workflowRepo.Save(ctx, workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

// ReplaceNodes replaces the node array with a single UPDATE.
func (p *Persistence) ReplaceNodes(ctx context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error) {
	workflow, err := p.workflowRepo.ReplaceNodes(ctx, workflowID, nodes)
	if err != nil {
		return nil, persistence.NewWorkflowError("ReplaceNodes", workflowID, err)
	}

	return workflow, nil
}

// PatchNodeFields updates one node under a row lock.
func (p *Persistence) PatchNodeFields(ctx context.Context, workflowID, nodeID string, patch persistence.NodeFieldsPatch) (*models.Workflow, error) {
	workflow, err := p.workflowRepo.PatchNode(ctx, workflowID, nodeID, patch)
	if err != nil {
		return nil, persistence.NewNodeError("PatchNodeFields", workflowID, nodeID, err)
	}

	return workflow, nil
}
