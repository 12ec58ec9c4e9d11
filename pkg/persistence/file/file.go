// Package file provides file-based persistence implementation for workflow documents.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: NewWorkflowRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	workflow, err := fp.workflowRepo.GetByID(ctx, id)
	if err != nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, err)
	}

	if workflow == nil {
		return nil, persistence.NewWorkflowError("WorkflowByID", id, persistence.ErrWorkflowNotFound)
	}

	return workflow, nil
}

func (fp *Persistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	err := fp.workflowRepo.Save(ctx, workflow)
	if err != nil {
		return persistence.NewWorkflowError("SaveWorkflow", workflow.ID, err)
	}

	return nil
}

func (fp *Persistence) ReplaceNodes(ctx context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error) {
	workflow, err := fp.workflowRepo.Update(ctx, workflowID, func(w *models.Workflow) error {
		w.Nodes = nodes

		return nil
	})
	if err != nil {
		return nil, persistence.NewWorkflowError("ReplaceNodes", workflowID, err)
	}

	return workflow, nil
}

func (fp *Persistence) PatchNodeFields(ctx context.Context, workflowID, nodeID string, patch persistence.NodeFieldsPatch) (*models.Workflow, error) {
	workflow, err := fp.workflowRepo.Update(ctx, workflowID, func(w *models.Workflow) error {
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
