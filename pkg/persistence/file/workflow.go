package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sync"
	"time"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
)

// WorkflowRepository handles workflow-related file operations.
type WorkflowRepository struct {
	root string // File system root for storing workflows
	mu   sync.Mutex
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(root string) *WorkflowRepository {
	return &WorkflowRepository{root: root}
}

func (wr *WorkflowRepository) dir() string {
	return path.Join(wr.root, "workflows")
}

func (wr *WorkflowRepository) filePath(workflowID string) string {
	return filepath.Clean(path.Join(wr.dir(), filepath.Base(workflowID)+".json"))
}

// GetByID retrieves a workflow by its ID from the file system.
func (wr *WorkflowRepository) GetByID(_ context.Context, workflowID string) (*models.Workflow, error) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	return wr.read(workflowID)
}

// Save saves a workflow to the file system.
func (wr *WorkflowRepository) Save(_ context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		return persistence.ErrWorkflowIDRequired
	}

	wr.mu.Lock()
	defer wr.mu.Unlock()

	now := time.Now().UTC()
	if workflow.CreatedAt.IsZero() {
		workflow.CreatedAt = now
	}

	workflow.UpdatedAt = now
	workflow.Nodes = persistence.NormalizeNodes(workflow.Nodes)

	return wr.write(workflow)
}

// Update loads a workflow, applies mutate and writes it back while holding the repository lock.
// Nothing is written when mutate fails.
func (wr *WorkflowRepository) Update(_ context.Context, workflowID string, mutate func(*models.Workflow) error) (*models.Workflow, error) {
	wr.mu.Lock()
	defer wr.mu.Unlock()

	workflow, err := wr.read(workflowID)
	if err != nil {
		return nil, err
	}

	if workflow == nil {
		return nil, persistence.ErrWorkflowNotFound
	}

	err = mutate(workflow)
	if err != nil {
		return nil, err
	}

	workflow.UpdatedAt = time.Now().UTC()
	workflow.Nodes = persistence.NormalizeNodes(workflow.Nodes)

	err = wr.write(workflow)
	if err != nil {
		return nil, err
	}

	return workflow, nil
}

func (wr *WorkflowRepository) read(workflowID string) (*models.Workflow, error) {
	body, err := os.ReadFile(wr.filePath(workflowID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", workflowID, err)
	}

	var workflow models.Workflow

	err = json.Unmarshal(body, &workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal workflow %s: %w", workflowID, err)
	}

	return &workflow, nil
}

// write replaces the document through a temp file and rename so readers never see a partial file.
func (wr *WorkflowRepository) write(workflow *models.Workflow) error {
	err := os.MkdirAll(wr.dir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create workflows directory: %w", err)
	}

	data, err := json.MarshalIndent(workflow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", workflow.ID, err)
	}

	tmp, err := os.CreateTemp(wr.dir(), workflow.ID+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for workflow %s: %w", workflow.ID, err)
	}

	_, err = tmp.Write(data)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to write workflow %s: %w", workflow.ID, err)
	}

	err = os.Rename(tmp.Name(), wr.filePath(workflow.ID))
	if err != nil {
		_ = os.Remove(tmp.Name())

		return fmt.Errorf("failed to store workflow %s: %w", workflow.ID, err)
	}

	return nil
}
