// Package persistence provides the document store abstraction for workflow documents.
package persistence

import (
	"context"
	"time"

	"github.com/dukex/operion-builder/pkg/models"
)

// NodeFieldsPatch carries the three node fields an execution report may overwrite.
type NodeFieldsPatch struct {
	OutputSchema    models.Schema
	ExecutionStatus models.ExecutionStatus
	LastExecutedAt  *time.Time
}

// Apply writes the patch onto node, leaving every other field untouched.
func (p NodeFieldsPatch) Apply(node *models.WorkflowNode) {
	node.OutputSchema = p.OutputSchema
	node.ExecutionStatus = p.ExecutionStatus
	node.LastExecutedAt = p.LastExecutedAt
}

// Persistence is a key-value document store addressed by workflow id.
// Every mutating operation is atomic with respect to other updates of the same document.
type Persistence interface {
	// WorkflowByID returns ErrWorkflowNotFound when no document matches.
	WorkflowByID(ctx context.Context, id string) (*models.Workflow, error)

	// SaveWorkflow creates or overwrites a whole workflow document.
	SaveWorkflow(ctx context.Context, workflow *models.Workflow) error

	// ReplaceNodes replaces the whole node array and returns the updated document.
	ReplaceNodes(ctx context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error)

	// PatchNodeFields updates the matched node in place and returns the updated document.
	// It returns ErrWorkflowNotFound or ErrNodeNotFound without modifying anything on a miss.
	PatchNodeFields(ctx context.Context, workflowID, nodeID string, patch NodeFieldsPatch) (*models.Workflow, error)

	HealthCheck(ctx context.Context) error
	Close(ctx context.Context) error
}

// NormalizeNodes turns a nil node array into an empty one so documents always carry a list.
func NormalizeNodes(nodes []*models.WorkflowNode) []*models.WorkflowNode {
	if nodes == nil {
		return make([]*models.WorkflowNode, 0)
	}

	return nodes
}
