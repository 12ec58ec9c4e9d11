// Package web provides HTTP request and response types for the workflow node API.
package web

import (
	"time"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/services"
)

// ReplaceNodesRequest is the body of PUT /workflows/:id/nodes. The nodes become the
// complete node array of the workflow.
type ReplaceNodesRequest struct {
	Nodes []*models.WorkflowNode `json:"nodes" validate:"required"`
}

// PatchNodeRequest is the body of PATCH /workflows/:id/nodes, sent after a node ran.
type PatchNodeRequest struct {
	NodeID          string                 `json:"nodeId"          validate:"required"`
	OutputSchema    models.Schema          `json:"outputSchema"`
	ExecutionStatus models.ExecutionStatus `json:"executionStatus" validate:"omitempty,oneof=pending running completed failed"`
	LastExecutedAt  *time.Time             `json:"lastExecutedAt"`
}

func (r PatchNodeRequest) toService() services.PatchNodeRequest {
	return services.PatchNodeRequest{
		NodeID:          r.NodeID,
		OutputSchema:    r.OutputSchema,
		ExecutionStatus: r.ExecutionStatus,
		LastExecutedAt:  r.LastExecutedAt,
	}
}
