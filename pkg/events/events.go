// Package events defines the notifications emitted when workflow node documents change.
package events

import (
	"time"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/google/uuid"
)

type EventType string

// Topic carries every builder event.
const Topic = "operion.builder.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	WorkflowNodesReplacedEvent EventType = "workflow.nodes.replaced"
	WorkflowNodePatchedEvent   EventType = "workflow.node.patched"
)

type BaseEvent struct {
	ID         string         `json:"id"`
	Type       EventType      `json:"type"`
	Timestamp  time.Time      `json:"timestamp"`
	WorkflowID string         `json:"workflow_id"`
	CustomerID string         `json:"customer_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// WorkflowNodesReplaced is published after the whole node array of a workflow was replaced.
type WorkflowNodesReplaced struct {
	BaseEvent

	NodeIDs []string `json:"node_ids"`
}

func (e WorkflowNodesReplaced) GetType() EventType {
	return WorkflowNodesReplacedEvent
}

// NewWorkflowNodesReplaced builds the event from the stored node array.
func NewWorkflowNodesReplaced(workflowID string, nodes []*models.WorkflowNode) *WorkflowNodesReplaced {
	ids := make([]string, 0, len(nodes))
	for _, node := range nodes {
		ids = append(ids, node.ID)
	}

	return &WorkflowNodesReplaced{
		BaseEvent: NewBaseEvent(WorkflowNodesReplacedEvent, workflowID),
		NodeIDs:   ids,
	}
}

// WorkflowNodePatched is published after an execution report updated one node.
type WorkflowNodePatched struct {
	BaseEvent

	NodeID          string                 `json:"node_id"`
	ExecutionStatus models.ExecutionStatus `json:"execution_status,omitempty"`
	LastExecutedAt  *time.Time             `json:"last_executed_at,omitempty"`
	HasOutputSchema bool                   `json:"has_output_schema"`
}

func (e WorkflowNodePatched) GetType() EventType {
	return WorkflowNodePatchedEvent
}

// NewWorkflowNodePatched builds the event from the patched node.
func NewWorkflowNodePatched(workflowID string, node *models.WorkflowNode) *WorkflowNodePatched {
	return &WorkflowNodePatched{
		BaseEvent:       NewBaseEvent(WorkflowNodePatchedEvent, workflowID),
		NodeID:          node.ID,
		ExecutionStatus: node.ExecutionStatus,
		LastExecutedAt:  node.LastExecutedAt,
		HasOutputSchema: len(node.OutputSchema) > 0,
	}
}
