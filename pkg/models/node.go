package models

import (
	"errors"
	"fmt"
	"time"
)

// NodeType represents the role of a node in a workflow.
type NodeType string

const (
	NodeTypeTrigger NodeType = "trigger"
	NodeTypeAction  NodeType = "action" // Default for every node edited in the builder
)

// ExecutionStatus is the last known run status of a node, written by the executor.
type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"
)

// IsValid reports whether s is one of the known statuses. The empty status is valid.
func (s ExecutionStatus) IsValid() bool {
	switch s {
	case "", ExecutionStatusPending, ExecutionStatusRunning, ExecutionStatusCompleted, ExecutionStatusFailed:
		return true
	default:
		return false
	}
}

// Schema is an opaque JSON schema document.
type Schema map[string]any

// WorkflowNode is one step of a workflow bound to an integration connection and an action.
type WorkflowNode struct {
	ID              string          `json:"id"                        bson:"id"`
	Name            string          `json:"name"                      bson:"name"`
	Type            NodeType        `json:"type"                      bson:"type"`
	IntegrationKey  string          `json:"integrationKey"            bson:"integrationKey"`
	ConnectionID    string          `json:"connectionId"              bson:"connectionId"`
	ActionKey       string          `json:"actionKey"                 bson:"actionKey"`
	ActionID        string          `json:"actionId,omitempty"        bson:"actionId,omitempty"`
	InputMapping    any             `json:"inputMapping,omitempty"    bson:"inputMapping,omitempty"`
	OutputMapping   Schema          `json:"outputMapping,omitempty"   bson:"outputMapping,omitempty"`
	FlowKey         string          `json:"flowKey,omitempty"         bson:"flowKey,omitempty"`
	OutputSchema    Schema          `json:"outputSchema,omitempty"    bson:"outputSchema,omitempty"`
	ExecutionStatus ExecutionStatus `json:"executionStatus,omitempty" bson:"executionStatus,omitempty"`
	LastExecutedAt  *time.Time      `json:"lastExecutedAt,omitempty"  bson:"lastExecutedAt,omitempty"`
}

// NodeDraft is a node being edited, without its identifier.
type NodeDraft struct {
	Name           string   `json:"name"`
	Type           NodeType `json:"type"`
	IntegrationKey string   `json:"integrationKey"`
	ConnectionID   string   `json:"connectionId"`
	ActionKey      string   `json:"actionKey"`
	ActionID       string   `json:"actionId"`
	InputMapping   any      `json:"inputMapping"`
	OutputMapping  Schema   `json:"outputMapping,omitempty"`
	FlowKey        string   `json:"flowKey"`
}

// DraftFromNode seeds a draft from an existing node. The node type is always action.
func DraftFromNode(node *WorkflowNode) NodeDraft {
	return NodeDraft{
		Name:           node.Name,
		Type:           NodeTypeAction,
		IntegrationKey: node.IntegrationKey,
		ConnectionID:   node.ConnectionID,
		ActionKey:      node.ActionKey,
		ActionID:       node.ActionID,
		InputMapping:   node.InputMapping,
		OutputMapping:  node.OutputMapping,
		FlowKey:        node.FlowKey,
	}
}

// EmptyDraft is the draft used when a node is created from scratch.
func EmptyDraft() NodeDraft {
	return NodeDraft{
		Type:         NodeTypeAction,
		InputMapping: map[string]any{},
	}
}

// Apply copies the draft onto node, keeping its id and execution fields.
func (d NodeDraft) Apply(node *WorkflowNode) {
	node.Name = d.Name
	node.Type = d.Type
	node.IntegrationKey = d.IntegrationKey
	node.ConnectionID = d.ConnectionID
	node.ActionKey = d.ActionKey
	node.ActionID = d.ActionID
	node.InputMapping = d.InputMapping
	node.OutputMapping = d.OutputMapping
	node.FlowKey = d.FlowKey
}

// ToNode builds a new node with the given id from the draft.
func (d NodeDraft) ToNode(id string) *WorkflowNode {
	node := &WorkflowNode{ID: id}
	d.Apply(node)

	return node
}

var (
	ErrNodeIDRequired  = errors.New("node id is required")
	ErrDuplicateNodeID = errors.New("duplicate node id")
	ErrInvalidNodeType = errors.New("invalid node type")
	ErrInvalidStatus   = errors.New("invalid execution status")
)

// ValidateNodes rejects node arrays with missing or duplicate ids and unknown node types.
// Partial connection/action selections are stored as drafted.
func ValidateNodes(nodes []*WorkflowNode) error {
	seen := make(map[string]struct{}, len(nodes))

	for i, node := range nodes {
		if node == nil {
			return fmt.Errorf("node %d: %w", i, ErrNodeIDRequired)
		}

		if node.ID == "" {
			return fmt.Errorf("node %d: %w", i, ErrNodeIDRequired)
		}

		if _, ok := seen[node.ID]; ok {
			return fmt.Errorf("node %s: %w", node.ID, ErrDuplicateNodeID)
		}

		seen[node.ID] = struct{}{}

		switch node.Type {
		case "", NodeTypeAction, NodeTypeTrigger:
		default:
			return fmt.Errorf("node %s: %w: %q", node.ID, ErrInvalidNodeType, node.Type)
		}

		if !node.ExecutionStatus.IsValid() {
			return fmt.Errorf("node %s: %w: %q", node.ID, ErrInvalidStatus, node.ExecutionStatus)
		}
	}

	return nil
}
