// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/google/uuid"
)

// CreateTestNode creates an action node bound to a Slack connection. Overrides run in order.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:             uuid.New().String(),
		Name:           "Slack Send Message",
		Type:           models.NodeTypeAction,
		IntegrationKey: "slack",
		ConnectionID:   "conn-slack",
		ActionKey:      "send-message",
		InputMapping:   map[string]any{},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithTriggerNode configures the node as a trigger on a HubSpot lead event.
func WithTriggerNode() func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Type = models.NodeTypeTrigger
		n.Name = "New Lead"
		n.IntegrationKey = "hubspot"
		n.ConnectionID = "conn-hubspot"
		n.ActionKey = "lead-created"
		n.InputMapping = nil
	}
}

// WithUnbound clears the connection and action selection.
func WithUnbound() func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.IntegrationKey = ""
		n.ConnectionID = ""
		n.ActionKey = ""
		n.ActionID = ""
	}
}

func WithName(name string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Name = name
	}
}

func WithID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

func WithActionID(actionID string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ActionID = actionID
	}
}

func WithInputMapping(input any) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.InputMapping = input
	}
}

func WithOutputMapping(schema models.Schema) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.OutputMapping = schema
	}
}

// CreateTestWorkflow creates a workflow without nodes.
func CreateTestWorkflow() *models.Workflow {
	return &models.Workflow{
		ID:    uuid.New().String(),
		Name:  "Lead Sync",
		Nodes: []*models.WorkflowNode{},
	}
}

// CreateTestWorkflowWithNodes creates a workflow with a trigger followed by a Slack action.
func CreateTestWorkflowWithNodes() *models.Workflow {
	workflow := CreateTestWorkflow()

	triggerNode := CreateTestNode(WithTriggerNode(), WithID("trigger-1"), WithOutputMapping(models.Schema{"type": "object"}))
	actionNode := CreateTestNode(
		WithID("action-1"),
		WithActionID("act-send"),
		WithInputMapping(map[string]any{"channel": "#sales"}),
	)

	workflow.Nodes = []*models.WorkflowNode{triggerNode, actionNode}

	return workflow
}
