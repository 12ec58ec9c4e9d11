package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateNodes(t *testing.T) {
	testCases := []struct {
		name    string
		nodes   []*WorkflowNode
		wantErr error
	}{
		{
			name:  "empty array",
			nodes: []*WorkflowNode{},
		},
		{
			name: "unconfigured and configured nodes",
			nodes: []*WorkflowNode{
				{ID: "trigger-1", Name: "Start", Type: NodeTypeTrigger},
				{ID: "n1", Name: "Slack Send Message", Type: NodeTypeAction, IntegrationKey: "slack", ConnectionID: "conn1", ActionKey: "send-message"},
			},
		},
		{
			name:    "missing id",
			nodes:   []*WorkflowNode{{Name: "No ID"}},
			wantErr: ErrNodeIDRequired,
		},
		{
			name:    "nil node",
			nodes:   []*WorkflowNode{nil},
			wantErr: ErrNodeIDRequired,
		},
		{
			name: "duplicate id",
			nodes: []*WorkflowNode{
				{ID: "n1", Name: "A"},
				{ID: "n1", Name: "B"},
			},
			wantErr: ErrDuplicateNodeID,
		},
		{
			name:    "unknown type",
			nodes:   []*WorkflowNode{{ID: "n1", Type: "loop"}},
			wantErr: ErrInvalidNodeType,
		},
		{
			name:  "connection without action",
			nodes: []*WorkflowNode{{ID: "n1", Name: "Draft", IntegrationKey: "slack", ConnectionID: "conn1"}},
		},
		{
			name:  "placeholder action",
			nodes: []*WorkflowNode{{ID: "n1", IntegrationKey: "slack", ConnectionID: "conn1", ActionKey: "placeholder"}},
		},
		{
			name:    "unknown execution status",
			nodes:   []*WorkflowNode{{ID: "n1", ExecutionStatus: "exploded"}},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateNodes(tc.nodes)
			if tc.wantErr == nil {
				assert.NoError(t, err)

				return
			}

			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestWorkflowNode_JSONFieldNames(t *testing.T) {
	executedAt := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	node := &WorkflowNode{
		ID:              "n1",
		Name:            "Slack Send Message",
		Type:            NodeTypeAction,
		IntegrationKey:  "slack",
		ConnectionID:    "conn1",
		ActionKey:       "send-message",
		ActionID:        "act-1",
		OutputSchema:    Schema{"type": "object"},
		ExecutionStatus: ExecutionStatusCompleted,
		LastExecutedAt:  &executedAt,
	}

	data, err := json.Marshal(node)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))

	for _, key := range []string{"id", "name", "type", "integrationKey", "connectionId", "actionKey", "actionId", "outputSchema", "executionStatus", "lastExecutedAt"} {
		assert.Contains(t, raw, key)
	}

	assert.NotContains(t, raw, "outputMapping")
}

func TestNodeDraft_RoundTrip(t *testing.T) {
	executedAt := time.Now().UTC()
	node := &WorkflowNode{
		ID:              "n1",
		Name:            "Old",
		Type:            NodeTypeAction,
		IntegrationKey:  "slack",
		ConnectionID:    "conn1",
		ActionKey:       "send-message",
		ActionID:        "act-1",
		InputMapping:    map[string]any{"channel": "#general"},
		OutputMapping:   Schema{"type": "object"},
		ExecutionStatus: ExecutionStatusCompleted,
		LastExecutedAt:  &executedAt,
	}

	draft := DraftFromNode(node)
	draft.Name = "New"
	draft.Apply(node)

	assert.Equal(t, "n1", node.ID)
	assert.Equal(t, "New", node.Name)
	assert.Equal(t, ExecutionStatusCompleted, node.ExecutionStatus)
	assert.Equal(t, &executedAt, node.LastExecutedAt)

	created := EmptyDraft().ToNode("n2")
	assert.Equal(t, "n2", created.ID)
	assert.Equal(t, NodeTypeAction, created.Type)
	assert.Equal(t, map[string]any{}, created.InputMapping)
}

func TestWorkflow_NodeLookup(t *testing.T) {
	workflow := &Workflow{
		ID: "wf-1",
		Nodes: []*WorkflowNode{
			{ID: "a", Name: "A"},
			{ID: "b", Name: "B"},
		},
	}

	assert.Equal(t, "B", workflow.NodeByID("b").Name)
	assert.Nil(t, workflow.NodeByID("missing"))

	others := workflow.OtherNodes("a")
	require.Len(t, others, 1)
	assert.Equal(t, "b", others[0].ID)
}

func TestCatalogLabels(t *testing.T) {
	assert.Equal(t, "My Slack", (&Connection{Name: "My Slack", Integration: &Integration{Key: "slack"}}).Label())
	assert.Equal(t, "slack", (&Connection{Integration: &Integration{Key: "slack"}}).Label())
	assert.Empty(t, (*Connection)(nil).Label())

	assert.Equal(t, "send-message", (&Action{Key: "send-message"}).DisplayName())
	assert.Equal(t, "Send Message", (&Action{Key: "send-message", Name: "Send Message"}).DisplayName())

	action := &Action{Config: map[string]any{"dataSource": map[string]any{"collectionKey": "contacts"}}}
	assert.Equal(t, "contacts", action.CollectionKey())
	assert.Empty(t, (&Action{}).CollectionKey())
}
