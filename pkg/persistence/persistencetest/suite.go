// Package persistencetest holds the behaviour every persistence backend must share.
package persistencetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/dukex/operion-builder/pkg/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for one sub-test.
type Factory func(t *testing.T) persistence.Persistence

// NewWorkflowID returns an identifier every backend accepts.
func NewWorkflowID() string {
	return uuid.New().String()
}

// SeedWorkflow stores a workflow with a trigger and an action node.
func SeedWorkflow(ctx context.Context, t *testing.T, p persistence.Persistence) *models.Workflow {
	t.Helper()

	workflow := testutil.CreateTestWorkflowWithNodes()
	workflow.ID = NewWorkflowID()

	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	return workflow
}

// Run executes the shared behaviour suite against the backend built by factory.
func Run(t *testing.T, factory Factory) {
	t.Helper()

	t.Run("WorkflowByID not found", func(t *testing.T) {
		p := factory(t)

		_, err := p.WorkflowByID(t.Context(), NewWorkflowID())
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("save and fetch", func(t *testing.T) {
		p := factory(t)
		ctx := t.Context()
		seeded := SeedWorkflow(ctx, t, p)

		fetched, err := p.WorkflowByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, seeded.ID, fetched.ID)
		assert.Equal(t, "Lead Sync", fetched.Name)
		require.Len(t, fetched.Nodes, 2)
		assert.Equal(t, "trigger-1", fetched.Nodes[0].ID)
		assert.Equal(t, "#sales", fetched.Nodes[1].InputMapping.(map[string]any)["channel"])
	})

	t.Run("ReplaceNodes replaces whole array", func(t *testing.T) {
		p := factory(t)
		ctx := t.Context()
		seeded := SeedWorkflow(ctx, t, p)

		nodes := []*models.WorkflowNode{
			{ID: "action-2", Name: "Gmail Send Email", Type: models.NodeTypeAction},
		}

		updated, err := p.ReplaceNodes(ctx, seeded.ID, nodes)
		require.NoError(t, err)
		require.Len(t, updated.Nodes, 1)
		assert.Equal(t, "action-2", updated.Nodes[0].ID)

		fetched, err := p.WorkflowByID(ctx, seeded.ID)
		require.NoError(t, err)
		require.Len(t, fetched.Nodes, 1)
		assert.Equal(t, "Gmail Send Email", fetched.Nodes[0].Name)
		assert.Equal(t, "Lead Sync", fetched.Name)
	})

	t.Run("ReplaceNodes with empty array", func(t *testing.T) {
		p := factory(t)
		ctx := t.Context()
		seeded := SeedWorkflow(ctx, t, p)

		updated, err := p.ReplaceNodes(ctx, seeded.ID, nil)
		require.NoError(t, err)
		assert.NotNil(t, updated.Nodes)
		assert.Empty(t, updated.Nodes)
	})

	t.Run("ReplaceNodes unknown workflow", func(t *testing.T) {
		p := factory(t)

		_, err := p.ReplaceNodes(t.Context(), NewWorkflowID(), []*models.WorkflowNode{{ID: "a"}})
		require.Error(t, err)
		assert.True(t, persistence.IsWorkflowNotFound(err))
	})

	t.Run("PatchNodeFields updates only the three fields of the matched node", func(t *testing.T) {
		p := factory(t)
		ctx := t.Context()
		seeded := SeedWorkflow(ctx, t, p)
		executedAt := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)

		updated, err := p.PatchNodeFields(ctx, seeded.ID, "action-1", persistence.NodeFieldsPatch{
			OutputSchema:    models.Schema{"type": "object", "properties": map[string]any{"ts": map[string]any{"type": "string"}}},
			ExecutionStatus: models.ExecutionStatusCompleted,
			LastExecutedAt:  &executedAt,
		})
		require.NoError(t, err)

		patched := updated.NodeByID("action-1")
		require.NotNil(t, patched)
		assert.Equal(t, models.ExecutionStatusCompleted, patched.ExecutionStatus)
		require.NotNil(t, patched.LastExecutedAt)
		assert.True(t, executedAt.Equal(*patched.LastExecutedAt))
		assert.Equal(t, "object", patched.OutputSchema["type"])
		assert.Equal(t, "Slack Send Message", patched.Name)
		assert.Equal(t, "send-message", patched.ActionKey)
		assert.Equal(t, "act-send", patched.ActionID)

		untouched := updated.NodeByID("trigger-1")
		require.NotNil(t, untouched)
		assert.Empty(t, untouched.ExecutionStatus)
		assert.Nil(t, untouched.LastExecutedAt)
		assert.Nil(t, untouched.OutputSchema)

		fetched, err := p.WorkflowByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ExecutionStatusCompleted, fetched.NodeByID("action-1").ExecutionStatus)
	})

	t.Run("PatchNodeFields unknown node leaves document unmodified", func(t *testing.T) {
		p := factory(t)
		ctx := t.Context()
		seeded := SeedWorkflow(ctx, t, p)

		before, err := p.WorkflowByID(ctx, seeded.ID)
		require.NoError(t, err)

		_, err = p.PatchNodeFields(ctx, seeded.ID, "missing-node", persistence.NodeFieldsPatch{
			ExecutionStatus: models.ExecutionStatusFailed,
		})
		require.Error(t, err)
		assert.True(t, persistence.IsNodeNotFound(err))

		after, err := p.WorkflowByID(ctx, seeded.ID)
		require.NoError(t, err)
		assert.Equal(t, before.Nodes, after.Nodes)
	})

	t.Run("PatchNodeFields unknown workflow", func(t *testing.T) {
		p := factory(t)

		_, err := p.PatchNodeFields(t.Context(), NewWorkflowID(), "action-1", persistence.NodeFieldsPatch{})
		require.Error(t, err)
		assert.True(t, persistence.IsNotFound(err))
	})

	t.Run("concurrent patches of different nodes are not lost", func(t *testing.T) {
		p := factory(t)
		ctx := t.Context()
		seeded := SeedWorkflow(ctx, t, p)

		var wg sync.WaitGroup

		for _, nodeID := range []string{"trigger-1", "action-1"} {
			wg.Add(1)

			go func(nodeID string) {
				defer wg.Done()

				_, err := p.PatchNodeFields(ctx, seeded.ID, nodeID, persistence.NodeFieldsPatch{
					ExecutionStatus: models.ExecutionStatusRunning,
				})
				assert.NoError(t, err)
			}(nodeID)
		}

		wg.Wait()

		fetched, err := p.WorkflowByID(ctx, seeded.ID)
		require.NoError(t, err)

		for _, node := range fetched.Nodes {
			assert.Equal(t, models.ExecutionStatusRunning, node.ExecutionStatus, node.ID)
		}
	})

	t.Run("HealthCheck", func(t *testing.T) {
		p := factory(t)
		assert.NoError(t, p.HealthCheck(t.Context()))
	})
}
