package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dukex/operion-builder/pkg/events"
	"github.com/dukex/operion-builder/pkg/mocks"
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/nodeconfig"
	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/dukex/operion-builder/pkg/persistence/file"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedWorkflow(t *testing.T, p persistence.Persistence) *models.Workflow {
	t.Helper()

	workflow := &models.Workflow{
		ID:   "wf-1",
		Name: "Lead Sync",
		Nodes: []*models.WorkflowNode{
			{ID: "n1", Name: "Slack Send Message", Type: models.NodeTypeAction, IntegrationKey: "slack", ConnectionID: "c1", ActionKey: "send-message"},
		},
	}
	require.NoError(t, p.SaveWorkflow(t.Context(), workflow))

	return workflow
}

func TestNewWorkflow(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	service := NewWorkflow(p)

	assert.NotNil(t, service)
	assert.Equal(t, p, service.persistence)
	assert.Nil(t, service.publisher)
}

func TestWorkflow_HealthCheck(t *testing.T) {
	message, ok := NewWorkflow(file.NewPersistence(t.TempDir())).HealthCheck(t.Context())
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	message, ok = NewWorkflow(nil).HealthCheck(t.Context())
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer not initialized", message)
}

func TestWorkflow_ReplaceNodes(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	bus := &mocks.MockEventBus{}
	service := NewWorkflow(p, WithPublisher(bus))
	seedWorkflow(t, p)

	bus.On("Publish", mock.Anything, "wf-1", mock.MatchedBy(func(event *events.WorkflowNodesReplaced) bool {
		return event.WorkflowID == "wf-1" && len(event.NodeIDs) == 2
	})).Return(nil).Once()

	updated, err := service.ReplaceNodes(t.Context(), "wf-1", []*models.WorkflowNode{
		{ID: "n1", Name: "Renamed"},
		{ID: "n2", Name: "Gmail Send Email", IntegrationKey: "gmail", ConnectionID: "c2", ActionKey: "send-email"},
	})
	require.NoError(t, err)
	require.Len(t, updated.Nodes, 2)
	assert.Equal(t, "Renamed", updated.Nodes[0].Name)
	assert.Equal(t, models.NodeTypeAction, updated.Nodes[0].Type)

	bus.AssertExpectations(t)
}

func TestWorkflow_ReplaceNodes_InvalidNodes(t *testing.T) {
	p := &mocks.MockPersistence{}
	service := NewWorkflow(p)

	_, err := service.ReplaceNodes(t.Context(), "wf-1", []*models.WorkflowNode{{ID: "dup"}, {ID: "dup"}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidNodes)
	assert.ErrorIs(t, err, models.ErrDuplicateNodeID)
	assert.True(t, IsValidationError(err))

	p.AssertNotCalled(t, "ReplaceNodes", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflow_ReplaceNodes_StoresConfigureDraftWithoutAction(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	service := NewWorkflow(p)
	require.NoError(t, p.SaveWorkflow(t.Context(), &models.Workflow{
		ID:    "wf-1",
		Nodes: []*models.WorkflowNode{{ID: "n1", Name: "Draft", Type: models.NodeTypeAction}},
	}))

	catalogClient := &mocks.MockCatalog{}
	catalogClient.On("ListActions", mock.Anything, "slack").Return([]models.Action{{ID: "act-1", Key: "send-message"}}, nil)
	catalogClient.On("ListFieldMappings", mock.Anything, "slack").Return([]models.FieldMapping{}, nil)

	node := &models.WorkflowNode{ID: "n1", Name: "Draft", Type: models.NodeTypeAction}
	session, err := nodeconfig.NewSession(nodeconfig.Config{
		Catalog:     catalogClient,
		Mode:        nodeconfig.ModeConfigure,
		Node:        node,
		Connections: []models.Connection{{ID: "conn1", Name: "Slack", Integration: &models.Integration{Key: "slack"}}},
	})
	require.NoError(t, err)
	require.NoError(t, session.Open(t.Context()))
	require.NoError(t, session.SelectConnection("conn1"))
	session.Wait()

	require.True(t, session.CanSubmit())
	require.NoError(t, session.Submit(func(draft models.NodeDraft) { draft.Apply(node) }))

	updated, err := service.ReplaceNodes(t.Context(), "wf-1", []*models.WorkflowNode{node})
	require.NoError(t, err)
	require.Len(t, updated.Nodes, 1)
	assert.Equal(t, "conn1", updated.Nodes[0].ConnectionID)
	assert.Empty(t, updated.Nodes[0].ActionKey)
}

func TestWorkflow_ReplaceNodes_NotFound(t *testing.T) {
	service := NewWorkflow(file.NewPersistence(t.TempDir()))

	_, err := service.ReplaceNodes(t.Context(), "missing", []*models.WorkflowNode{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
	assert.False(t, IsValidationError(err))
}

func TestWorkflow_ReplaceNodes_PublishFailureIsNotFatal(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	bus := &mocks.MockEventBus{}
	service := NewWorkflow(p, WithPublisher(bus))
	seedWorkflow(t, p)

	bus.On("Publish", mock.Anything, "wf-1", mock.Anything).Return(errors.New("broker down"))

	updated, err := service.ReplaceNodes(t.Context(), "wf-1", []*models.WorkflowNode{})
	require.NoError(t, err)
	assert.Empty(t, updated.Nodes)
}

func TestWorkflow_PatchNode(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	bus := &mocks.MockEventBus{}
	service := NewWorkflow(p, WithPublisher(bus))
	seedWorkflow(t, p)

	bus.On("Publish", mock.Anything, "wf-1", mock.MatchedBy(func(event *events.WorkflowNodePatched) bool {
		return event.NodeID == "n1" && event.ExecutionStatus == models.ExecutionStatusCompleted && event.HasOutputSchema
	})).Return(nil).Once()

	executedAt := time.Now().UTC()

	updated, err := service.PatchNode(t.Context(), "wf-1", PatchNodeRequest{
		NodeID:          "n1",
		OutputSchema:    models.Schema{"type": "object", "properties": map[string]any{"ok": map[string]any{"type": "boolean"}}},
		ExecutionStatus: models.ExecutionStatusCompleted,
		LastExecutedAt:  &executedAt,
	})
	require.NoError(t, err)

	node := updated.NodeByID("n1")
	require.NotNil(t, node)
	assert.Equal(t, models.ExecutionStatusCompleted, node.ExecutionStatus)
	assert.Equal(t, "Slack Send Message", node.Name)

	bus.AssertExpectations(t)
}

func TestWorkflow_PatchNode_Validation(t *testing.T) {
	p := &mocks.MockPersistence{}
	service := NewWorkflow(p)

	testCases := []struct {
		name    string
		req     PatchNodeRequest
		wantErr error
	}{
		{
			name:    "missing node id",
			req:     PatchNodeRequest{ExecutionStatus: models.ExecutionStatusCompleted},
			wantErr: ErrInvalidRequest,
		},
		{
			name:    "unknown status",
			req:     PatchNodeRequest{NodeID: "n1", ExecutionStatus: "exploded"},
			wantErr: ErrInvalidStatus,
		},
		{
			name:    "schema that does not compile",
			req:     PatchNodeRequest{NodeID: "n1", OutputSchema: models.Schema{"type": "banana"}},
			wantErr: ErrInvalidOutputSchema,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := service.PatchNode(t.Context(), "wf-1", tc.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.wantErr)
			assert.True(t, IsValidationError(err))
		})
	}

	p.AssertNotCalled(t, "PatchNodeFields", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkflow_PatchNode_Misses(t *testing.T) {
	p := file.NewPersistence(t.TempDir())
	service := NewWorkflow(p)
	seedWorkflow(t, p)

	_, err := service.PatchNode(t.Context(), "wf-1", PatchNodeRequest{NodeID: "missing"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNodeNotFound)

	_, err = service.PatchNode(t.Context(), "missing", PatchNodeRequest{NodeID: "n1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}

func TestWorkflow_FetchByID(t *testing.T) {
	p := &mocks.MockPersistence{}
	service := NewWorkflow(p)

	p.On("WorkflowByID", mock.Anything, "wf-1").Return(&models.Workflow{ID: "wf-1"}, nil)
	p.On("WorkflowByID", mock.Anything, "missing").Return(nil, persistence.NewWorkflowError("WorkflowByID", "missing", persistence.ErrWorkflowNotFound))

	workflow, err := service.FetchByID(context.Background(), "wf-1")
	require.NoError(t, err)
	assert.Equal(t, "wf-1", workflow.ID)

	_, err = service.FetchByID(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrWorkflowNotFound)
}
