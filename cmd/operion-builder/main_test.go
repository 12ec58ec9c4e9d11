package main

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/operion-builder/pkg/catalog"
	"github.com/dukex/operion-builder/pkg/mocks"
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	workflow *models.Workflow
	replaced []*models.WorkflowNode

	reportedNode   string
	reportedStatus models.ExecutionStatus
	reportedSchema models.Schema
}

func (f *fakeAPI) Workflow(_ context.Context, workflowID string) (*models.Workflow, error) {
	if f.workflow == nil || f.workflow.ID != workflowID {
		return nil, errors.New("workflow not found")
	}

	return f.workflow, nil
}

func (f *fakeAPI) ReplaceNodes(_ context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error) {
	f.replaced = nodes

	return &models.Workflow{ID: workflowID, Nodes: nodes}, nil
}

func (f *fakeAPI) UpdateNodeOutputSchema(_ context.Context, workflowID, nodeID string, schema models.Schema, status models.ExecutionStatus) (*models.Workflow, error) {
	f.reportedNode = nodeID
	f.reportedStatus = status
	f.reportedSchema = schema

	return &models.Workflow{ID: workflowID}, nil
}

type memoryClipboard struct {
	text string
}

func (m *memoryClipboard) WriteAll(text string) error {
	m.text = text

	return nil
}

func testEnv(catalogClient *mocks.MockCatalog, api *fakeAPI) *env {
	return &env{logger: slog.Default(), catalog: catalogClient, api: api}
}

func TestListIntegrations(t *testing.T) {
	catalogClient := &mocks.MockCatalog{}
	catalogClient.On("ListIntegrations", mock.Anything).Return([]models.Integration{
		{Key: "slack", Name: "Slack", Connection: &models.Connection{ID: "conn1"}},
		{Key: "gmail", Name: "Gmail"},
	}, nil)

	var out bytes.Buffer
	require.NoError(t, listIntegrations(t.Context(), testEnv(catalogClient, nil), &out))

	assert.Contains(t, out.String(), "slack")
	assert.Contains(t, out.String(), "conn1")
	assert.Contains(t, out.String(), "gmail")
}

func TestListIntegrations_FailureShowsEmptyState(t *testing.T) {
	catalogClient := &mocks.MockCatalog{}
	catalogClient.On("ListIntegrations", mock.Anything).Return(nil, errors.New("unauthorized"))

	var out bytes.Buffer
	require.NoError(t, listIntegrations(t.Context(), testEnv(catalogClient, nil), &out))

	assert.Equal(t, "No integrations available\n", out.String())
}

func TestListActions_DefaultsToFirstIntegration(t *testing.T) {
	catalogClient := &mocks.MockCatalog{}
	catalogClient.On("ListIntegrations", mock.Anything).Return([]models.Integration{{Key: "hubspot"}, {Key: "slack"}}, nil)
	catalogClient.On("ListActions", mock.Anything, "hubspot").Return([]models.Action{
		{ID: "act-1", Key: "list-contacts", Name: "List Contacts", Config: map[string]any{"dataSource": map[string]any{"collectionKey": "contacts"}}},
	}, nil)

	var out bytes.Buffer
	require.NoError(t, listActions(t.Context(), testEnv(catalogClient, nil), &out, ""))

	assert.Contains(t, out.String(), "ACTIONS FOR hubspot")
	assert.Contains(t, out.String(), "List Contacts")
	assert.Contains(t, out.String(), "contacts")
}

func TestListActions_Empty(t *testing.T) {
	catalogClient := &mocks.MockCatalog{}
	catalogClient.On("ListActions", mock.Anything, "slack").Return(nil, errors.New("boom"))

	var out bytes.Buffer
	require.NoError(t, listActions(t.Context(), testEnv(catalogClient, nil), &out, "slack"))

	assert.Equal(t, "No actions available\n", out.String())
}

func TestShowActionSchemas(t *testing.T) {
	catalogClient := &mocks.MockCatalog{}
	catalogClient.On("GetAction", mock.Anything, "act-1").Return(&models.Action{
		ID:          "act-1",
		InputSchema: models.Schema{"type": "object", "properties": map[string]any{"channel": map[string]any{"type": "string"}}},
	}, nil)

	clip := &memoryClipboard{}

	var out bytes.Buffer
	require.NoError(t, showActionSchemas(t.Context(), testEnv(catalogClient, nil), &out, schemaOptions{
		actionID:  "act-1",
		copy:      "input",
		clipboard: clip,
	}))

	assert.Contains(t, out.String(), "Input Schema\n{")
	assert.Contains(t, out.String(), "Output Schema\nNo schema available\n")
	assert.Contains(t, out.String(), "Copied Input Schema to clipboard")
	assert.Contains(t, clip.text, `"channel"`)
}

func TestShowActionSchemas_Errors(t *testing.T) {
	catalogClient := &mocks.MockCatalog{}
	catalogClient.On("GetAction", mock.Anything, "gone").Return(nil, catalog.ErrActionNotFound)
	catalogClient.On("GetAction", mock.Anything, "broken").Return(nil, errors.New("boom"))

	e := testEnv(catalogClient, nil)

	var out bytes.Buffer
	require.NoError(t, showActionSchemas(t.Context(), e, &out, schemaOptions{actionID: "gone"}))
	assert.Equal(t, "Action not found or no longer available.\n", out.String())

	err := showActionSchemas(t.Context(), e, &out, schemaOptions{actionID: "broken"})
	require.Error(t, err)
	assert.Equal(t, "Failed to load action details. Please try again later.", err.Error())

	err = showActionSchemas(t.Context(), e, &out, schemaOptions{actionID: "gone", copy: "everything"})
	assert.ErrorIs(t, err, errUnknownSchema)
}
