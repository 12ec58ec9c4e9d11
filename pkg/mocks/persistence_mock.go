// Package mocks holds testify mocks for the builder's interfaces.
package mocks

import (
	"context"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockPersistence is a mock implementation of persistence.Persistence interface.
type MockPersistence struct {
	mock.Mock
}

func (m *MockPersistence) WorkflowByID(ctx context.Context, id string) (*models.Workflow, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockPersistence) SaveWorkflow(ctx context.Context, workflow *models.Workflow) error {
	args := m.Called(ctx, workflow)

	return args.Error(0)
}

func (m *MockPersistence) ReplaceNodes(ctx context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error) {
	args := m.Called(ctx, workflowID, nodes)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockPersistence) PatchNodeFields(ctx context.Context, workflowID, nodeID string, patch persistence.NodeFieldsPatch) (*models.Workflow, error) {
	args := m.Called(ctx, workflowID, nodeID, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Workflow), args.Error(1)
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
