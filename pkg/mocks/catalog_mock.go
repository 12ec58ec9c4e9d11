package mocks

import (
	"context"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/stretchr/testify/mock"
)

// MockCatalog is a mock implementation of catalog.Client interface.
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) ListIntegrations(ctx context.Context) ([]models.Integration, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Integration), args.Error(1)
}

func (m *MockCatalog) ListConnections(ctx context.Context) ([]models.Connection, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Connection), args.Error(1)
}

func (m *MockCatalog) ListActions(ctx context.Context, integrationKey string) ([]models.Action, error) {
	args := m.Called(ctx, integrationKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.Action), args.Error(1)
}

func (m *MockCatalog) GetAction(ctx context.Context, actionID string) (*models.Action, error) {
	args := m.Called(ctx, actionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.Action), args.Error(1)
}

func (m *MockCatalog) ListFieldMappings(ctx context.Context, integrationKey string) ([]models.FieldMapping, error) {
	args := m.Called(ctx, integrationKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]models.FieldMapping), args.Error(1)
}

func (m *MockCatalog) OpenFieldMappingConfiguration(ctx context.Context, connectionID, mappingKey string) (string, error) {
	args := m.Called(ctx, connectionID, mappingKey)

	return args.String(0), args.Error(1)
}
