// Package catalog is the client of the hosted integration catalog: integrations,
// customer connections, actions and field mappings.
package catalog

import (
	"context"
	"log/slog"

	"github.com/dukex/operion-builder/pkg/models"
)

// Client reads the integration catalog for the current customer.
type Client interface {
	ListIntegrations(ctx context.Context) ([]models.Integration, error)
	ListConnections(ctx context.Context) ([]models.Connection, error)
	ListActions(ctx context.Context, integrationKey string) ([]models.Action, error)
	GetAction(ctx context.Context, actionID string) (*models.Action, error)
	ListFieldMappings(ctx context.Context, integrationKey string) ([]models.FieldMapping, error)

	// OpenFieldMappingConfiguration returns the URL where the customer configures the mapping.
	OpenFieldMappingConfiguration(ctx context.Context, connectionID, mappingKey string) (string, error)
}

// FetchOrDefault runs fn and returns its result, or def when it fails. Failures are
// reported to sink and never retried.
func FetchOrDefault[T any](ctx context.Context, sink *slog.Logger, what string, fn func(context.Context) (T, error), def T) T {
	result, err := fn(ctx)
	if err != nil {
		if sink != nil {
			sink.WarnContext(ctx, "catalog fetch failed", "fetch", what, "error", err)
		}

		return def
	}

	return result
}
