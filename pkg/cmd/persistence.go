// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/dukex/operion-builder/pkg/persistence/file"
	"github.com/dukex/operion-builder/pkg/persistence/mongodb"
	"github.com/dukex/operion-builder/pkg/persistence/postgresql"
	"github.com/dukex/operion-builder/pkg/persistence/redis"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql", "mongodb", "mongodb+srv", "redis", "rediss"}

// NewPersistence opens the store named by the scheme of databaseURL. URLs without a
// known scheme are treated as a directory for file persistence.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)
	logger.InfoContext(ctx, "Opening persistence", "provider", provider)

	var (
		p   persistence.Persistence
		err error
	)

	switch provider {
	case "postgres", "postgresql":
		p, err = postgresql.NewPersistence(ctx, logger, databaseURL)
	case "mongodb", "mongodb+srv":
		p, err = mongodb.NewPersistence(ctx, logger, databaseURL)
	case "redis", "rediss":
		p, err = redis.NewPersistence(ctx, logger, databaseURL)
	default:
		p = file.NewPersistence(databaseURL)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open %s persistence: %w", provider, err)
	}

	return p, nil
}

func parsePersistenceProvider(databaseURL string) string {
	parts := strings.Split(databaseURL, "://")
	if len(parts) < 2 {
		return "file"
	}

	provider := parts[0]
	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
