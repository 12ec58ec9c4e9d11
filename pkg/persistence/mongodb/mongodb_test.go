package mongodb_test

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/dukex/operion-builder/pkg/persistence/mongodb"
	"github.com/dukex/operion-builder/pkg/persistence/persistencetest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmongodb "github.com/testcontainers/testcontainers-go/modules/mongodb"
)

var mongoContainer *tcmongodb.MongoDBContainer

func TestMain(m *testing.M) {
	code := m.Run()

	if mongoContainer != nil {
		if err := testcontainers.TerminateContainer(mongoContainer); err != nil {
			slog.Error("Failed to terminate container", "error", err)
		}
	}

	os.Exit(code)
}

func setupTestDB(t *testing.T) (*mongodb.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping mongodb container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	if mongoContainer == nil || !mongoContainer.IsRunning() {
		var err error

		mongoContainer, err = tcmongodb.Run(ctx, "mongo:7")
		require.NoError(t, err)
	}

	endpoint, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// One database per test keeps documents isolated.
	databaseURL := strings.TrimSuffix(endpoint, "/") + "/builder_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))

	p, err := mongodb.NewPersistence(ctx, logger, databaseURL)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, p.Close(ctx))
		cancel()
	})

	return p, ctx
}

func TestPersistence_Suite(t *testing.T) {
	persistencetest.Run(t, func(t *testing.T) persistence.Persistence {
		p, _ := setupTestDB(t)

		return p
	})
}

func TestPersistence_ObjectIDWorkflow(t *testing.T) {
	p, ctx := setupTestDB(t)

	workflow := &models.Workflow{
		ID:    "507f1f77bcf86cd799439011",
		Name:  "Object ID",
		Nodes: []*models.WorkflowNode{{ID: "n1", Name: "First"}},
	}
	require.NoError(t, p.SaveWorkflow(ctx, workflow))

	updated, err := p.ReplaceNodes(ctx, workflow.ID, []*models.WorkflowNode{{ID: "n2", Name: "Second"}})
	require.NoError(t, err)
	assert.Equal(t, workflow.ID, updated.ID)
	require.Len(t, updated.Nodes, 1)
	assert.Equal(t, "n2", updated.Nodes[0].ID)
}
