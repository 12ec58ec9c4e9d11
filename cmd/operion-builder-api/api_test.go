package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/operion-builder/pkg/auth"
	"github.com/dukex/operion-builder/pkg/channels/gochannel"
	"github.com/dukex/operion-builder/pkg/eventbus"
	"github.com/dukex/operion-builder/pkg/events"
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/dukex/operion-builder/pkg/persistence/file"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seededPersistence(t *testing.T) persistence.Persistence {
	t.Helper()

	p := file.NewPersistence(t.TempDir())
	require.NoError(t, p.SaveWorkflow(t.Context(), &models.Workflow{
		ID:   "wf-1",
		Name: "Lead Sync",
		Nodes: []*models.WorkflowNode{
			{ID: "n1", Name: "Slack Send Message", Type: models.NodeTypeAction, IntegrationKey: "slack", ConnectionID: "conn1", ActionKey: "send-message"},
		},
	}))

	return p
}

func send(t *testing.T, app *fiber.App, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, body
}

func TestAPI_RootEndpoint(t *testing.T) {
	app := NewAPI(slog.Default(), seededPersistence(t), nil, nil, false).App()

	resp, body := send(t, app, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Operion Builder API", string(body))
}

func TestAPI_Liveness(t *testing.T) {
	app := NewAPI(slog.Default(), seededPersistence(t), nil, nil, false).App()

	resp, body := send(t, app, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", string(body))
}

func TestAPI_RequireAuth(t *testing.T) {
	app := NewAPI(slog.Default(), seededPersistence(t), nil, nil, true).App()

	resp, _ := send(t, app, httptest.NewRequest(http.MethodGet, "/workflows/wf-1", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/workflows/wf-1", nil)
	auth.Credentials{CustomerID: "cust-1", CustomerName: "Acme", Token: "tok"}.Apply(req)

	resp, body := send(t, app, req)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var workflow models.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.Equal(t, "wf-1", workflow.ID)
}

func TestAPI_ReplaceNodesPublishesEvent(t *testing.T) {
	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	received := make(chan *events.WorkflowNodesReplaced, 1)
	require.NoError(t, bus.Handle(events.WorkflowNodesReplacedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.WorkflowNodesReplaced)

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	app := NewAPI(slog.Default(), seededPersistence(t), bus, nil, false).App()

	payload, err := json.Marshal(map[string]any{"nodes": []map[string]any{{"id": "n9", "name": "Only"}}})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPut, "/workflows/wf-1/nodes", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	resp, _ := send(t, app, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	select {
	case event := <-received:
		assert.Equal(t, "wf-1", event.WorkflowID)
		assert.Equal(t, []string{"n9"}, event.NodeIDs)
	case <-time.After(2 * time.Second):
		t.Fatal("workflow.nodes.replaced was not published")
	}
}
