package apiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukex/operion-builder/pkg/auth"
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCredentials = auth.Credentials{CustomerID: "cust-1", CustomerName: "Acme", Token: "tok"}

func TestNew_NoClientTimeout(t *testing.T) {
	client := New("http://localhost:3000", testCredentials)

	assert.Zero(t, client.http.Timeout)
}

func TestFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "cust-1", r.Header.Get("x-auth-id"))
		assert.Equal(t, "Acme", r.Header.Get("x-customer-name"))
		assert.Equal(t, "tok", r.Header.Get("token"))

		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		_, _ = w.Write([]byte(`{"id":"wf-1","name":"Lead Sync","nodes":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, testCredentials)

	workflow, err := Fetch[models.Workflow](t.Context(), client, server.URL+"/workflows/wf-1")
	require.NoError(t, err)
	assert.Equal(t, "Lead Sync", workflow.Name)

	_, err = Fetch[models.Workflow](t.Context(), client, server.URL+"/missing")

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Status)
	assert.Equal(t, "An error occurred while fetching the data.", statusErr.Message)
}

func TestClient_UpdateNodeOutputSchema(t *testing.T) {
	now := time.Date(2025, 5, 6, 7, 8, 9, 0, time.FixedZone("BRT", -3*60*60))

	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/workflows/wf-1/nodes", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "tok", r.Header.Get("token"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		_, _ = w.Write([]byte(`{"id":"wf-1","nodes":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, testCredentials)
	client.now = func() time.Time { return now }

	_, err := client.UpdateNodeOutputSchema(t.Context(), "wf-1", "n1", models.Schema{"type": "object"}, "")
	require.NoError(t, err)

	assert.Equal(t, "n1", received["nodeId"])
	assert.Equal(t, "completed", received["executionStatus"])
	assert.Equal(t, "2025-05-06T10:08:09Z", received["lastExecutedAt"])
	assert.Equal(t, map[string]any{"type": "object"}, received["outputSchema"])
}

func TestClient_UpdateNodeOutputSchema_Failure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := New(server.URL, testCredentials).UpdateNodeOutputSchema(t.Context(), "wf-1", "n1", nil, models.ExecutionStatusFailed)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Status)
	assert.Equal(t, "Failed to update node output schema", statusErr.Message)
}

func TestClient_ReplaceNodes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/workflows/wf-1/nodes", r.URL.Path)

		var body struct {
			Nodes []*models.WorkflowNode `json:"nodes"`
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.NotNil(t, body.Nodes)

		_ = json.NewEncoder(w).Encode(models.Workflow{ID: "wf-1", Nodes: body.Nodes})
	}))
	defer server.Close()

	client := New(server.URL, testCredentials)

	workflow, err := client.ReplaceNodes(t.Context(), "wf-1", nil)
	require.NoError(t, err)
	assert.Empty(t, workflow.Nodes)

	workflow, err = client.ReplaceNodes(t.Context(), "wf-1", []*models.WorkflowNode{{ID: "n1", Name: "Slack Send Message"}})
	require.NoError(t, err)
	require.Len(t, workflow.Nodes, 1)
	assert.Equal(t, "Slack Send Message", workflow.Nodes[0].Name)
}

func TestClient_Workflow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/workflows/wf-1", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"wf-1","nodes":[{"id":"n1","name":"A"}]}`))
	}))
	defer server.Close()

	workflow, err := New(server.URL, testCredentials).Workflow(t.Context(), "wf-1")
	require.NoError(t, err)
	require.Len(t, workflow.Nodes, 1)
	assert.Equal(t, "A", workflow.Nodes[0].Name)
}
