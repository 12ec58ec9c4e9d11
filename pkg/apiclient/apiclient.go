// Package apiclient calls the builder API on behalf of an authenticated customer.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dukex/operion-builder/pkg/auth"
	"github.com/dukex/operion-builder/pkg/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// StatusError carries the HTTP status of a failed call.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

type Client struct {
	baseURL     string
	credentials auth.Credentials
	http        *http.Client
	now         func() time.Time
}

func New(baseURL string, credentials auth.Credentials) *Client {
	return &Client{
		baseURL:     baseURL,
		credentials: credentials,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
}

// URL joins path elements onto the API base URL.
func (c *Client) URL(elem ...string) (string, error) {
	endpoint, err := url.JoinPath(c.baseURL, elem...)
	if err != nil {
		return "", fmt.Errorf("failed to build api url: %w", err)
	}

	return endpoint, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body any, failure string, out any) error {
	var reader io.Reader

	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}

		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.credentials.Apply(req)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)

		return &StatusError{Status: resp.StatusCode, Message: failure}
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Fetch performs an authenticated GET and decodes the JSON body into T.
func Fetch[T any](ctx context.Context, c *Client, endpoint string) (T, error) {
	var out T

	err := c.do(ctx, http.MethodGet, endpoint, nil, "An error occurred while fetching the data.", &out)

	return out, err
}

// Workflow returns the stored workflow document.
func (c *Client) Workflow(ctx context.Context, workflowID string) (*models.Workflow, error) {
	endpoint, err := c.URL("workflows", workflowID)
	if err != nil {
		return nil, err
	}

	return Fetch[*models.Workflow](ctx, c, endpoint)
}

type replaceNodesBody struct {
	Nodes []*models.WorkflowNode `json:"nodes"`
}

// ReplaceNodes stores nodes as the complete node array of the workflow.
func (c *Client) ReplaceNodes(ctx context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error) {
	endpoint, err := c.URL("workflows", workflowID, "nodes")
	if err != nil {
		return nil, err
	}

	if nodes == nil {
		nodes = []*models.WorkflowNode{}
	}

	var workflow models.Workflow

	err = c.do(ctx, http.MethodPut, endpoint, replaceNodesBody{Nodes: nodes}, "Failed to update workflow nodes", &workflow)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}

type patchNodeBody struct {
	NodeID          string                 `json:"nodeId"`
	OutputSchema    models.Schema          `json:"outputSchema"`
	ExecutionStatus models.ExecutionStatus `json:"executionStatus"`
	LastExecutedAt  time.Time              `json:"lastExecutedAt"`
}

// UpdateNodeOutputSchema reports an execution of one node. The status defaults to completed
// and the execution time is now.
func (c *Client) UpdateNodeOutputSchema(ctx context.Context, workflowID, nodeID string, schema models.Schema, status models.ExecutionStatus) (*models.Workflow, error) {
	endpoint, err := c.URL("workflows", workflowID, "nodes")
	if err != nil {
		return nil, err
	}

	if status == "" {
		status = models.ExecutionStatusCompleted
	}

	body := patchNodeBody{
		NodeID:          nodeID,
		OutputSchema:    schema,
		ExecutionStatus: status,
		LastExecutedAt:  c.now().UTC(),
	}

	var workflow models.Workflow

	err = c.do(ctx, http.MethodPatch, endpoint, body, "Failed to update node output schema", &workflow)
	if err != nil {
		return nil, err
	}

	return &workflow, nil
}
