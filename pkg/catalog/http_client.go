package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/dukex/operion-builder/pkg/auth"
	"github.com/dukex/operion-builder/pkg/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const DefaultBaseURL = "https://api.integration.app"

var ErrActionNotFound = errors.New("action not found")

// StatusError is returned for non-2xx catalog responses.
type StatusError struct {
	Status int
	Path   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("catalog request %s failed with status %d", e.Path, e.Status)
}

// HTTPClient implements Client against the catalog REST API.
type HTTPClient struct {
	baseURL string
	tokens  auth.TokenProvider
	http    *http.Client
}

// NewHTTPClient returns a client for baseURL (DefaultBaseURL when empty) authenticated by tokens.
func NewHTTPClient(baseURL string, tokens auth.TokenProvider) *HTTPClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &HTTPClient{
		baseURL: baseURL,
		tokens:  tokens,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

func (c *HTTPClient) endpoint(elem ...string) (string, error) {
	endpoint, err := url.JoinPath(c.baseURL, elem...)
	if err != nil {
		return "", fmt.Errorf("failed to build catalog url: %w", err)
	}

	return endpoint, nil
}

func (c *HTTPClient) get(ctx context.Context, out any, elem ...string) error {
	endpoint, err := c.endpoint(elem...)
	if err != nil {
		return err
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("failed to obtain catalog token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create catalog request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("catalog request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, resp.Body)

		return &StatusError{Status: resp.StatusCode, Path: req.URL.Path}
	}

	err = json.NewDecoder(resp.Body).Decode(out)
	if err != nil {
		return fmt.Errorf("failed to decode catalog response: %w", err)
	}

	return nil
}

func list[T any](ctx context.Context, c *HTTPClient, elem ...string) ([]T, error) {
	var raw json.RawMessage

	err := c.get(ctx, &raw, elem...)
	if err != nil {
		return nil, err
	}

	return normalizeList[T](raw)
}

func (c *HTTPClient) ListIntegrations(ctx context.Context) ([]models.Integration, error) {
	return list[models.Integration](ctx, c, "integrations")
}

func (c *HTTPClient) ListConnections(ctx context.Context) ([]models.Connection, error) {
	return list[models.Connection](ctx, c, "connections")
}

func (c *HTTPClient) ListActions(ctx context.Context, integrationKey string) ([]models.Action, error) {
	return list[models.Action](ctx, c, "integrations", integrationKey, "actions")
}

func (c *HTTPClient) GetAction(ctx context.Context, actionID string) (*models.Action, error) {
	var action models.Action

	err := c.get(ctx, &action, "actions", actionID)
	if err != nil {
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.Status == http.StatusNotFound {
			return nil, errors.Join(ErrActionNotFound, err)
		}

		return nil, err
	}

	return &action, nil
}

func (c *HTTPClient) ListFieldMappings(ctx context.Context, integrationKey string) ([]models.FieldMapping, error) {
	return list[models.FieldMapping](ctx, c, "integrations", integrationKey, "field-mappings")
}

func (c *HTTPClient) OpenFieldMappingConfiguration(_ context.Context, connectionID, mappingKey string) (string, error) {
	return c.endpoint("connections", connectionID, "field-mappings", mappingKey, "configuration")
}
