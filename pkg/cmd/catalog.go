package cmd

import (
	"context"

	"github.com/dukex/operion-builder/pkg/auth"
	"github.com/dukex/operion-builder/pkg/catalog"
)

// CatalogConfig selects how the catalog client authenticates. A static token wins over
// signing one from the workspace key and secret.
type CatalogConfig struct {
	BaseURL         string
	Token           string
	WorkspaceKey    string
	WorkspaceSecret string
	Customer        auth.Credentials
}

func NewCatalogClient(cfg CatalogConfig) (*catalog.HTTPClient, error) {
	tokens, err := newTokenProvider(cfg)
	if err != nil {
		return nil, err
	}

	return catalog.NewHTTPClient(cfg.BaseURL, tokens), nil
}

func newTokenProvider(cfg CatalogConfig) (auth.TokenProvider, error) {
	if cfg.Token != "" {
		return auth.StaticToken(cfg.Token), nil
	}

	issuer, err := auth.NewTokenIssuer(cfg.WorkspaceKey, cfg.WorkspaceSecret)
	if err != nil {
		return nil, err
	}

	return auth.CustomerTokenProvider{
		Issuer:       issuer,
		CustomerID:   cfg.Customer.CustomerID,
		CustomerName: cfg.Customer.CustomerName,
	}, nil
}

// ResolveToken returns the token sent to the builder API: the static token, or one
// signed for the customer.
func ResolveToken(ctx context.Context, cfg CatalogConfig) (string, error) {
	tokens, err := newTokenProvider(cfg)
	if err != nil {
		return "", err
	}

	return tokens.Token(ctx)
}
