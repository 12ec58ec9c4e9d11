package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const DefaultTokenTTL = 2 * time.Hour

var (
	ErrWorkspaceNotConfigured = errors.New("workspace key and secret are required")
	ErrInvalidToken           = errors.New("invalid token")
)

// TokenProvider supplies the bearer token used to call the integration catalog.
type TokenProvider interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a pre-issued token.
type StaticToken string

func (s StaticToken) Token(_ context.Context) (string, error) {
	if s == "" {
		return "", ErrMissingCredentials
	}

	return string(s), nil
}

// Claims identify the customer inside an integration token.
type Claims struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	jwt.RegisteredClaims
}

// TokenIssuer signs customer tokens with the workspace secret.
type TokenIssuer struct {
	workspaceKey    string
	workspaceSecret []byte
	ttl             time.Duration
	now             func() time.Time
}

func NewTokenIssuer(workspaceKey, workspaceSecret string) (*TokenIssuer, error) {
	if workspaceKey == "" || workspaceSecret == "" {
		return nil, ErrWorkspaceNotConfigured
	}

	return &TokenIssuer{
		workspaceKey:    workspaceKey,
		workspaceSecret: []byte(workspaceSecret),
		ttl:             DefaultTokenTTL,
		now:             time.Now,
	}, nil
}

// Issue returns an HS512 token for the customer, valid for two hours.
func (i *TokenIssuer) Issue(customerID, customerName string) (string, error) {
	if customerID == "" {
		return "", ErrMissingCredentials
	}

	now := i.now()
	claims := &Claims{
		ID:   customerID,
		Name: customerName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    i.workspaceKey,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString(i.workspaceSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Parse validates a token issued by this workspace and returns its claims.
func (i *TokenIssuer) Parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return i.workspaceSecret, nil
	}, jwt.WithIssuer(i.workspaceKey), jwt.WithTimeFunc(i.now))
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// CustomerTokenProvider issues a fresh token for one customer on every call.
type CustomerTokenProvider struct {
	Issuer       *TokenIssuer
	CustomerID   string
	CustomerName string
}

func (p CustomerTokenProvider) Token(_ context.Context) (string, error) {
	return p.Issuer.Issue(p.CustomerID, p.CustomerName)
}
