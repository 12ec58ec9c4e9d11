// Package auth carries the customer identity sent with every builder request and
// signs the tokens used against the integration catalog.
package auth

import (
	"context"
	"errors"
	"net/http"
)

const (
	HeaderCustomerID   = "x-auth-id"
	HeaderCustomerName = "x-customer-name"
	HeaderToken        = "token"
)

var ErrMissingCredentials = errors.New("missing customer credentials")

// Credentials identify the customer a request is made for.
type Credentials struct {
	CustomerID   string
	CustomerName string
	Token        string
}

// Headers returns the request headers carrying the credentials.
func (c Credentials) Headers() map[string]string {
	return map[string]string{
		HeaderCustomerID:   c.CustomerID,
		HeaderCustomerName: c.CustomerName,
		HeaderToken:        c.Token,
	}
}

// Apply sets the credential headers on req.
func (c Credentials) Apply(req *http.Request) {
	for key, value := range c.Headers() {
		req.Header.Set(key, value)
	}
}

// Validate requires a customer id and a token.
func (c Credentials) Validate() error {
	if c.CustomerID == "" || c.Token == "" {
		return ErrMissingCredentials
	}

	return nil
}

type customerKey struct{}

// WithCustomer stores the request customer in ctx.
func WithCustomer(ctx context.Context, credentials Credentials) context.Context {
	return context.WithValue(ctx, customerKey{}, credentials)
}

// CustomerFromContext returns the customer stored by WithCustomer.
func CustomerFromContext(ctx context.Context) (Credentials, bool) {
	credentials, ok := ctx.Value(customerKey{}).(Credentials)

	return credentials, ok
}
