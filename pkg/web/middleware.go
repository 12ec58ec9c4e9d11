package web

import (
	"github.com/dukex/operion-builder/pkg/auth"
	"github.com/gofiber/fiber/v3"
)

const customerLocalsKey = "customer"

// AuthMiddleware reads the customer credential headers into the request locals.
// With required set, requests without a customer id or token are rejected.
func AuthMiddleware(required bool) fiber.Handler {
	return func(c fiber.Ctx) error {
		credentials := auth.Credentials{
			CustomerID:   c.Get(auth.HeaderCustomerID),
			CustomerName: c.Get(auth.HeaderCustomerName),
			Token:        c.Get(auth.HeaderToken),
		}

		if err := credentials.Validate(); err != nil {
			if required {
				return unauthorized(c, err.Error())
			}

			return c.Next()
		}

		c.Locals(customerLocalsKey, credentials)

		return c.Next()
	}
}

// CustomerFromLocals returns the credentials stored by AuthMiddleware.
func CustomerFromLocals(c fiber.Ctx) (auth.Credentials, bool) {
	credentials, ok := c.Locals(customerLocalsKey).(auth.Credentials)

	return credentials, ok
}
