package web

import (
	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/dukex/operion-builder/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/moogar0880/problems"
)

const (
	MessageWorkflowNotFound         = "Workflow not found"
	MessageWorkflowOrNodeNotFound   = "Workflow or node not found"
	MessageReplaceNodesFailed       = "Failed to update workflow nodes"
	MessageUpdateOutputSchemaFailed = "Failed to update node output schema"
	MessageInvalidJSON              = "Invalid JSON format"
)

// ErrorResponse is a problem document that also carries the plain error message
// clients of the node endpoints read.
type ErrorResponse struct {
	*problems.Problem

	Error string `json:"error"`
}

func problem(c fiber.Ctx, status int, problemType, message string) error {
	return c.Status(status).JSON(ErrorResponse{
		Problem: problems.NewStatusProblem(status).
			WithInstance(c.Path()).
			WithType(problemType).
			WithDetail(message),
		Error: message,
	})
}

func badRequest(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusBadRequest, "validation_error", detail)
}

func notFound(c fiber.Ctx, message string) error {
	return problem(c, fiber.StatusNotFound, "not_found", message)
}

func unauthorized(c fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusUnauthorized, "unauthorized", detail)
}

// internalError never exposes err to the client.
func internalError(c fiber.Ctx, message string) error {
	return problem(c, fiber.StatusInternalServerError, "internal_error", message)
}

// handleServiceError maps service errors to responses. notFoundMessage and failureMessage
// are the endpoint specific texts for a missing document and an unexpected failure.
func (h *APIHandlers) handleServiceError(c fiber.Ctx, err error, notFoundMessage, failureMessage string) error {
	switch {
	case services.IsValidationError(err):
		return badRequest(c, err.Error())
	case persistence.IsNotFound(err):
		return notFound(c, notFoundMessage)
	default:
		h.logger.ErrorContext(c.Context(), failureMessage, "path", c.Path(), "error", err)

		return internalError(c, failureMessage)
	}
}
