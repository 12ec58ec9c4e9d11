// Package web provides the HTTP handlers of the workflow node API.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dukex/operion-builder/pkg/auth"
	"github.com/dukex/operion-builder/pkg/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	workflowService *services.Workflow
	validator       *validator.Validate
	logger          *slog.Logger
}

func NewAPIHandlers(
	workflowService *services.Workflow,
	validator *validator.Validate,
	logger *slog.Logger,
) *APIHandlers {
	return &APIHandlers{
		workflowService: workflowService,
		validator:       validator,
		logger:          logger,
	}
}

// requestContext carries the customer resolved by the auth middleware.
func requestContext(c fiber.Ctx) context.Context {
	ctx := context.Context(c.Context())

	if customer, ok := CustomerFromLocals(c); ok {
		ctx = auth.WithCustomer(ctx, customer)
	}

	return ctx
}

func (h *APIHandlers) GetWorkflow(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	workflow, err := h.workflowService.FetchByID(requestContext(c), id)
	if err != nil {
		return h.handleServiceError(c, err, MessageWorkflowNotFound, "Failed to fetch workflow")
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) ReplaceNodes(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req ReplaceNodesRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, MessageInvalidJSON)
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.workflowService.ReplaceNodes(requestContext(c), id, req.Nodes)
	if err != nil {
		return h.handleServiceError(c, err, MessageWorkflowNotFound, MessageReplaceNodesFailed)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) PatchNode(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Workflow ID is required")
	}

	var req PatchNodeRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, MessageInvalidJSON)
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	workflow, err := h.workflowService.PatchNode(requestContext(c), id, req.toService())
	if err != nil {
		return h.handleServiceError(c, err, MessageWorkflowOrNodeNotFound, MessageUpdateOutputSchemaFailed)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	repositoryCheck, ok := h.workflowService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Operion Builder API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if ok {
		status = "healthy"
		message = "Operion Builder API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
