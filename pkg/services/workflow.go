package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/operion-builder/pkg/eventbus"
	"github.com/dukex/operion-builder/pkg/events"
	"github.com/dukex/operion-builder/pkg/models"
	"github.com/dukex/operion-builder/pkg/otelhelper"
	"github.com/dukex/operion-builder/pkg/persistence"
	"github.com/xeipuuv/gojsonschema"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	// ErrWorkflowNotFound is returned when a workflow is not found.
	ErrWorkflowNotFound = persistence.ErrWorkflowNotFound

	// ErrNodeNotFound is returned when the workflow exists but holds no node with the given id.
	ErrNodeNotFound = persistence.ErrNodeNotFound
)

// Workflow edits the node arrays of stored workflows.
type Workflow struct {
	persistence persistence.Persistence
	publisher   eventbus.EventPublisher
	tracer      trace.Tracer
	logger      *slog.Logger
}

// Option customizes a Workflow service.
type Option func(*Workflow)

// WithPublisher publishes a builder event after each successful mutation.
func WithPublisher(publisher eventbus.EventPublisher) Option {
	return func(w *Workflow) {
		w.publisher = publisher
	}
}

// WithTracer wraps every operation in a span.
func WithTracer(tracer trace.Tracer) Option {
	return func(w *Workflow) {
		w.tracer = tracer
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		w.logger = logger
	}
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(persistence persistence.Persistence, opts ...Option) *Workflow {
	w := &Workflow{
		persistence: persistence,
		tracer:      otelhelper.NoopTracer(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	if w.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := w.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// FetchByID returns the workflow document.
func (w *Workflow) FetchByID(ctx context.Context, id string) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.fetch", attribute.String(otelhelper.WorkflowIDKey, id))
	defer span.End()

	workflow, err := w.persistence.WorkflowByID(ctx, id)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to fetch workflow: %w", err)
	}

	return workflow, nil
}

// ReplaceNodes stores nodes as the complete node array of the workflow.
func (w *Workflow) ReplaceNodes(ctx context.Context, workflowID string, nodes []*models.WorkflowNode) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.replace_nodes",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.Int(otelhelper.NodeCountKey, len(nodes)),
	)
	defer span.End()

	for _, node := range nodes {
		if node != nil && node.Type == "" {
			node.Type = models.NodeTypeAction
		}
	}

	err := models.ValidateNodes(nodes)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, NewValidationError("ReplaceNodes", "INVALID_NODES", err.Error(), errors.Join(ErrInvalidNodes, err))
	}

	workflow, err := w.persistence.ReplaceNodes(ctx, workflowID, nodes)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to replace workflow nodes: %w", err)
	}

	w.publish(ctx, workflowID, events.NewWorkflowNodesReplaced(workflowID, workflow.Nodes))

	return workflow, nil
}

// PatchNodeRequest is an execution report for one node.
type PatchNodeRequest struct {
	NodeID          string
	OutputSchema    models.Schema
	ExecutionStatus models.ExecutionStatus
	LastExecutedAt  *time.Time
}

// PatchNode overwrites the output schema, execution status and last execution time of one node.
func (w *Workflow) PatchNode(ctx context.Context, workflowID string, req PatchNodeRequest) (*models.Workflow, error) {
	ctx, span := otelhelper.StartSpan(ctx, w.tracer, "workflow.patch_node",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.NodeIDKey, req.NodeID),
		attribute.String(otelhelper.ExecutionStatusKey, string(req.ExecutionStatus)),
	)
	defer span.End()

	err := w.validatePatch(req)
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, err
	}

	workflow, err := w.persistence.PatchNodeFields(ctx, workflowID, req.NodeID, persistence.NodeFieldsPatch{
		OutputSchema:    req.OutputSchema,
		ExecutionStatus: req.ExecutionStatus,
		LastExecutedAt:  req.LastExecutedAt,
	})
	if err != nil {
		otelhelper.SetError(span, err)

		return nil, fmt.Errorf("failed to patch workflow node: %w", err)
	}

	if node := workflow.NodeByID(req.NodeID); node != nil {
		w.publish(ctx, workflowID, events.NewWorkflowNodePatched(workflowID, node))
	}

	return workflow, nil
}

func (w *Workflow) validatePatch(req PatchNodeRequest) error {
	if req.NodeID == "" {
		return NewValidationError("PatchNode", "NODE_ID_REQUIRED", "node id is required", ErrInvalidRequest)
	}

	if !req.ExecutionStatus.IsValid() {
		return NewValidationError("PatchNode", "INVALID_STATUS", fmt.Sprintf("unknown execution status %q", req.ExecutionStatus), ErrInvalidStatus)
	}

	if req.OutputSchema == nil {
		return nil
	}

	_, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(map[string]any(req.OutputSchema)))
	if err != nil {
		return NewValidationError("PatchNode", "INVALID_OUTPUT_SCHEMA", err.Error(), errors.Join(ErrInvalidOutputSchema, err))
	}

	return nil
}

// publish never fails the operation; the document is already stored.
func (w *Workflow) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if w.publisher == nil {
		return
	}

	err := w.publisher.Publish(ctx, workflowID, event)
	if err != nil {
		w.logger.ErrorContext(ctx, "failed to publish workflow event",
			"workflow_id", workflowID,
			"event_type", event.GetType(),
			"error", err,
		)
	}
}
