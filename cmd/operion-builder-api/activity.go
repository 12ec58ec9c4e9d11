package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/operion-builder/pkg/eventbus"
	"github.com/dukex/operion-builder/pkg/events"
)

// subscribeActivityLog writes one log line per builder event received on bus.
func subscribeActivityLog(ctx context.Context, bus eventbus.EventSubscriber, logger *slog.Logger) error {
	err := bus.Handle(events.WorkflowNodesReplacedEvent, func(ctx context.Context, event any) error {
		replaced, ok := event.(*events.WorkflowNodesReplaced)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}

		logger.InfoContext(ctx, "Workflow nodes replaced",
			"event_id", replaced.ID,
			"workflow_id", replaced.WorkflowID,
			"node_count", len(replaced.NodeIDs),
		)

		return nil
	})
	if err != nil {
		return err
	}

	err = bus.Handle(events.WorkflowNodePatchedEvent, func(ctx context.Context, event any) error {
		patched, ok := event.(*events.WorkflowNodePatched)
		if !ok {
			return fmt.Errorf("unexpected event %T", event)
		}

		logger.InfoContext(ctx, "Workflow node patched",
			"event_id", patched.ID,
			"workflow_id", patched.WorkflowID,
			"node_id", patched.NodeID,
			"execution_status", patched.ExecutionStatus,
			"has_output_schema", patched.HasOutputSchema,
		)

		return nil
	})
	if err != nil {
		return err
	}

	return bus.Subscribe(ctx)
}
