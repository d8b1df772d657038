package observer

import (
	"context"
	"errors"
	"time"

	"github.com/openalgoflow/engine/pkg/traverser"
	"github.com/openalgoflow/engine/pkg/types"
)

// ProgressBroadcaster adapts a Manager to the orchestrator's ProgressObserver
// shape (OnExecutionStarted / OnNodeCompleted / OnExecutionFinished),
// translating each lifecycle callback into an Event fanned out to every
// registered Observer. It satisfies that interface structurally so the
// orchestrator package never needs to import this one.
type ProgressBroadcaster struct {
	manager *Manager
}

// NewProgressBroadcaster wraps a Manager for use as an orchestrator observer.
func NewProgressBroadcaster(manager *Manager) *ProgressBroadcaster {
	return &ProgressBroadcaster{manager: manager}
}

// OnExecutionStarted implements orchestrator.ProgressObserver.
func (b *ProgressBroadcaster) OnExecutionStarted(execution types.Execution) {
	b.manager.Notify(context.Background(), Event{
		Type:        EventWorkflowStart,
		Status:      StatusStarted,
		Timestamp:   execution.StartedAt,
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		StartTime:   execution.StartedAt,
	})
}

// OnNodeCompleted implements orchestrator.ProgressObserver.
func (b *ProgressBroadcaster) OnNodeCompleted(executionID string, result traverser.NodeResult) {
	eventType := EventNodeSuccess
	status := StatusSuccess
	var nodeErr error
	if result.Error != "" {
		eventType = EventNodeFailure
		status = StatusFailure
		nodeErr = errors.New(result.Error)
	}
	b.manager.Notify(context.Background(), Event{
		Type:        eventType,
		Status:      status,
		Timestamp:   time.Now(),
		ExecutionID: executionID,
		NodeID:      result.NodeID,
		NodeType:    result.Type,
		Result:      result.Output,
		Error:       nodeErr,
	})
}

// OnExecutionFinished implements orchestrator.ProgressObserver.
func (b *ProgressBroadcaster) OnExecutionFinished(execution types.Execution) {
	status := StatusCompleted
	var execErr error
	if execution.Error != "" {
		status = StatusFailure
		execErr = errors.New(execution.Error)
	}
	var elapsed time.Duration
	if execution.CompletedAt != nil {
		elapsed = execution.CompletedAt.Sub(execution.StartedAt)
	}
	b.manager.Notify(context.Background(), Event{
		Type:        EventWorkflowEnd,
		Status:      status,
		Timestamp:   time.Now(),
		ExecutionID: execution.ID,
		WorkflowID:  execution.WorkflowID,
		StartTime:   execution.StartedAt,
		ElapsedTime: elapsed,
		Error:       execErr,
	})
}
