// Package orchestrator owns one workflow execution end to end: it builds
// the per-run variable context, drives the traverser, persists the
// resulting Execution record, and guarantees only one run of a given
// workflow id is in flight at a time via a per-workflow-id mutex,
// preventing overlapping runs of the same schedule or webhook trigger.
// Execution progress is broadcast through an observer.Manager.
package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/openalgoflow/engine/pkg/config"
	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/logging"
	"github.com/openalgoflow/engine/pkg/security"
	"github.com/openalgoflow/engine/pkg/traverser"
	"github.com/openalgoflow/engine/pkg/types"
	"github.com/openalgoflow/engine/pkg/wfcontext"
)

// ProgressObserver receives execution lifecycle events. Execute calls
// OnExecutionStarted before the graph runs, then OnNodeCompleted once per
// visited node in visit order, and OnExecutionFinished last. The node
// calls are made only after the whole traversal has returned, so no node
// result is reported while the execution is still running.
type ProgressObserver interface {
	OnExecutionStarted(execution types.Execution)
	OnNodeCompleted(executionID string, result traverser.NodeResult)
	OnExecutionFinished(execution types.Execution)
}

// ErrAlreadyRunning is returned by Execute when another execution of the
// same workflow id is already in flight, matching the original's
// execute_workflow early-return instead of queuing or blocking the
// caller behind the in-flight run.
var ErrAlreadyRunning = fmt.Errorf("orchestrator: workflow already running")

// NoopObserver discards every event; used when no live subscribers exist.
type NoopObserver struct{}

func (NoopObserver) OnExecutionStarted(types.Execution)           {}
func (NoopObserver) OnNodeCompleted(string, traverser.NodeResult) {}
func (NoopObserver) OnExecutionFinished(types.Execution)          {}

// Store is the minimal persistence surface the orchestrator needs; the
// concrete implementation lives in pkg/storage.
type Store interface {
	SaveExecution(ctx context.Context, execution types.Execution) error
}

// Orchestrator runs workflow graphs and serializes concurrent runs of the
// same workflow id.
type Orchestrator struct {
	traverser *traverser.Traverser
	store     Store
	observer  ProgressObserver
	cfg       *config.Config
	logger    *logging.Logger
	gw        *gateway.Client
	stream    *gateway.StreamClient
	ssrf      *security.SSRFProtection

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New builds an Orchestrator. observer may be nil (defaults to NoopObserver).
func New(t *traverser.Traverser, store Store, cfg *config.Config, logger *logging.Logger, gw *gateway.Client, stream *gateway.StreamClient, observer ProgressObserver) *Orchestrator {
	if observer == nil {
		observer = NoopObserver{}
	}
	return &Orchestrator{
		traverser: t,
		store:     store,
		observer:  observer,
		cfg:       cfg,
		logger:    logger,
		gw:        gw,
		stream:    stream,
		ssrf:      security.NewSSRFProtection(),
		locks:     make(map[string]*sync.Mutex),
	}
}

func (o *Orchestrator) workflowLock(workflowID string) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	l, ok := o.locks[workflowID]
	if !ok {
		l = &sync.Mutex{}
		o.locks[workflowID] = l
	}
	return l
}

// Execute runs one workflow's graph to completion. If another execution
// of the same workflow id is already running it returns ErrAlreadyRunning
// at once without waiting, so a schedule tick or webhook retry can never
// overlap a still-running prior trigger of the same workflow.
func (o *Orchestrator) Execute(ctx context.Context, wf types.Workflow, trigger map[string]interface{}) (types.Execution, error) {
	lock := o.workflowLock(wf.ID)
	if !lock.TryLock() {
		return types.Execution{}, ErrAlreadyRunning
	}
	defer lock.Unlock()

	execCtx, cancel := context.WithTimeout(ctx, o.cfg.MaxExecutionTime)
	defer cancel()

	now := time.Now()
	execution := types.Execution{
		ID:         types.GenerateExecutionID(),
		WorkflowID: wf.ID,
		Status:     types.StatusRunning,
		StartedAt:  now,
	}
	logger := o.logger.WithWorkflowID(wf.ID).WithExecutionID(execution.ID)
	o.observer.OnExecutionStarted(execution)
	logger.Info("workflow execution started")

	vars := wfcontext.New(now)
	vars.Set("workflow_id", wf.ID)
	for k, v := range trigger {
		vars.Set(k, v)
	}

	ec := &handlers.ExecContext{
		Ctx:     execCtx,
		Vars:    vars,
		Gateway: o.gw,
		Stream:  o.stream,
		Logger:  logger,
		Config:  o.cfg,
		SSRF:    o.ssrf,
	}

	results, runErr := o.traverser.Run(execCtx, wf.Graph, ec)
	for _, r := range results {
		o.observer.OnNodeCompleted(execution.ID, r)
		entry := types.LogEntry{Timestamp: time.Now(), NodeID: r.NodeID, Message: fmt.Sprintf("%s completed", r.Type)}
		if r.Error != "" {
			entry.Level = "error"
			entry.Message = r.Error
		} else {
			entry.Level = "info"
		}
		execution.Logs = append(execution.Logs, entry)
	}

	completed := time.Now()
	execution.CompletedAt = &completed
	execution.Variables = vars.Snapshot()
	if runErr != nil {
		execution.Status = types.StatusFailed
		execution.Error = runErr.Error()
		logger.WithError(runErr).Error("workflow execution failed")
	} else {
		execution.Status = types.StatusCompleted
		logger.Info("workflow execution completed")
	}

	o.observer.OnExecutionFinished(execution)
	if o.store != nil {
		if err := o.store.SaveExecution(ctx, execution); err != nil {
			logger.WithError(err).Error("failed to persist execution record")
		}
	}
	return execution, runErr
}
