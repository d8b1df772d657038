package orchestrator

import (
	"context"
	"sync"
	"testing"

	"github.com/openalgoflow/engine/pkg/config"
	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/logging"
	"github.com/openalgoflow/engine/pkg/traverser"
	"github.com/openalgoflow/engine/pkg/types"
)

type memStore struct {
	mu         sync.Mutex
	executions []types.Execution
}

func (m *memStore) SaveExecution(ctx context.Context, e types.Execution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions = append(m.executions, e)
	return nil
}

func buildTestOrchestrator(store Store) *Orchestrator {
	cfg := config.Testing()
	registry := handlers.RegisterAll()
	tr := traverser.New(registry, cfg, logging.New(logging.DefaultConfig()))
	return New(tr, store, cfg, logging.New(logging.DefaultConfig()), nil, nil, nil)
}

func simpleWorkflow() types.Workflow {
	return types.Workflow{
		ID:   "wf1",
		Name: "test",
		Graph: types.Graph{
			Nodes: []types.Node{
				{ID: "start", Kind: types.KindStart, Type: types.TypeStartTrigger, Data: types.NodeData{}},
				{ID: "math", Kind: types.KindAction, Type: types.TypeMathExpression, Data: types.NodeData{"expression": "5*5", "variable": "score"}},
			},
			Edges: []types.Edge{{ID: "e1", Source: "start", Target: "math"}},
		},
	}
}

func TestExecuteCompletesAndPersists(t *testing.T) {
	store := &memStore{}
	o := buildTestOrchestrator(store)
	execution, err := o.Execute(context.Background(), simpleWorkflow(), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if execution.Status != types.StatusCompleted {
		t.Fatalf("expected completed status, got %s", execution.Status)
	}
	if execution.Variables["score"] != float64(25) {
		t.Fatalf("expected score == 25, got %v", execution.Variables["score"])
	}
	if len(store.executions) != 1 {
		t.Fatalf("expected execution persisted, got %d records", len(store.executions))
	}
}

func TestExecuteReturnsAlreadyRunningWhileLockHeld(t *testing.T) {
	store := &memStore{}
	o := buildTestOrchestrator(store)
	lock := o.workflowLock("wf1")
	lock.Lock()
	defer lock.Unlock()

	_, err := o.Execute(context.Background(), simpleWorkflow(), nil)
	if err != ErrAlreadyRunning {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestExecuteRecordsFailureOnBadGraph(t *testing.T) {
	store := &memStore{}
	o := buildTestOrchestrator(store)
	wf := types.Workflow{ID: "wf2", Graph: types.Graph{Nodes: []types.Node{}, Edges: []types.Edge{}}}
	execution, err := o.Execute(context.Background(), wf, nil)
	if err == nil {
		t.Fatal("expected error for workflow with no start node")
	}
	if execution.Status != types.StatusFailed {
		t.Fatalf("expected failed status, got %s", execution.Status)
	}
}
