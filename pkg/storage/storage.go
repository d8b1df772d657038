// Package storage persists workflows, their execution history, and the
// process-wide settings row (admin credentials, gateway connection).
// The Store interface is implemented both by an in-memory store (tests,
// local development) and by a Postgres-backed store (pkg/storage
// postgres.go) using jackc/pgx/v5, following a
// mutex-guarded-map-for-memory / driver-backed-for-production split
// across three persisted record kinds.
package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/openalgoflow/engine/pkg/types"
)

// Store defines the persistence operations the orchestrator, scheduler,
// and HTTP API need.
type Store interface {
	SaveWorkflow(ctx context.Context, wf types.Workflow) (types.Workflow, error)
	UpdateWorkflow(ctx context.Context, wf types.Workflow) error
	GetWorkflow(ctx context.Context, id string) (types.Workflow, error)
	DeleteWorkflow(ctx context.Context, id string) error
	ListWorkflows(ctx context.Context) ([]types.WorkflowSummary, error)

	SaveExecution(ctx context.Context, execution types.Execution) error
	GetExecution(ctx context.Context, id string) (types.Execution, error)
	ListExecutions(ctx context.Context, workflowID string, limit int) ([]types.Execution, error)

	GetSettings(ctx context.Context) (types.Settings, error)
	SaveSettings(ctx context.Context, settings types.Settings) error
}

// InMemoryStore implements Store with mutex-guarded maps; suitable for
// tests and single-process local development.
type InMemoryStore struct {
	mu         sync.RWMutex
	workflows  map[string]types.Workflow
	executions map[string]types.Execution
	settings   types.Settings
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		workflows:  make(map[string]types.Workflow),
		executions: make(map[string]types.Execution),
	}
}

func (s *InMemoryStore) SaveWorkflow(ctx context.Context, wf types.Workflow) (types.Workflow, error) {
	if wf.Name == "" {
		return types.Workflow{}, fmt.Errorf("storage: workflow name is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}
	wf.CreatedAt = now
	wf.UpdatedAt = now
	s.workflows[wf.ID] = wf
	return wf, nil
}

func (s *InMemoryStore) UpdateWorkflow(ctx context.Context, wf types.Workflow) error {
	if wf.ID == "" {
		return fmt.Errorf("storage: workflow id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.workflows[wf.ID]
	if !ok {
		return fmt.Errorf("storage: workflow %q not found", wf.ID)
	}
	wf.CreatedAt = existing.CreatedAt
	wf.UpdatedAt = time.Now()
	s.workflows[wf.ID] = wf
	return nil
}

func (s *InMemoryStore) GetWorkflow(ctx context.Context, id string) (types.Workflow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	wf, ok := s.workflows[id]
	if !ok {
		return types.Workflow{}, fmt.Errorf("storage: workflow %q not found", id)
	}
	return wf, nil
}

func (s *InMemoryStore) DeleteWorkflow(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.workflows[id]; !ok {
		return fmt.Errorf("storage: workflow %q not found", id)
	}
	delete(s.workflows, id)
	return nil
}

func (s *InMemoryStore) ListWorkflows(ctx context.Context) ([]types.WorkflowSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.WorkflowSummary, 0, len(s.workflows))
	for _, wf := range s.workflows {
		out = append(out, types.WorkflowSummary{
			ID:          wf.ID,
			Name:        wf.Name,
			Description: wf.Description,
			IsActive:    wf.IsActive,
			NodeCount:   len(wf.Graph.Nodes),
			UpdatedAt:   wf.UpdatedAt,
		})
	}
	return out, nil
}

func (s *InMemoryStore) SaveExecution(ctx context.Context, execution types.Execution) error {
	if execution.ID == "" {
		return fmt.Errorf("storage: execution id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[execution.ID] = execution
	return nil
}

func (s *InMemoryStore) GetExecution(ctx context.Context, id string) (types.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.executions[id]
	if !ok {
		return types.Execution{}, fmt.Errorf("storage: execution %q not found", id)
	}
	return e, nil
}

func (s *InMemoryStore) ListExecutions(ctx context.Context, workflowID string, limit int) ([]types.Execution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Execution, 0)
	for _, e := range s.executions {
		if workflowID != "" && e.WorkflowID != workflowID {
			continue
		}
		out = append(out, e)
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *InMemoryStore) GetSettings(ctx context.Context) (types.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings, nil
}

func (s *InMemoryStore) SaveSettings(ctx context.Context, settings types.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	settings.UpdatedAt = time.Now()
	s.settings = settings
	return nil
}
