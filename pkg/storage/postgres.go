package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openalgoflow/engine/pkg/types"
)

// PostgresStore implements Store against three tables: app_settings (one
// singleton row), workflows, and workflow_executions. It is the
// production backend; schema management is the caller's responsibility
// (migrations are expected to run before the pool is handed to NewPostgresStore).
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore wraps an already-connected pgxpool.Pool.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Connect opens a pgx connection pool against dsn.
func Connect(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("storage: connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: ping postgres: %w", err)
	}
	return pool, nil
}

func (s *PostgresStore) SaveWorkflow(ctx context.Context, wf types.Workflow) (types.Workflow, error) {
	if wf.Name == "" {
		return types.Workflow{}, fmt.Errorf("storage: workflow name is required")
	}
	if wf.ID == "" {
		wf.ID = uuid.New().String()
	}
	graph, err := json.Marshal(wf.Graph)
	if err != nil {
		return types.Workflow{}, fmt.Errorf("storage: encode graph: %w", err)
	}
	now := time.Now()
	_, err = s.pool.Exec(ctx, `
		INSERT INTO workflows (id, name, description, graph, is_active, schedule_job_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name, description = EXCLUDED.description, graph = EXCLUDED.graph,
			is_active = EXCLUDED.is_active, schedule_job_id = EXCLUDED.schedule_job_id, updated_at = EXCLUDED.updated_at
	`, wf.ID, wf.Name, wf.Description, graph, wf.IsActive, wf.ScheduleJobID, now)
	if err != nil {
		return types.Workflow{}, fmt.Errorf("storage: save workflow: %w", err)
	}
	wf.CreatedAt = now
	wf.UpdatedAt = now
	return wf, nil
}

func (s *PostgresStore) UpdateWorkflow(ctx context.Context, wf types.Workflow) error {
	if wf.ID == "" {
		return fmt.Errorf("storage: workflow id is required")
	}
	graph, err := json.Marshal(wf.Graph)
	if err != nil {
		return fmt.Errorf("storage: encode graph: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE workflows SET name = $2, description = $3, graph = $4, is_active = $5,
			schedule_job_id = $6, updated_at = $7
		WHERE id = $1
	`, wf.ID, wf.Name, wf.Description, graph, wf.IsActive, wf.ScheduleJobID, time.Now())
	if err != nil {
		return fmt.Errorf("storage: update workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: workflow %q not found", wf.ID)
	}
	return nil
}

func (s *PostgresStore) GetWorkflow(ctx context.Context, id string) (types.Workflow, error) {
	var wf types.Workflow
	var graph json.RawMessage
	var scheduleJobID *string
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, graph, is_active, schedule_job_id, created_at, updated_at
		FROM workflows WHERE id = $1
	`, id).Scan(&wf.ID, &wf.Name, &wf.Description, &graph, &wf.IsActive, &scheduleJobID, &wf.CreatedAt, &wf.UpdatedAt)
	if err == pgx.ErrNoRows {
		return types.Workflow{}, fmt.Errorf("storage: workflow %q not found", id)
	}
	if err != nil {
		return types.Workflow{}, fmt.Errorf("storage: get workflow: %w", err)
	}
	if scheduleJobID != nil {
		wf.ScheduleJobID = *scheduleJobID
	}
	if err := json.Unmarshal(graph, &wf.Graph); err != nil {
		return types.Workflow{}, fmt.Errorf("storage: decode graph: %w", err)
	}
	return wf, nil
}

func (s *PostgresStore) DeleteWorkflow(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM workflows WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("storage: delete workflow: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: workflow %q not found", id)
	}
	return nil
}

func (s *PostgresStore) ListWorkflows(ctx context.Context) ([]types.WorkflowSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, description, is_active, jsonb_array_length(graph->'nodes'), updated_at
		FROM workflows ORDER BY updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("storage: list workflows: %w", err)
	}
	defer rows.Close()

	var out []types.WorkflowSummary
	for rows.Next() {
		var ws types.WorkflowSummary
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.Description, &ws.IsActive, &ws.NodeCount, &ws.UpdatedAt); err != nil {
			return nil, fmt.Errorf("storage: scan workflow summary: %w", err)
		}
		out = append(out, ws)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SaveExecution(ctx context.Context, execution types.Execution) error {
	logs, err := json.Marshal(execution.Logs)
	if err != nil {
		return fmt.Errorf("storage: encode logs: %w", err)
	}
	vars, err := json.Marshal(execution.Variables)
	if err != nil {
		return fmt.Errorf("storage: encode variables: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO workflow_executions (id, workflow_id, status, started_at, completed_at, error, logs, variables)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status, completed_at = EXCLUDED.completed_at, error = EXCLUDED.error,
			logs = EXCLUDED.logs, variables = EXCLUDED.variables
	`, execution.ID, execution.WorkflowID, execution.Status, execution.StartedAt, execution.CompletedAt,
		execution.Error, logs, vars)
	if err != nil {
		return fmt.Errorf("storage: save execution: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetExecution(ctx context.Context, id string) (types.Execution, error) {
	var e types.Execution
	var logs, vars json.RawMessage
	err := s.pool.QueryRow(ctx, `
		SELECT id, workflow_id, status, started_at, completed_at, error, logs, variables
		FROM workflow_executions WHERE id = $1
	`, id).Scan(&e.ID, &e.WorkflowID, &e.Status, &e.StartedAt, &e.CompletedAt, &e.Error, &logs, &vars)
	if err == pgx.ErrNoRows {
		return types.Execution{}, fmt.Errorf("storage: execution %q not found", id)
	}
	if err != nil {
		return types.Execution{}, fmt.Errorf("storage: get execution: %w", err)
	}
	_ = json.Unmarshal(logs, &e.Logs)
	_ = json.Unmarshal(vars, &e.Variables)
	return e, nil
}

func (s *PostgresStore) ListExecutions(ctx context.Context, workflowID string, limit int) ([]types.Execution, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT id, workflow_id, status, started_at, completed_at, error
		FROM workflow_executions
		WHERE $1 = '' OR workflow_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`, workflowID, limit)
	if err != nil {
		return nil, fmt.Errorf("storage: list executions: %w", err)
	}
	defer rows.Close()

	var out []types.Execution
	for rows.Next() {
		var e types.Execution
		if err := rows.Scan(&e.ID, &e.WorkflowID, &e.Status, &e.StartedAt, &e.CompletedAt, &e.Error); err != nil {
			return nil, fmt.Errorf("storage: scan execution: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GetSettings(ctx context.Context) (types.Settings, error) {
	var st types.Settings
	err := s.pool.QueryRow(ctx, `
		SELECT admin_password_hash, is_setup_complete, gateway_api_key_encrypted, gateway_api_key_nonce,
			gateway_host, gateway_ws_url, updated_at
		FROM app_settings WHERE id = 1
	`).Scan(&st.AdminPasswordHash, &st.IsSetupComplete, &st.GatewayAPIKeyEncrypted, &st.GatewayAPIKeyNonce,
		&st.GatewayHost, &st.GatewayWSURL, &st.UpdatedAt)
	if err == pgx.ErrNoRows {
		return types.Settings{
			GatewayHost:  types.DefaultGatewayHost,
			GatewayWSURL: types.DefaultGatewayWSURL,
		}, nil
	}
	if err != nil {
		return types.Settings{}, fmt.Errorf("storage: get settings: %w", err)
	}
	return st, nil
}

func (s *PostgresStore) SaveSettings(ctx context.Context, settings types.Settings) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO app_settings (id, admin_password_hash, is_setup_complete, gateway_api_key_encrypted,
			gateway_api_key_nonce, gateway_host, gateway_ws_url, updated_at)
		VALUES (1, $1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			admin_password_hash = EXCLUDED.admin_password_hash,
			is_setup_complete = EXCLUDED.is_setup_complete,
			gateway_api_key_encrypted = EXCLUDED.gateway_api_key_encrypted,
			gateway_api_key_nonce = EXCLUDED.gateway_api_key_nonce,
			gateway_host = EXCLUDED.gateway_host,
			gateway_ws_url = EXCLUDED.gateway_ws_url,
			updated_at = EXCLUDED.updated_at
	`, settings.AdminPasswordHash, settings.IsSetupComplete, settings.GatewayAPIKeyEncrypted,
		settings.GatewayAPIKeyNonce, settings.GatewayHost, settings.GatewayWSURL, time.Now())
	if err != nil {
		return fmt.Errorf("storage: save settings: %w", err)
	}
	return nil
}
