// Package storage persists workflows, executions, and settings behind
// the Store interface. NewInMemoryStore is for tests and single-process
// local development; NewPostgresStore (postgres.go) backs production
// deployments with jackc/pgx/v5 against the app_settings, workflows, and
// workflow_executions tables.
package storage
