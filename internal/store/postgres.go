// Package store provides storage backends for caseflow.
//
// This file implements the PostgreSQL-backed snapshot store, selected when
// the configured DSN looks like a Postgres connection string.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	_ "embed"

	"github.com/sesamtech/caseflow/internal/models"
	_ "github.com/lib/pq"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists snapshots to PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres snapshot store from a connection DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "dsn_set", cfg.DSN != "")

	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied")

	return &PostgresStore{db: db}, nil
}

func (s *PostgresStore) SaveSnapshot(ctx context.Context, state models.FlowState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for %s: %w", state.GUID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO flow_snapshots (guid, state_json, updated_at) VALUES ($1, $2, NOW())
		ON CONFLICT (guid) DO UPDATE SET state_json = EXCLUDED.state_json, updated_at = NOW()`, state.GUID, string(stateJSON))
	if err != nil {
		slog.Error("PostgresStore SaveSnapshot failed", "error", err, "guid", state.GUID)
		return fmt.Errorf("failed to save snapshot for %s: %w", state.GUID, err)
	}
	slog.Debug("PostgresStore SaveSnapshot succeeded", "guid", state.GUID, "flow_step", state.FlowStep)
	return nil
}

func (s *PostgresStore) GetSnapshot(ctx context.Context, guid string) (*models.FlowState, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, `SELECT state_json FROM flow_snapshots WHERE guid = $1`, guid).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSnapshot query failed", "error", err, "guid", guid)
		return nil, fmt.Errorf("failed to query snapshot for %s: %w", guid, err)
	}

	var state models.FlowState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		slog.Error("PostgresStore GetSnapshot unmarshal failed", "error", err, "guid", guid)
		return nil, fmt.Errorf("failed to unmarshal snapshot for %s: %w", guid, err)
	}
	return &state, nil
}

func (s *PostgresStore) DeleteSnapshot(ctx context.Context, guid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM flow_snapshots WHERE guid = $1`, guid)
	if err != nil {
		slog.Error("PostgresStore DeleteSnapshot failed", "error", err, "guid", guid)
		return fmt.Errorf("failed to delete snapshot for %s: %w", guid, err)
	}
	slog.Debug("PostgresStore DeleteSnapshot succeeded", "guid", guid)
	return nil
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
