// Package store provides storage backends for caseflow.
//
// This file implements the SQLite-backed snapshot store, the default backend
// for single-node deployments.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/sesamtech/caseflow/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists snapshots to a SQLite database file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a SQLite snapshot store. The DSN is the database
// file path; its directory is created if missing.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "dsn_set", cfg.DSN != "")

	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(cfg.DSN)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied")

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveSnapshot(ctx context.Context, state models.FlowState) error {
	stateJSON, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot for %s: %w", state.GUID, err)
	}
	_, err = s.db.ExecContext(ctx, `INSERT INTO flow_snapshots (guid, state_json, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(guid) DO UPDATE SET state_json = excluded.state_json, updated_at = CURRENT_TIMESTAMP`, state.GUID, string(stateJSON))
	if err != nil {
		slog.Error("SQLiteStore SaveSnapshot failed", "error", err, "guid", state.GUID)
		return fmt.Errorf("failed to save snapshot for %s: %w", state.GUID, err)
	}
	slog.Debug("SQLiteStore SaveSnapshot succeeded", "guid", state.GUID, "flow_step", state.FlowStep)
	return nil
}

func (s *SQLiteStore) GetSnapshot(ctx context.Context, guid string) (*models.FlowState, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx, `SELECT state_json FROM flow_snapshots WHERE guid = ?`, guid).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSnapshot query failed", "error", err, "guid", guid)
		return nil, fmt.Errorf("failed to query snapshot for %s: %w", guid, err)
	}

	var state models.FlowState
	if err := json.Unmarshal([]byte(stateJSON), &state); err != nil {
		slog.Error("SQLiteStore GetSnapshot unmarshal failed", "error", err, "guid", guid)
		return nil, fmt.Errorf("failed to unmarshal snapshot for %s: %w", guid, err)
	}
	return &state, nil
}

func (s *SQLiteStore) DeleteSnapshot(ctx context.Context, guid string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM flow_snapshots WHERE guid = ?`, guid)
	if err != nil {
		slog.Error("SQLiteStore DeleteSnapshot failed", "error", err, "guid", guid)
		return fmt.Errorf("failed to delete snapshot for %s: %w", guid, err)
	}
	slog.Debug("SQLiteStore DeleteSnapshot succeeded", "guid", guid)
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
