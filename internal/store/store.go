// Package store provides snapshot storage backends for caseflow.
//
// A snapshot is the serialized FlowState for one case GUID: one durable slot
// per GUID, written after every state change, adopted verbatim on revisit,
// and erased shortly after the flow completes. Backends: in-memory (tests and
// ephemeral runs), SQLite (default) and PostgreSQL.
package store

import (
	"context"
	"sync"

	"github.com/sesamtech/caseflow/internal/models"
)

// SnapshotStore is the per-GUID durable slot for flow state.
type SnapshotStore interface {
	// SaveSnapshot writes (or overwrites) the snapshot for state.GUID.
	SaveSnapshot(ctx context.Context, state models.FlowState) error

	// GetSnapshot returns the snapshot for a GUID, or (nil, nil) when absent.
	GetSnapshot(ctx context.Context, guid string) (*models.FlowState, error)

	// DeleteSnapshot removes the snapshot for a GUID. Deleting an absent
	// snapshot is not an error.
	DeleteSnapshot(ctx context.Context, guid string) error

	// Close releases any underlying resources.
	Close() error
}

// Opts holds configuration options shared by the persistent store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the database DSN: a file path for SQLite, a connection URL or
// key=value DSN for Postgres.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// InMemoryStore keeps snapshots in a map. Used by tests and when no DSN is
// configured.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string]models.FlowState
}

// NewInMemoryStore creates an empty in-memory snapshot store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: make(map[string]models.FlowState)}
}

func (s *InMemoryStore) SaveSnapshot(_ context.Context, state models.FlowState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[state.GUID] = state
	return nil
}

func (s *InMemoryStore) GetSnapshot(_ context.Context, guid string) (*models.FlowState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.snapshots[guid]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (s *InMemoryStore) DeleteSnapshot(_ context.Context, guid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, guid)
	return nil
}

func (s *InMemoryStore) Close() error { return nil }
