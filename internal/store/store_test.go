package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/sesamtech/caseflow/internal/models"
	"github.com/sesamtech/caseflow/internal/testutil"
)

func sampleState(guid string) models.FlowState {
	return models.FlowState{
		GUID:                  guid,
		FlowStep:              models.StepPayment,
		SelectedService:       models.ServiceSwap,
		SelectedColor:         "White",
		SelectedPaymentMethod: models.PaymentSwish,
		PaymentError:          "Swish payment failed. Please try again or pay by card.",
	}
}

// runSnapshotStoreTests exercises the SnapshotStore contract against any
// backend.
func runSnapshotStoreTests(t *testing.T, s SnapshotStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("absent snapshot is nil, nil", func(t *testing.T) {
		got, err := s.GetSnapshot(ctx, testutil.GUIDSwap)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil for an absent snapshot, got %+v", *got)
		}
	})

	t.Run("save and get round-trips every field", func(t *testing.T) {
		want := sampleState(testutil.GUIDSwap)
		if err := s.SaveSnapshot(ctx, want); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := s.GetSnapshot(ctx, testutil.GUIDSwap)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got == nil {
			t.Fatal("expected a snapshot")
		}
		if *got != want {
			t.Errorf("round-trip mismatch: got %+v, want %+v", *got, want)
		}
	})

	t.Run("save overwrites the slot", func(t *testing.T) {
		updated := sampleState(testutil.GUIDSwap)
		updated.FlowStep = models.StepComplete
		updated.PaymentError = ""
		if err := s.SaveSnapshot(ctx, updated); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := s.GetSnapshot(ctx, testutil.GUIDSwap)
		if err != nil || got == nil {
			t.Fatalf("get failed: %+v, %v", got, err)
		}
		if got.FlowStep != models.StepComplete || got.PaymentError != "" {
			t.Errorf("expected the overwritten snapshot, got %+v", *got)
		}
	})

	t.Run("slots are per GUID", func(t *testing.T) {
		other := sampleState(testutil.GUIDDropOff)
		other.SelectedService = models.ServiceDropOff
		other.SelectedColor = ""
		if err := s.SaveSnapshot(ctx, other); err != nil {
			t.Fatalf("save failed: %v", err)
		}
		got, err := s.GetSnapshot(ctx, testutil.GUIDDropOff)
		if err != nil || got == nil {
			t.Fatalf("get failed: %+v, %v", got, err)
		}
		if got.GUID != testutil.GUIDDropOff || got.SelectedService != models.ServiceDropOff {
			t.Errorf("unexpected snapshot: %+v", *got)
		}
	})

	t.Run("delete removes the slot", func(t *testing.T) {
		if err := s.DeleteSnapshot(ctx, testutil.GUIDSwap); err != nil {
			t.Fatalf("delete failed: %v", err)
		}
		got, err := s.GetSnapshot(ctx, testutil.GUIDSwap)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got != nil {
			t.Errorf("expected the snapshot to be gone, got %+v", *got)
		}
	})

	t.Run("delete of an absent slot is not an error", func(t *testing.T) {
		if err := s.DeleteSnapshot(ctx, testutil.GUIDTheftLoss); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestInMemoryStore(t *testing.T) {
	s := NewInMemoryStore()
	defer s.Close()
	runSnapshotStoreTests(t, s)
}

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "caseflow_test.db")
	s, err := NewSQLiteStore(WithDSN(dbPath))
	if err != nil {
		t.Fatalf("failed to create SQLite store: %v", err)
	}
	defer s.Close()
	runSnapshotStoreTests(t, s)
}

func TestSQLiteStore_RequiresDSN(t *testing.T) {
	if _, err := NewSQLiteStore(); err == nil {
		t.Error("expected an error without a DSN")
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "caseflow_test.db")

	s, err := NewSQLiteStore(WithDSN(dbPath))
	if err != nil {
		t.Fatalf("failed to create SQLite store: %v", err)
	}
	want := sampleState(testutil.GUIDSwap)
	if err := s.SaveSnapshot(ctx, want); err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(WithDSN(dbPath))
	if err != nil {
		t.Fatalf("failed to reopen SQLite store: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetSnapshot(ctx, testutil.GUIDSwap)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected the snapshot to survive a reopen")
	}
	if *got != want {
		t.Errorf("round-trip mismatch after reopen: got %+v, want %+v", *got, want)
	}
}

func TestSQLiteStore_CreatesMissingDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "caseflow_test.db")
	s, err := NewSQLiteStore(WithDSN(dbPath))
	if err != nil {
		t.Fatalf("expected the directory to be created: %v", err)
	}
	s.Close()
}
