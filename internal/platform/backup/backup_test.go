package backup

import (
	"context"
	"testing"
)

func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	// Empty store reports not found, no error
	_, found, err := s.Load(ctx, "IP2500001")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatal("expected not found on empty store")
	}

	discount := map[string]string{"pharmacy": "150.50", "total": "150.50"}
	if err := s.Save(ctx, "IP2500001", discount); err != nil {
		t.Fatalf("save: %v", err)
	}

	env, found, err := s.Load(ctx, "IP2500001")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !found {
		t.Fatal("expected envelope after save")
	}
	if env.BillID != "IP2500001" {
		t.Errorf("expected bill id IP2500001, got %s", env.BillID)
	}
	if env.Version != EnvelopeVersion {
		t.Errorf("expected version %d, got %d", EnvelopeVersion, env.Version)
	}
	if env.Discount["pharmacy"] != "150.50" {
		t.Errorf("expected pharmacy discount preserved, got %q", env.Discount["pharmacy"])
	}
	if env.Timestamp.IsZero() {
		t.Error("expected timestamp to be set")
	}

	// Backups for other bills are untouched
	_, found, _ = s.Load(ctx, "IP2500002")
	if found {
		t.Error("expected no envelope for other bill")
	}

	if err := s.Delete(ctx, "IP2500001"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	_, found, _ = s.Load(ctx, "IP2500001")
	if found {
		t.Error("expected envelope gone after delete")
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	testStore(t, s)
}

func TestMemoryStore_SaveCopiesInput(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	discount := map[string]string{"total": "100"}
	if err := s.Save(ctx, "B1", discount); err != nil {
		t.Fatalf("save: %v", err)
	}
	discount["total"] = "999"

	env, _, _ := s.Load(ctx, "B1")
	if env.Discount["total"] != "100" {
		t.Errorf("envelope must not alias caller's map, got %q", env.Discount["total"])
	}
}

func TestFileStore_DeleteMissingIsNoop(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	if err := s.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("unexpected error deleting missing backup: %v", err)
	}
}
