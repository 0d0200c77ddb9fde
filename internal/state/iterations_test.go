package state

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ShayCichocki/compo/pkg/models"
)

// setupTestDB creates a new temporary database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := db.Migrate(); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func sampleResult(id string, start time.Time) models.IterationResult {
	return models.IterationResult{
		ID:             id,
		Success:        true,
		Duration:       1500 * time.Millisecond,
		FinalState:     models.StateComplete,
		Message:        "created 2 node(s)",
		CreatedNodeIDs: []string{"Background1", "Text+2"},
		GeneratedPaths: []string{},
		StartedAt:      start,
	}
}

func TestOpenCreatesParentDirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a", "b", "test.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("database file does not exist at %s", path)
	}
}

func TestMigrateIdempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.Migrate(); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}
}

func TestRecordAndGet(t *testing.T) {
	store := NewStore(setupTestDB(t), 0)
	ctx := context.Background()

	want := sampleResult("iter-1", time.Now().UTC().Truncate(time.Second))
	if err := store.Record(ctx, want); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, "iter-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	if got.ID != want.ID || got.Success != want.Success {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if got.Duration != want.Duration {
		t.Errorf("duration = %v, want %v", got.Duration, want.Duration)
	}
	if got.FinalState != models.StateComplete {
		t.Errorf("final state = %v", got.FinalState)
	}
	if len(got.CreatedNodeIDs) != 2 || got.CreatedNodeIDs[0] != "Background1" {
		t.Errorf("node ids = %v", got.CreatedNodeIDs)
	}
}

func TestRecentNewestFirst(t *testing.T) {
	store := NewStore(setupTestDB(t), 0)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		result := sampleResult(fmt.Sprintf("iter-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.Record(ctx, result); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	recent, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("got %d results, want 3", len(recent))
	}
	if recent[0].ID != "iter-4" || recent[2].ID != "iter-2" {
		t.Errorf("order = %s..%s, want iter-4..iter-2", recent[0].ID, recent[2].ID)
	}
}

func TestBoundedRetention(t *testing.T) {
	store := NewStore(setupTestDB(t), 3)
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 6; i++ {
		result := sampleResult(fmt.Sprintf("iter-%d", i), base.Add(time.Duration(i)*time.Minute))
		if err := store.Record(ctx, result); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	count, err := store.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}

	// Oldest entries are gone, newest survive.
	if _, err := store.Get(ctx, "iter-0"); err == nil {
		t.Error("iter-0 should have been pruned")
	}
	if _, err := store.Get(ctx, "iter-5"); err != nil {
		t.Errorf("iter-5 should survive: %v", err)
	}
}

func TestRecordFailedIteration(t *testing.T) {
	store := NewStore(setupTestDB(t), 0)
	ctx := context.Background()

	result := models.IterationResult{
		ID:             "iter-err",
		Success:        false,
		FinalState:     models.StateError,
		Message:        "generation backend unavailable: cannot run generation_only plan",
		Error:          "generation backend unavailable: cannot run generation_only plan",
		CreatedNodeIDs: []string{},
		GeneratedPaths: []string{},
		StartedAt:      time.Now().UTC(),
	}
	if err := store.Record(ctx, result); err != nil {
		t.Fatalf("Record: %v", err)
	}

	got, err := store.Get(ctx, "iter-err")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Success {
		t.Error("success should round-trip as false")
	}
	if got.Error == "" {
		t.Error("error field lost")
	}
}
