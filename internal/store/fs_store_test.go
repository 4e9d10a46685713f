package store

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

// setupTestStore creates a temporary directory and returns an FSStore for testing.
func setupTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()

	tempDir := t.TempDir()
	store, err := NewFSStore(tempDir)
	if err != nil {
		t.Fatalf("Failed to create test store: %v", err)
	}
	return store, tempDir
}

// createTestRun creates a valid run with one size and two variants.
func createTestRun() *Run {
	return NewRun(RunConfig{
		Sizes:      []int{1024},
		Variants:   []string{"naive", "vectorized"},
		Iterations: 5,
		Warmup:     1,
		Seed:       42,
		Pattern:    "random",
	}, "AVX2", []ResultRecord{
		{Size: 1024, Variant: "naive", Iterations: 5, MinNs: 900, MeanNs: 1000, MedianNs: 990, MaxNs: 1200, Nodes: 1398101, Leaves: 1048576, Depth: 10},
		{Size: 1024, Variant: "vectorized", Iterations: 5, MinNs: 400, MeanNs: 450, MedianNs: 440, MaxNs: 600, Nodes: 1398101, Leaves: 1048576, Depth: 10},
	})
}

func TestNewFSStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewFSStore(dir)
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	if store.BaseDir() != dir {
		t.Errorf("BaseDir = %q, want %q", store.BaseDir(), dir)
	}
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Fatal("Base directory was not created")
	}
}

func TestSaveAndLoadRun(t *testing.T) {
	store, tempDir := setupTestStore(t)
	run := createTestRun()

	if err := store.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	path := filepath.Join(tempDir, "runs", run.ID, "run.json")
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("run.json not written: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temp file should be renamed away")
	}

	loaded, err := store.LoadRun(run.ID)
	if err != nil {
		t.Fatalf("LoadRun failed: %v", err)
	}

	if loaded.ID != run.ID {
		t.Errorf("ID mismatch: got %s, want %s", loaded.ID, run.ID)
	}
	if loaded.Backend != "AVX2" {
		t.Errorf("Backend mismatch: got %s", loaded.Backend)
	}
	if !loaded.Timestamp.Equal(run.Timestamp) {
		t.Errorf("Timestamp mismatch: got %v, want %v", loaded.Timestamp, run.Timestamp)
	}
	if len(loaded.Results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(loaded.Results))
	}
	if loaded.Results[1] != run.Results[1] {
		t.Errorf("Result mismatch: got %+v, want %+v", loaded.Results[1], run.Results[1])
	}
	if loaded.Config.Seed != 42 || loaded.Config.Pattern != "random" {
		t.Errorf("Config mismatch: %+v", loaded.Config)
	}
}

func TestSaveRun_Invalid(t *testing.T) {
	store, _ := setupTestStore(t)

	if err := store.SaveRun(nil); err == nil {
		t.Error("expected error for nil run")
	}

	run := createTestRun()
	run.Results = run.Results[:1]
	err := store.SaveRun(run)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "Results" {
		t.Errorf("unexpected field %q", verr.Field)
	}
}

func TestLoadRun_NotFound(t *testing.T) {
	store, _ := setupTestStore(t)

	_, err := store.LoadRun("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err.Error() != "run not found: missing" {
		t.Errorf("unexpected message %q", err.Error())
	}

	if _, err := store.LoadRun(""); err == nil {
		t.Error("expected error for empty run ID")
	}
}

func TestLoadRun_Corrupted(t *testing.T) {
	store, tempDir := setupTestStore(t)

	dir := filepath.Join(tempDir, "runs", "broken")
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "run.json"), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := store.LoadRun("broken"); err == nil || errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deserialization error, got %v", err)
	}

	// Corrupted runs are skipped in listings.
	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 0 {
		t.Errorf("expected no runs, got %d", len(infos))
	}
}

func TestListRuns_SortedOldestFirst(t *testing.T) {
	store, _ := setupTestStore(t)

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns on empty store failed: %v", err)
	}
	if len(infos) != 0 {
		t.Fatalf("expected empty listing, got %d", len(infos))
	}

	base := time.Now()
	var ids []string
	for i := 3; i > 0; i-- {
		run := createTestRun()
		run.Timestamp = base.Add(-time.Duration(i) * time.Hour)
		if err := store.SaveRun(run); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
		ids = append(ids, run.ID)
	}

	infos, err = store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(infos))
	}
	for i, info := range infos {
		if info.ID != ids[i] {
			t.Errorf("position %d: got %s, want %s", i, info.ID, ids[i])
		}
		if info.Results != 2 {
			t.Errorf("expected 2 results, got %d", info.Results)
		}
	}
}

func TestDeleteRun(t *testing.T) {
	store, _ := setupTestStore(t)
	run := createTestRun()

	if err := store.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	tw, err := NewTraceWriter(store.BaseDir(), run.ID)
	if err != nil {
		t.Fatalf("NewTraceWriter failed: %v", err)
	}
	tw.Write(TraceEntry{Size: 4, Variant: "naive", Iteration: 0, ElapsedNs: 10, Timestamp: time.Now()})
	tw.Close()

	if err := store.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := os.Stat(store.RunDir(run.ID)); !os.IsNotExist(err) {
		t.Error("run directory should be gone")
	}
	if err := store.DeleteRun(run.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestFSStore_ConcurrentSaves(t *testing.T) {
	store, _ := setupTestStore(t)

	const goroutines = 8
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- store.SaveRun(createTestRun())
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent SaveRun failed: %v", err)
		}
	}

	infos, err := store.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != goroutines {
		t.Errorf("expected %d runs, got %d", goroutines, len(infos))
	}
}
