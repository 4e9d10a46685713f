package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/cwbudde/regionquadtree/internal/bench"
	"github.com/cwbudde/regionquadtree/internal/store"
)

func tinyBenchConfig() bench.Config {
	cfg := bench.DefaultConfig()
	cfg.Sizes = []int{4, 8}
	cfg.Iterations = 2
	cfg.Warmup = 0
	return cfg
}

func TestBenchAndSave_SavesRunAndTrace(t *testing.T) {
	runStore, err := store.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	cfg := tinyBenchConfig()

	report, run, err := benchAndSave(context.Background(), cfg, runStore)
	if err != nil {
		t.Fatalf("benchAndSave failed: %v", err)
	}
	if run == nil || len(report.Results) != len(cfg.Sizes)*len(cfg.Variants) {
		t.Fatalf("unexpected result: run=%v results=%d", run, len(report.Results))
	}

	infos, err := runStore.ListRuns()
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(infos) != 1 || infos[0].ID != run.ID {
		t.Fatalf("expected saved run %s, got %+v", run.ID, infos)
	}

	reader, err := store.NewTraceReader(runStore.BaseDir(), run.ID)
	if err != nil {
		t.Fatalf("Failed to open trace: %v", err)
	}
	defer reader.Close()
	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if want := len(cfg.Sizes) * len(cfg.Variants) * cfg.Iterations; len(entries) != want {
		t.Errorf("trace has %d entries, want %d", len(entries), want)
	}
}

func TestBenchAndSave_FailureLeavesNoRunDirectory(t *testing.T) {
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	invalid := tinyBenchConfig()
	invalid.Sizes = []int{6}

	tests := []struct {
		name string
		ctx  context.Context
		cfg  bench.Config
	}{
		{"interrupted", cancelled, tinyBenchConfig()},
		{"invalid config", context.Background(), invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runStore, err := store.NewFSStore(t.TempDir())
			if err != nil {
				t.Fatalf("Failed to create store: %v", err)
			}

			_, run, err := benchAndSave(tt.ctx, tt.cfg, runStore)
			if err == nil {
				t.Fatal("expected an error")
			}
			if run != nil {
				t.Error("no run should be returned on failure")
			}
			if tt.name == "interrupted" && !errors.Is(err, context.Canceled) {
				t.Errorf("expected context.Canceled, got %v", err)
			}

			entries, err := os.ReadDir(filepath.Join(runStore.BaseDir(), "runs"))
			if err != nil && !os.IsNotExist(err) {
				t.Fatalf("ReadDir failed: %v", err)
			}
			if len(entries) != 0 {
				t.Errorf("expected no run directories, found %d", len(entries))
			}
		})
	}
}

func TestBenchAndSave_WithoutStore(t *testing.T) {
	report, run, err := benchAndSave(context.Background(), tinyBenchConfig(), nil)
	if err != nil {
		t.Fatalf("benchAndSave failed: %v", err)
	}
	if run != nil {
		t.Error("nothing should be saved without a store")
	}
	if len(report.Results) == 0 {
		t.Error("expected results")
	}
}
