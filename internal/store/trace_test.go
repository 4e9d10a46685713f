package store

import (
	"errors"
	"io"
	"testing"
	"time"
)

func TestTraceWriter_WriteAndRead(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run"

	writer, err := NewTraceWriter(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}

	entries := []TraceEntry{
		{Size: 4, Variant: "naive", Iteration: 0, ElapsedNs: 120, Timestamp: time.Now()},
		{Size: 4, Variant: "naive", Iteration: 1, ElapsedNs: 110, Timestamp: time.Now()},
		{Size: 8, Variant: "vectorized", Iteration: 0, ElapsedNs: 300, Timestamp: time.Now()},
	}
	for _, entry := range entries {
		if err := writer.Write(entry); err != nil {
			t.Fatalf("Failed to write entry: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close writer: %v", err)
	}

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	readEntries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("Failed to read entries: %v", err)
	}
	if len(readEntries) != len(entries) {
		t.Fatalf("Expected %d entries, got %d", len(entries), len(readEntries))
	}

	for i, entry := range readEntries {
		if entry.Size != entries[i].Size || entry.Variant != entries[i].Variant {
			t.Errorf("Entry %d: expected %d/%s, got %d/%s", i, entries[i].Size, entries[i].Variant, entry.Size, entry.Variant)
		}
		if entry.ElapsedNs != entries[i].ElapsedNs {
			t.Errorf("Entry %d: expected elapsed %d, got %d", i, entries[i].ElapsedNs, entry.ElapsedNs)
		}
	}
}

func TestTraceWriter_Flush(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-flush"

	writer, err := NewTraceWriter(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	defer writer.Close()

	if err := writer.Write(TraceEntry{Size: 16, Variant: "early-exit", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}
	if err := writer.Flush(); err != nil {
		t.Fatalf("Failed to flush: %v", err)
	}

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entry, err := reader.Read()
	if err != nil {
		t.Fatalf("Failed to read flushed entry: %v", err)
	}
	if entry.Size != 16 {
		t.Errorf("expected size 16, got %d", entry.Size)
	}
	if _, err := reader.Read(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
	if writer.Path() == "" {
		t.Error("Path should not be empty")
	}
}

func TestTraceReader_NotFound(t *testing.T) {
	_, err := NewTraceReader(t.TempDir(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestTraceWriter_CloseTwice(t *testing.T) {
	tmpDir := t.TempDir()
	runID := "test-run-close"

	writer, err := NewTraceWriter(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace writer: %v", err)
	}
	if err := writer.Write(TraceEntry{Size: 4, Variant: "naive", Timestamp: time.Now()}); err != nil {
		t.Fatalf("Failed to write entry: %v", err)
	}

	if err := writer.Close(); err != nil {
		t.Fatalf("First close failed: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Errorf("Second close should be a no-op, got %v", err)
	}
	if err := writer.Write(TraceEntry{Size: 4}); err == nil {
		t.Error("Write after Close should fail")
	}
	if err := writer.Flush(); err == nil {
		t.Error("Flush after Close should fail")
	}

	reader, err := NewTraceReader(tmpDir, runID)
	if err != nil {
		t.Fatalf("Failed to create trace reader: %v", err)
	}
	defer reader.Close()

	entries, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 entry, got %d", len(entries))
	}
}
