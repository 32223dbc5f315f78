package retry

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDLQ_AddAndGet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlq.json")

	dlq, err := NewDLQ(path)
	if err != nil {
		t.Fatalf("Failed to create DLQ: %v", err)
	}

	err = dlq.Add(DLQEntry{
		Timestamp:   time.Now(),
		Attempts:    3,
		LastError:   "connection timeout",
		FailureType: "max_attempts_exceeded",
		Data:        map[string]string{"query": "roads"},
	})
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	entries := dlq.Get()
	if len(entries) != 1 {
		t.Fatalf("Expected 1 entry, got %d", len(entries))
	}
	if entries[0].LastError != "connection timeout" {
		t.Errorf("LastError = %q", entries[0].LastError)
	}
	if entries[0].ID == "" {
		t.Error("Expected non-empty ID")
	}
	if dlq.Path() != path {
		t.Errorf("Path() = %q", dlq.Path())
	}
}

func TestDLQ_PersistAndClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlq.json")

	dlq, _ := NewDLQ(path)
	dlq.Add(DLQEntry{Timestamp: time.Now(), LastError: "a"})
	dlq.Add(DLQEntry{Timestamp: time.Now(), LastError: "b"})

	reopened, err := NewDLQ(path)
	if err != nil {
		t.Fatalf("NewDLQ() error = %v", err)
	}
	if reopened.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", reopened.Size())
	}

	reopened.Add(DLQEntry{Timestamp: time.Now(), LastError: "c"})
	ids := map[string]bool{}
	for _, e := range reopened.Get() {
		if ids[e.ID] {
			t.Errorf("duplicate ID %s", e.ID)
		}
		ids[e.ID] = true
	}

	if err := reopened.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	data, _ := os.ReadFile(path)
	if string(data) != "[]" {
		t.Errorf("file after Clear = %q", data)
	}
}

func TestDLQ_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dlq.json")
	os.WriteFile(path, []byte("{not json"), 0644)

	if _, err := NewDLQ(path); err == nil {
		t.Error("Expected error for corrupt file")
	}
}
