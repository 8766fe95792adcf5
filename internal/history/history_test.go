package history

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordAndRecentRuns(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	first := Run{
		StartedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
		Duration:   1500 * time.Millisecond,
		Mode:       "dir",
		TargetLang: "en",
		Candidates: 12,
		Translated: 10,
		CacheHits:  1,
		Skipped:    1,
		Failed:     1,
		Commit:     "a1b2c3d4e5f6",
	}
	if err := store.RecordRun(first); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	second := Run{
		StartedAt:  time.Date(2025, 3, 2, 9, 30, 0, 0, time.UTC),
		Duration:   200 * time.Millisecond,
		Mode:       "watch",
		TargetLang: "de",
		Candidates: 1,
		Translated: 1,
	}
	if err := store.RecordRun(second); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	runs, err := store.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}

	// Newest first
	if runs[0].Mode != "watch" || runs[1].Mode != "dir" {
		t.Errorf("unexpected order: %s, %s", runs[0].Mode, runs[1].Mode)
	}

	got := runs[1]
	if !got.StartedAt.Equal(first.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, first.StartedAt)
	}
	if got.Duration != first.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, first.Duration)
	}
	if got.TargetLang != "en" || got.Candidates != 12 || got.Translated != 10 ||
		got.CacheHits != 1 || got.Skipped != 1 || got.Failed != 1 {
		t.Errorf("run fields not round-tripped: %+v", got)
	}
	if got.Commit != first.Commit {
		t.Errorf("Commit = %q, want %q", got.Commit, first.Commit)
	}
}

func TestRecentRunsLimit(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	for i := 0; i < 5; i++ {
		run := Run{StartedAt: time.Now(), Mode: "dir", TargetLang: "en"}
		if err := store.RecordRun(run); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := store.RecentRuns(3)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 3 {
		t.Errorf("expected 3 runs, got %d", len(runs))
	}
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")

	store, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.RecordRun(Run{StartedAt: time.Now(), Mode: "file", TargetLang: "fr"}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	store.Close()

	reopened, err := Open(dbPath)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.RecentRuns(10)
	if err != nil {
		t.Fatalf("RecentRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].Mode != "file" {
		t.Errorf("expected the recorded run to survive reopening, got %+v", runs)
	}
}
