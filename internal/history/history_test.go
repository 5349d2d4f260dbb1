// SPDX-License-Identifier: MIT
package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	})
	return s
}

func sampleRun(id string, started time.Time) Run {
	return Run{
		ID:         id,
		StartedAt:  started,
		FinishedAt: started.Add(3 * time.Second),
		Mode:       "cli",
		Strategy:   "donut:50m,200m",
		Input:      "points.csv",
		Output:     "points.anon.csv",
		Rows:       1000,
		Masked:     990,
		Dropped:    8,
		Failed:     2,
		Outcome:    "success",
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, id := range []string{"run-1", "run-2", "run-3"} {
		run := sampleRun(id, base.Add(time.Duration(i)*time.Minute))
		if err := s.Record(ctx, run); err != nil {
			t.Fatalf("Record(%s) failed: %v", id, err)
		}
	}

	runs, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("Recent(2) returned %d runs", len(runs))
	}
	if runs[0].ID != "run-3" || runs[1].ID != "run-2" {
		t.Errorf("Recent() order = %s, %s; want run-3, run-2", runs[0].ID, runs[1].ID)
	}
	if !runs[0].StartedAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("StartedAt = %v, want %v", runs[0].StartedAt, base.Add(2*time.Minute))
	}
	if runs[0].Masked != 990 || runs[0].Dropped != 8 {
		t.Errorf("row counts lost: %+v", runs[0])
	}
}

func TestRecordIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	run := sampleRun("run-1", time.Now().UTC())

	if err := s.Record(ctx, run); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	run.Outcome = "failure"
	run.Error = "write failed"
	if err := s.Record(ctx, run); err != nil {
		t.Fatalf("second Record() failed: %v", err)
	}

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected 1 run after re-record, got %d", len(runs))
	}
	if runs[0].Outcome != "failure" || runs[0].Error != "write failed" {
		t.Errorf("re-record did not update: %+v", runs[0])
	}
}

func TestGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	run := sampleRun("run-42", time.Now().UTC().Truncate(time.Second))

	if err := s.Record(ctx, run); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}

	got, err := s.Get(ctx, "run-42")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.ID != "run-42" || got.Strategy != "donut:50m,200m" {
		t.Errorf("Get() = %+v", got)
	}

	_, err = s.Get(ctx, "missing")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("Get(missing) error = %v, want ErrNoRows", err)
	}
}

func TestPrune(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		run := sampleRun(string(rune('a'+i)), base.Add(time.Duration(i)*time.Minute))
		if err := s.Record(ctx, run); err != nil {
			t.Fatalf("Record() failed: %v", err)
		}
	}

	n, err := s.Prune(ctx, 3)
	if err != nil {
		t.Fatalf("Prune() failed: %v", err)
	}
	if n != 7 {
		t.Errorf("Prune() removed %d rows, want 7", n)
	}

	runs, err := s.Recent(ctx, 100)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("expected 3 surviving runs, got %d", len(runs))
	}
	if runs[0].ID != "j" {
		t.Errorf("newest survivor = %s, want j", runs[0].ID)
	}

	// keep <= 0 disables pruning
	n, err = s.Prune(ctx, 0)
	if err != nil {
		t.Fatalf("Prune(0) failed: %v", err)
	}
	if n != 0 {
		t.Errorf("Prune(0) removed %d rows", n)
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if err := s.Record(ctx, sampleRun("run-1", time.Now().UTC())); err != nil {
		t.Fatalf("Record() failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close() failed: %v", err)
	}

	s, err = Open(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() failed: %v", err)
		}
	}()

	runs, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent() failed: %v", err)
	}
	if len(runs) != 1 {
		t.Errorf("expected 1 run after reopen, got %d", len(runs))
	}
}
