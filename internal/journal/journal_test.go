package journal_test

import (
	"path/filepath"
	"testing"
	"time"

	"pullsnap-go/internal/journal"
	"pullsnap-go/internal/pullsnap"
)

func openJournal(t *testing.T) *journal.SQLite {
	t.Helper()
	j, err := journal.Open(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func record(target string, version int64, status string) pullsnap.SyncRecord {
	return pullsnap.SyncRecord{
		Target:    target,
		Version:   version,
		StartedAt: time.Date(2024, 6, 13, 8, 0, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Attempts:  1,
		Status:    status,
	}
}

func TestSQLite_RecordAndList(t *testing.T) {
	j := openJournal(t)

	if err := j.RecordSync(record("t1", 1000, pullsnap.StatusSuccess)); err != nil {
		t.Fatalf("RecordSync() error = %v", err)
	}
	if err := j.RecordSync(record("t2", 2000, pullsnap.StatusFailed)); err != nil {
		t.Fatalf("RecordSync() error = %v", err)
	}
	if err := j.RecordSync(record("t1", 3000, pullsnap.StatusSuccess)); err != nil {
		t.Fatalf("RecordSync() error = %v", err)
	}

	t.Run("lists newest first", func(t *testing.T) {
		records, err := j.List("", 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("records = %d, want 3", len(records))
		}
		if records[0].Version != 3000 || records[2].Version != 1000 {
			t.Errorf("order = [%d %d %d], want newest first", records[0].Version, records[1].Version, records[2].Version)
		}
	})

	t.Run("filters by target", func(t *testing.T) {
		records, err := j.List("t2", 0)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 1 || records[0].Target != "t2" {
			t.Fatalf("records = %+v, want just t2", records)
		}
		if records[0].Status != pullsnap.StatusFailed {
			t.Errorf("status = %q, want failed", records[0].Status)
		}
	})

	t.Run("applies the limit", func(t *testing.T) {
		records, err := j.List("", 2)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		if len(records) != 2 {
			t.Errorf("records = %d, want 2", len(records))
		}
	})

	t.Run("round trips time fields", func(t *testing.T) {
		records, err := j.List("t2", 1)
		if err != nil {
			t.Fatalf("List() error = %v", err)
		}
		rec := records[0]
		if !rec.StartedAt.Equal(time.Date(2024, 6, 13, 8, 0, 0, 0, time.UTC)) {
			t.Errorf("started_at = %v", rec.StartedAt)
		}
		if rec.Duration != 1500*time.Millisecond {
			t.Errorf("duration = %v, want 1.5s", rec.Duration)
		}
	})
}

func TestOpen_MigratesSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := journal.Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	j.Close()

	// Reopening an already-migrated database must succeed.
	j, err = journal.Open(path)
	if err != nil {
		t.Fatalf("reopening journal: %v", err)
	}
	j.Close()
}
