package pullsnap

import "time"

// SyncRecord is one journal entry describing a completed sync attempt for a
// target, successful or not. The journal is purely advisory; the directory
// layout remains the authoritative record of installed versions.
type SyncRecord struct {
	ID        int64
	Target    string
	Version   int64
	StartedAt time.Time
	Duration  time.Duration
	Attempts  int
	Status    string // "success" or "failed"
	Detail    string
}

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Journal persists sync records. Implementations must never fail a sync:
// the sync Service logs journal errors and moves on.
type Journal interface {
	RecordSync(rec SyncRecord) error
}

// NopJournal discards all records. Use when journaling is disabled.
type NopJournal struct{}

func (NopJournal) RecordSync(SyncRecord) error { return nil }
