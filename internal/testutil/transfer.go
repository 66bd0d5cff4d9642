package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"pullsnap-go/internal/pullsnap"
)

// ScriptedTransfer is a Transfer that returns pre-programmed results in
// order and records every request it receives. When the script runs out it
// keeps returning the last result.
//
// Any invocation that reaches the tool (no launch error) materializes the
// destination directory, and a failing one leaves a partial file in it.
// Real rsync creates and part-fills the destination before a mid-transfer
// failure, so callers see the same on-disk state after a failed run.
type ScriptedTransfer struct {
	mu       sync.Mutex
	script   []pullsnap.TransferResult
	Requests []pullsnap.TransferRequest
}

// NewScriptedTransfer creates a transfer that plays back the given results.
// With no results it always succeeds.
func NewScriptedTransfer(results ...pullsnap.TransferResult) *ScriptedTransfer {
	return &ScriptedTransfer{script: results}
}

func (s *ScriptedTransfer) Run(_ context.Context, req pullsnap.TransferRequest) pullsnap.TransferResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)

	res := pullsnap.TransferResult{}
	if len(s.script) > 0 {
		res = s.script[0]
		if len(s.script) > 1 {
			s.script = s.script[1:]
		}
	}

	if res.Err == nil {
		os.MkdirAll(req.Dest, 0755)
		if res.ExitCode != 0 {
			os.WriteFile(filepath.Join(req.Dest, "partial.bin"), []byte("truncated"), 0644)
		}
	}
	return res
}

// Calls returns how many times Run was invoked.
func (s *ScriptedTransfer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

// StubSizer reports a fixed remote size or a fixed error.
type StubSizer struct {
	Size int64
	Err  error
}

func (s *StubSizer) RemoteSize(context.Context, string) (int64, error) {
	return s.Size, s.Err
}

// StubDiskFree plays back a sequence of free-space readings, repeating the
// last one once the sequence is exhausted.
type StubDiskFree struct {
	mu  sync.Mutex
	seq []uint64
	Err error
}

func NewStubDiskFree(seq ...uint64) *StubDiskFree {
	return &StubDiskFree{seq: seq}
}

func (d *StubDiskFree) Free(string) (uint64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.Err != nil {
		return 0, d.Err
	}
	if len(d.seq) == 0 {
		return 0, nil
	}
	free := d.seq[0]
	if len(d.seq) > 1 {
		d.seq = d.seq[1:]
	}
	return free, nil
}

// MemJournal records sync records in memory.
type MemJournal struct {
	mu      sync.Mutex
	Records []pullsnap.SyncRecord
}

func NewMemJournal() *MemJournal {
	return &MemJournal{}
}

func (j *MemJournal) RecordSync(rec pullsnap.SyncRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.Records = append(j.Records, rec)
	return nil
}

// MakeTarget builds a directory target rooted under a fresh temp dir.
func MakeTarget(t *testing.T, name string) *pullsnap.Target {
	t.Helper()

	target, err := pullsnap.NewTarget(pullsnap.TargetSpec{
		Name:             name,
		SourcePath:       "/data/" + name,
		AllowLocalSource: true,
	}, t.TempDir(), time.Monday)
	if err != nil {
		t.Fatalf("NewTarget(%s) error = %v", name, err)
	}
	return target
}

// MakeVersionDir creates a version directory with one content file under a
// target's local root.
func MakeVersionDir(t *testing.T, target *pullsnap.Target, timestamp int64) string {
	t.Helper()

	path := filepath.Join(target.LocalRoot, strconv.FormatInt(timestamp, 10))
	if err := os.MkdirAll(path, 0755); err != nil {
		t.Fatalf("creating version dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(path, "file.txt"), []byte("data"), 0644); err != nil {
		t.Fatalf("writing version file: %v", err)
	}
	return path
}
