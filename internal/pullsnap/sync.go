package pullsnap

import (
	"context"
	"fmt"
	"os"
	"strconv"
)

// maxAttempts bounds how many times one sync tick invokes the transfer tool
// when it keeps failing with transient conditions.
const maxAttempts = 3

// Service is the snapshot synchronization engine. It decides per scan tick
// whether each target is due, reserves destination space, drives the external
// transfer with retries, and maintains per-target scheduling state.
type Service struct {
	transfer  Transfer
	sizer     RemoteSizer
	disk      DiskFree
	journal   Journal
	logger    Logger
	clock     Clock
	remote    RemoteHost
	autoEvict bool
}

// NewService creates a Service with the provided dependencies.
func NewService(transfer Transfer, sizer RemoteSizer, disk DiskFree, journal Journal, logger Logger, clock Clock, remote RemoteHost, autoEvict bool) *Service {
	return &Service{
		transfer:  transfer,
		sizer:     sizer,
		disk:      disk,
		journal:   journal,
		logger:    logger,
		clock:     clock,
		remote:    remote,
		autoEvict: autoEvict,
	}
}

// SyncTarget evaluates one target for one scan tick. all is the complete
// target list; eviction considers versions across every target, not just the
// one being synchronized.
//
// A nil return means either a completed sync or a tick where nothing was
// due. Any non-nil error other than ErrDiskFull is a per-target sync
// failure: the target's due time is left unchanged so the next sweep retries
// it immediately.
func (s *Service) SyncTarget(ctx context.Context, t *Target, all []*Target) error {
	now := s.clock.Now()

	// Idle: not yet due.
	if !t.NextDue.IsZero() && !now.After(t.NextDue) {
		return nil
	}

	// Plan: a version for the current bucket may already exist, e.g. after a
	// daemon restart mid-interval.
	version := t.BucketStart(now).Unix()
	latest, hasLatest := LatestVersion(t)
	if hasLatest && latest == version {
		s.logger.Debug("bucket already backed up", "target", t.Name, "version", version)
		return nil
	}

	if err := s.reserveSpace(ctx, t, all); err != nil {
		return err
	}

	// Eviction may have deleted the version we would link against, so the
	// preceding version is re-fetched after space is reserved.
	prev, hasPrev := LatestVersion(t)

	started := now
	attempts, err := s.runTransfer(ctx, t, version, prev, hasPrev)
	if err != nil {
		// A failed transfer can leave a partially filled destination behind.
		// It must not survive: the catalog would report it as an installed
		// version, the next sweep would skip the bucket as already backed
		// up, and a later sync could hard-link against incomplete content.
		if rmErr := os.RemoveAll(VersionPath(t, version)); rmErr != nil {
			s.logger.Warn("removing partial version failed",
				"target", t.Name, "version", version, "error", rmErr)
		}
	}
	s.record(SyncRecord{
		Target:    t.Name,
		Version:   version,
		StartedAt: started,
		Duration:  s.clock.Now().Sub(started),
		Attempts:  attempts,
		Status:    statusOf(err),
		Detail:    detailOf(err),
	})
	if err != nil {
		return err
	}

	// Commit: the next sync is one full cadence from now. On any failure the
	// due time stays untouched so the target is retried next sweep.
	t.NextDue = now.Add(t.Cadence())
	s.logger.Info("sync complete", "target", t.Name, "version", version, "next_due", t.NextDue)
	return nil
}

// runTransfer invokes the transfer tool for a new version, retrying
// transient failures. Returns the number of invocations made.
func (s *Service) runTransfer(ctx context.Context, t *Target, version int64, prev int64, hasPrev bool) (int, error) {
	req := TransferRequest{
		Remote:     s.remote,
		RemotePath: t.SourcePath,
		Dest:       VersionPath(t, version) + "/",
		Directory:  t.IsDirectory,
		Delete:     t.DeleteExtraneous,
		Excludes:   t.Excludes,
	}
	// Hard-link unchanged files against the immediately preceding version.
	// File targets are copied whole; linkage buys nothing there.
	if hasPrev && t.IsDirectory {
		req.LinkDest = "../" + strconv.FormatInt(prev, 10)
	}

	for attempt := 1; ; attempt++ {
		s.logger.Info("transfer starting", "target", t.Name, "version", version, "attempt", attempt)

		res := s.transfer.Run(ctx, req)
		if res.Err != nil {
			return attempt, fmt.Errorf("running transfer for %q: %w", t.Name, res.Err)
		}
		if res.ExitCode == 0 {
			return attempt, nil
		}

		if transient(res) && attempt < maxAttempts {
			s.logger.Warn("transient transfer failure, retrying",
				"target", t.Name, "exit_code", res.ExitCode, "attempt", attempt)
			continue
		}

		if permission(res) {
			s.logger.Error("transfer failed reading the source; consider adding the offending path to this target's excludes",
				"target", t.Name, "exit_code", res.ExitCode)
		}
		return attempt, fmt.Errorf("transfer for %q failed with exit code %d", t.Name, res.ExitCode)
	}
}

// record writes a journal entry, logging rather than propagating failures.
func (s *Service) record(rec SyncRecord) {
	if err := s.journal.RecordSync(rec); err != nil {
		s.logger.Warn("journal write failed", "target", rec.Target, "error", err)
	}
}

func statusOf(err error) string {
	if err != nil {
		return StatusFailed
	}
	return StatusSuccess
}

func detailOf(err error) string {
	if err != nil {
		return err.Error()
	}
	return ""
}
