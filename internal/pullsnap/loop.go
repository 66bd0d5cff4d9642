package pullsnap

import (
	"context"
	"errors"
	"time"
)

// Sweep processes every target once, in configured order. Per-target sync
// failures are logged and isolated; only a Disk Full condition escapes,
// because continuing without space risks partial snapshots for every target.
func (s *Service) Sweep(ctx context.Context, targets []*Target) error {
	for _, t := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.SyncTarget(ctx, t, targets); err != nil {
			if errors.Is(err, ErrDiskFull) {
				return err
			}
			s.logger.Error("sync failed", "target", t.Name, "error", err)
		}
	}
	return nil
}

// Run drives sweeps until the context is cancelled or a fatal error occurs.
// The inter-sweep interval only bounds how promptly a due target is noticed;
// it is not part of any target's cadence.
func (s *Service) Run(ctx context.Context, targets []*Target, scanInterval time.Duration) error {
	s.logger.Info("scan loop starting", "targets", len(targets), "scan_interval", scanInterval)

	for {
		if err := s.Sweep(ctx, targets); err != nil {
			if errors.Is(err, ErrDiskFull) {
				s.logger.Error("destination volume is full, stopping", "error", err)
			}
			return err
		}

		select {
		case <-ctx.Done():
			s.logger.Info("scan loop stopping")
			return ctx.Err()
		case <-time.After(scanInterval):
		}
	}
}
