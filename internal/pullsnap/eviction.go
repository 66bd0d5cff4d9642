package pullsnap

import (
	"context"
	"fmt"
	"os"
	"sort"
)

// evictionCandidate is one installed version considered for deletion,
// tagged with the target that owns it.
type evictionCandidate struct {
	target  *Target
	version int64
	path    string
}

// reserveSpace ensures the destination volume can hold the next snapshot of
// t: at least as much free capacity as the remote source currently occupies.
//
// When capacity is short and automatic eviction is enabled, versions are
// deleted globally oldest-first across all targets until the requirement is
// met. Freed-space accounting is deliberately approximate: the requirement is
// the remote's full logical size even though hard-linked files in the new
// snapshot will consume no new space, so eviction may free more than strictly
// needed.
//
// Returns an error wrapping ErrDiskFull when the requirement cannot be met;
// a failed size probe is an ordinary (per-tick) sync failure.
func (s *Service) reserveSpace(ctx context.Context, t *Target, all []*Target) error {
	required, err := s.sizer.RemoteSize(ctx, t.SourcePath)
	if err != nil {
		return fmt.Errorf("probing remote size for %q: %w", t.Name, err)
	}

	free, err := s.disk.Free(t.LocalRoot)
	if err != nil {
		return fmt.Errorf("checking free space under %s: %w", t.LocalRoot, err)
	}

	if uint64(required) <= free {
		s.logger.Debug("space reserved", "target", t.Name,
			"required", required, "headroom", free-uint64(required))
		return nil
	}

	if !s.autoEvict {
		return fmt.Errorf("target %q needs %d bytes but only %d are free and automatic eviction is disabled: %w",
			t.Name, required, free, ErrDiskFull)
	}

	// Snapshot the full candidate list up front, then delete with re-checks.
	// Deleting while enumerating would risk skipped or double-counted entries.
	candidates := collectCandidates(all)
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].version < candidates[j].version })

	for _, c := range candidates {
		if err := os.RemoveAll(c.path); err != nil {
			return fmt.Errorf("evicting version %d of %q: %w", c.version, c.target.Name, err)
		}
		s.logger.Warn("evicted version to free space",
			"target", c.target.Name, "version", c.version, "for_target", t.Name)

		free, err = s.disk.Free(t.LocalRoot)
		if err != nil {
			return fmt.Errorf("checking free space under %s: %w", t.LocalRoot, err)
		}
		if uint64(required) <= free {
			return nil
		}
	}

	return fmt.Errorf("target %q needs %d bytes but only %d are free after evicting every version: %w",
		t.Name, required, free, ErrDiskFull)
}

// collectCandidates enumerates every installed version of every target.
func collectCandidates(targets []*Target) []evictionCandidate {
	var candidates []evictionCandidate
	for _, t := range targets {
		for _, version := range ListVersions(t) {
			candidates = append(candidates, evictionCandidate{
				target:  t,
				version: version,
				path:    VersionPath(t, version),
			})
		}
	}
	return candidates
}
