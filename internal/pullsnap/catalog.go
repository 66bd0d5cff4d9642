package pullsnap

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
)

// ListVersions returns the timestamps of all installed snapshot versions for
// a target, sorted ascending. Entries under the local root whose names are
// not integers (cache files, editor droppings) are ignored. A root that
// cannot be listed yields an empty result rather than an error: a missing
// root simply means no versions exist yet.
func ListVersions(t *Target) []int64 {
	entries, err := os.ReadDir(t.LocalRoot)
	if err != nil {
		return nil
	}

	var versions []int64
	for _, entry := range entries {
		ts, err := strconv.ParseInt(entry.Name(), 10, 64)
		if err != nil {
			continue
		}
		versions = append(versions, ts)
	}

	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// LatestVersion returns the newest installed version timestamp, if any.
func LatestVersion(t *Target) (int64, bool) {
	versions := ListVersions(t)
	if len(versions) == 0 {
		return 0, false
	}
	return versions[len(versions)-1], true
}

// VersionPath returns the directory a version with the given timestamp would
// occupy, whether or not it exists.
func VersionPath(t *Target, timestamp int64) string {
	return filepath.Join(t.LocalRoot, strconv.FormatInt(timestamp, 10))
}

// ResolveVersion returns the directory of an installed version, or an error
// wrapping ErrNotFound if no version with that exact timestamp exists.
func ResolveVersion(t *Target, timestamp int64) (string, error) {
	path := VersionPath(t, timestamp)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("target %q has no version %d: %w", t.Name, timestamp, ErrNotFound)
	}
	return path, nil
}

// FindTarget looks a target up by name.
func FindTarget(targets []*Target, name string) (*Target, error) {
	for _, t := range targets {
		if t.Name == name {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unknown target %q: %w", name, ErrNotFound)
}
