package pullsnap

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Interval is the calendar unit a target's snapshots are bucketed by.
type Interval string

const (
	Minute Interval = "minute"
	Hour   Interval = "hour"
	Day    Interval = "day"
	Week   Interval = "week"
	Month  Interval = "month"
	Year   Interval = "year"
)

// intervalSeconds maps each interval to its length in seconds. Month and year
// use fixed approximations (30.5 and 365 days) rather than calendar
// arithmetic; existing deployments depend on these exact values, so they
// must not be "fixed".
var intervalSeconds = map[Interval]int64{
	Minute: 60,
	Hour:   3600,
	Day:    86400,
	Week:   604800,
	Month:  2635200,  // 30.5 days
	Year:   31536000, // 365 days
}

// TargetSpec is the raw, unvalidated definition of a backup target as it
// arrives from configuration. Optional booleans are pointers so that
// "unset" is distinguishable from "explicitly false".
type TargetSpec struct {
	Name             string
	SourcePath       string
	IsDirectory      *bool
	Interval         string
	Frequency        int
	Excludes         []string
	DeleteExtraneous *bool
	AllowLocalSource bool
}

// Target is a validated backup target with its derived scheduling state.
// NextDue is zero until the first successful sync; the sync Service is the
// only writer.
type Target struct {
	Name             string
	SourcePath       string
	IsDirectory      bool
	Interval         Interval
	Frequency        int
	Excludes         []string
	DeleteExtraneous bool
	LocalRoot        string
	WeekStart        time.Weekday

	NextDue time.Time
}

// NewTarget validates a TargetSpec and produces a Target rooted under
// backupRoot. The target's local root directory is created if absent.
//
// Defaults: interval=day, frequency=1, is_directory=true. An unset
// delete-on-remote-removal flag defaults to false: files deleted on the
// remote are retained in new snapshots unless the operator opts in.
func NewTarget(spec TargetSpec, backupRoot string, weekStart time.Weekday) (*Target, error) {
	if spec.SourcePath == "" {
		return nil, fmt.Errorf("target %q: source_path is required", spec.Name)
	}

	name := spec.Name
	if name == "" {
		name = deriveName(spec.SourcePath)
	}
	if name == "" {
		return nil, fmt.Errorf("cannot derive a target name from source path %q", spec.SourcePath)
	}

	isDir := true
	if spec.IsDirectory != nil {
		isDir = *spec.IsDirectory
	}

	interval := Day
	if spec.Interval != "" {
		interval = Interval(spec.Interval)
	}
	if _, ok := intervalSeconds[interval]; !ok {
		return nil, fmt.Errorf("target %q: unknown interval %q", name, spec.Interval)
	}

	frequency := spec.Frequency
	if frequency == 0 {
		frequency = 1
	}
	if frequency < 0 {
		return nil, fmt.Errorf("target %q: frequency must be positive, got %d", name, spec.Frequency)
	}

	deleteExtraneous := false
	if spec.DeleteExtraneous != nil {
		deleteExtraneous = *spec.DeleteExtraneous
	}

	source := normalizeSourcePath(spec.SourcePath, isDir)

	// A source path that also exists locally almost always means the operator
	// configured a local path where a remote one was intended. Refuse unless
	// they have explicitly said otherwise.
	if !spec.AllowLocalSource {
		probe := strings.TrimSuffix(source, "/")
		if _, err := os.Stat(probe); err == nil {
			return nil, fmt.Errorf("target %q: source path %s exists on this host; set allow_local_source if this is intentional", name, probe)
		}
	}

	localRoot := filepath.Join(backupRoot, name)
	if err := os.MkdirAll(localRoot, 0755); err != nil {
		return nil, fmt.Errorf("target %q: creating local root: %w", name, err)
	}

	return &Target{
		Name:             name,
		SourcePath:       source,
		IsDirectory:      isDir,
		Interval:         interval,
		Frequency:        frequency,
		Excludes:         append([]string(nil), spec.Excludes...),
		DeleteExtraneous: deleteExtraneous,
		LocalRoot:        localRoot,
		WeekStart:        weekStart,
	}, nil
}

// NewTargets validates a list of specs, enforcing name uniqueness across the
// whole server instance.
func NewTargets(specs []TargetSpec, backupRoot string, weekStart time.Weekday) ([]*Target, error) {
	seen := make(map[string]bool, len(specs))
	targets := make([]*Target, 0, len(specs))

	for _, spec := range specs {
		t, err := NewTarget(spec, backupRoot, weekStart)
		if err != nil {
			return nil, err
		}
		if seen[t.Name] {
			return nil, fmt.Errorf("duplicate target name %q", t.Name)
		}
		seen[t.Name] = true
		targets = append(targets, t)
	}

	return targets, nil
}

// Cadence returns the wall-clock interval between successful syncs.
func (t *Target) Cadence() time.Duration {
	return time.Duration(intervalSeconds[t.Interval]*int64(t.Frequency)) * time.Second
}

// BucketStart truncates now down to the start of its enclosing interval.
// The result names the version directory for a sync at time now.
func (t *Target) BucketStart(now time.Time) time.Time {
	y, m, d := now.Date()
	loc := now.Location()

	switch t.Interval {
	case Minute:
		return time.Date(y, m, d, now.Hour(), now.Minute(), 0, 0, loc)
	case Hour:
		return time.Date(y, m, d, now.Hour(), 0, 0, 0, loc)
	case Day:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	case Week:
		midnight := time.Date(y, m, d, 0, 0, 0, 0, loc)
		back := (int(now.Weekday()) - int(t.WeekStart) + 7) % 7
		return midnight.AddDate(0, 0, -back)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	}
	// Unreachable: NewTarget rejects unknown intervals.
	return now
}

// deriveName builds a target name from a source path when none was
// configured: path separators collapse to underscores.
func deriveName(sourcePath string) string {
	trimmed := strings.Trim(sourcePath, "/")
	return strings.ReplaceAll(trimmed, "/", "_")
}

// normalizeSourcePath collapses duplicate trailing slashes and guarantees
// exactly one trailing slash for directory targets, none for file targets.
func normalizeSourcePath(path string, isDir bool) string {
	trimmed := strings.TrimRight(path, "/")
	if trimmed == "" {
		trimmed = "/"
	}
	if isDir && !strings.HasSuffix(trimmed, "/") {
		return trimmed + "/"
	}
	return trimmed
}
