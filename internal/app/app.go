package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pullsnap-go/internal/config"
	"pullsnap-go/internal/fs"
	"pullsnap-go/internal/journal"
	"pullsnap-go/internal/pullsnap"
	"pullsnap-go/internal/transfer"
)

// App is the application layer between the CLI and the synchronization
// engine. It constructs all dependencies from config, exposes high-level
// operations, and manages the journal lifecycle on Close.
type App struct {
	cfg     *config.Config
	targets []*pullsnap.Target
	service *pullsnap.Service
	journal *journal.SQLite // nil when journaling is disabled
	logFile *os.File
}

// NewApp creates a fully wired App from the given config.
// operation identifies the CLI command being run (e.g. "Start", "Restore").
// The caller must call Close when done.
func NewApp(cfg *config.Config, operation string) (*App, error) {
	if cfg.BackupRoot == "" {
		return nil, fmt.Errorf("backup_root is required")
	}
	if cfg.Remote.Host == "" || cfg.Remote.User == "" {
		return nil, fmt.Errorf("remote host and user are required")
	}

	weekStart, err := parseWeekStart(cfg.WeekStart)
	if err != nil {
		return nil, err
	}

	specs := make([]pullsnap.TargetSpec, 0, len(cfg.Targets))
	for _, tc := range cfg.Targets {
		specs = append(specs, pullsnap.TargetSpec{
			Name:             tc.Name,
			SourcePath:       tc.SourcePath,
			IsDirectory:      tc.IsDirectory,
			Interval:         tc.Interval,
			Frequency:        tc.Frequency,
			Excludes:         tc.Excludes,
			DeleteExtraneous: tc.DeleteOnRemoteRemoval,
			AllowLocalSource: tc.AllowLocalSource,
		})
	}
	targets, err := pullsnap.NewTargets(specs, cfg.BackupRoot, weekStart)
	if err != nil {
		return nil, fmt.Errorf("invalid target configuration: %w", err)
	}

	var jnl *journal.SQLite
	var coreJournal pullsnap.Journal = pullsnap.NopJournal{}
	switch cfg.Journal.Type {
	case "", "sqlite":
		dataDir := cfg.Journal.DataDir
		if dataDir == "" {
			dataDir = cfg.BackupRoot
		}
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
		jnl, err = journal.Open(filepath.Join(dataDir, "journal.db"))
		if err != nil {
			return nil, fmt.Errorf("opening journal: %w", err)
		}
		coreJournal = jnl
	case "none":
	default:
		return nil, fmt.Errorf("unknown journal type: %s", cfg.Journal.Type)
	}

	remote := pullsnap.RemoteHost{
		User:    cfg.Remote.User,
		Host:    cfg.Remote.Host,
		Port:    remotePort(cfg.Remote.Port),
		KeyPath: cfg.Remote.KeyPath,
	}

	logDir := cfg.LogDir
	if logDir == "" {
		logDir = filepath.Join(cfg.BackupRoot, "log")
	}

	opID := time.Now().UTC().Format("20060102T150405Z")
	logger, logFile, err := newLogger(logDir, opID)
	if err != nil {
		if jnl != nil {
			jnl.Close()
		}
		return nil, fmt.Errorf("creating logger: %w", err)
	}
	logger = logger.With("operation", operation)

	svc := pullsnap.NewService(
		transfer.NewRsync(),
		transfer.NewSSHSizer(remote),
		fs.NewDiskFree(),
		coreJournal,
		&slogAdapter{l: logger},
		pullsnap.RealClock{},
		remote,
		cfg.AutoEvict,
	)

	return &App{
		cfg:     cfg,
		targets: targets,
		service: svc,
		journal: jnl,
		logFile: logFile,
	}, nil
}

// Close releases the journal and log file.
func (a *App) Close() {
	if a.journal != nil {
		a.journal.Close()
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
}

// Start runs the scan loop until ctx is cancelled or a fatal error occurs.
func (a *App) Start(ctx context.Context) error {
	interval := time.Duration(a.cfg.ScanIntervalSeconds) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return a.service.Run(ctx, a.targets, interval)
}

// List returns installed versions for one target, or all targets when name
// is empty.
func (a *App) List(name string) ([]pullsnap.TargetVersions, error) {
	return pullsnap.ListBackups(a.targets, name)
}

// Restore restores the given target version to outPath, or returns the
// internal version path when outPath is empty.
func (a *App) Restore(name string, timestamp int64, outPath string) (string, error) {
	t, err := pullsnap.FindTarget(a.targets, name)
	if err != nil {
		return "", err
	}
	return pullsnap.Restore(t, timestamp, outPath)
}

// History returns recent sync records, newest first, optionally filtered by
// target name.
func (a *App) History(name string, limit int) ([]pullsnap.SyncRecord, error) {
	if a.journal == nil {
		return nil, fmt.Errorf("journal is disabled in configuration")
	}
	if name != "" {
		if _, err := pullsnap.FindTarget(a.targets, name); err != nil {
			return nil, err
		}
	}
	return a.journal.List(name, limit)
}

// Targets returns the normalized target list for operator introspection.
func (a *App) Targets() []*pullsnap.Target {
	return a.targets
}

// parseWeekStart maps a configured weekday name to time.Weekday.
// Empty means monday.
func parseWeekStart(name string) (time.Weekday, error) {
	switch strings.ToLower(name) {
	case "", "monday":
		return time.Monday, nil
	case "tuesday":
		return time.Tuesday, nil
	case "wednesday":
		return time.Wednesday, nil
	case "thursday":
		return time.Thursday, nil
	case "friday":
		return time.Friday, nil
	case "saturday":
		return time.Saturday, nil
	case "sunday":
		return time.Sunday, nil
	}
	return 0, fmt.Errorf("unknown week_start %q", name)
}

func remotePort(port int) int {
	if port == 0 {
		return 22
	}
	return port
}
