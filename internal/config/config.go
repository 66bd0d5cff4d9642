package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for pullsnap.
type Config struct {
	InstanceID string `toml:"instance_id"`
	BackupRoot string `toml:"backup_root"`
	LogDir     string `toml:"log_dir"`

	// ScanIntervalSeconds is how long the scan loop sleeps between sweeps.
	// It bounds how promptly a due target is noticed; it is not part of any
	// target's cadence. Defaults to 30.
	ScanIntervalSeconds int `toml:"scan_interval_seconds"`

	// AutoEvict enables deletion of the oldest snapshots, across all
	// targets, when the destination volume is short on space. Off by
	// default: eviction can remove every retained backup, so running out of
	// space stops the daemon unless the operator opts in.
	AutoEvict bool `toml:"auto_evict"`

	// WeekStart names the weekday weekly buckets begin on ("monday",
	// "sunday", ...). Defaults to monday.
	WeekStart string `toml:"week_start"`

	Remote  RemoteConfig   `toml:"remote"`
	Journal JournalConfig  `toml:"journal"`
	Targets []TargetConfig `toml:"targets"`
}

// RemoteConfig identifies the host snapshots are pulled from and the ssh
// credentials to reach it.
type RemoteConfig struct {
	Host    string `toml:"host"`
	User    string `toml:"user"`
	Port    int    `toml:"port"`
	KeyPath string `toml:"key_path"`
}

// JournalConfig represents configuration for the sync-history journal.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type JournalConfig struct {
	Type    string `toml:"type"`               // "sqlite" (default) or "none"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite; defaults to backup_root
}

// TargetConfig is one backup target as written by the operator. Optional
// booleans are pointers so normalization can tell "unset" from "false".
type TargetConfig struct {
	Name       string `toml:"name"`
	SourcePath string `toml:"source_path"`

	// IsDirectory defaults to true. File targets use a single-file transfer
	// without hard-link linkage.
	IsDirectory *bool `toml:"is_directory,omitempty"`

	Interval  string   `toml:"interval"`  // minute|hour|day|week|month|year, default day
	Frequency int      `toml:"frequency"` // default 1
	Excludes  []string `toml:"excludes"`

	// DeleteOnRemoteRemoval controls whether files removed on the remote are
	// also removed in the next snapshot. Unset defaults to false (retained).
	DeleteOnRemoteRemoval *bool `toml:"delete_on_remote_removal,omitempty"`

	// AllowLocalSource disables the guard against source paths that also
	// exist on this host, which usually indicate a misconfiguration.
	AllowLocalSource bool `toml:"allow_local_source,omitempty"`
}

// NewConfig creates a new Config with the provided values and defaults.
func NewConfig(instanceID, baseDir string) *Config {
	return &Config{
		InstanceID:          instanceID,
		BackupRoot:          filepath.Join(baseDir, "snapshots"),
		LogDir:              filepath.Join(baseDir, "log"),
		ScanIntervalSeconds: 30,
		WeekStart:           "monday",
		Remote: RemoteConfig{
			Port: 22,
		},
		Journal: JournalConfig{
			Type: "sqlite",
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
// This is an internal helper and should not be exported.
func writeToFile(path string, cfg *Config) error {
	// Ensure the directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
