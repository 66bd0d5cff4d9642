package config

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestManager_ReadWrite(t *testing.T) {
	t.Run("round trips a config", func(t *testing.T) {
		cfg := NewConfig("instance-1", "/var/lib/pullsnap")
		cfg.Remote = RemoteConfig{
			Host:    "remote.example.com",
			User:    "backup",
			Port:    2222,
			KeyPath: "/etc/pullsnap/key",
		}
		isDir := false
		deleteRemoved := true
		cfg.Targets = []TargetConfig{
			{
				Name:                  "docs",
				SourcePath:            "/srv/docs",
				Interval:              "day",
				Frequency:             1,
				Excludes:              []string{"*.tmp"},
				DeleteOnRemoteRemoval: &deleteRemoved,
			},
			{
				SourcePath:  "/srv/dump.sql",
				IsDirectory: &isDir,
				Interval:    "hour",
				Frequency:   6,
			},
		}

		m := &Manager{}
		var buf bytes.Buffer
		if err := m.Write(&buf, cfg); err != nil {
			t.Fatalf("Write() error = %v", err)
		}

		got, err := m.Read(&buf)
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}

		if got.InstanceID != "instance-1" {
			t.Errorf("instance_id = %q, want instance-1", got.InstanceID)
		}
		if got.Remote.Host != "remote.example.com" || got.Remote.Port != 2222 {
			t.Errorf("remote = %+v", got.Remote)
		}
		if len(got.Targets) != 2 {
			t.Fatalf("targets = %d, want 2", len(got.Targets))
		}
		if got.Targets[0].DeleteOnRemoteRemoval == nil || !*got.Targets[0].DeleteOnRemoteRemoval {
			t.Error("delete_on_remote_removal lost in round trip")
		}
		if got.Targets[1].IsDirectory == nil || *got.Targets[1].IsDirectory {
			t.Error("is_directory=false lost in round trip")
		}
	})

	t.Run("absent optional booleans decode as nil", func(t *testing.T) {
		raw := `
backup_root = "/backups"

[[targets]]
source_path = "/srv/data"
`
		m := &Manager{}
		cfg, err := m.Read(strings.NewReader(raw))
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		if cfg.Targets[0].IsDirectory != nil {
			t.Error("unset is_directory should decode as nil")
		}
		if cfg.Targets[0].DeleteOnRemoteRemoval != nil {
			t.Error("unset delete_on_remote_removal should decode as nil")
		}
	})

	t.Run("rejects malformed toml", func(t *testing.T) {
		m := &Manager{}
		if _, err := m.Read(strings.NewReader("not [valid")); err == nil {
			t.Error("expected error for malformed config")
		}
	})
}

func TestNewConfig(t *testing.T) {
	cfg := NewConfig("id-1", "/var/lib/pullsnap")

	if cfg.BackupRoot != filepath.Join("/var/lib/pullsnap", "snapshots") {
		t.Errorf("backup_root = %q", cfg.BackupRoot)
	}
	if cfg.ScanIntervalSeconds != 30 {
		t.Errorf("scan_interval_seconds = %d, want 30", cfg.ScanIntervalSeconds)
	}
	if cfg.AutoEvict {
		t.Error("auto_evict must default to false")
	}
	if cfg.WeekStart != "monday" {
		t.Errorf("week_start = %q, want monday", cfg.WeekStart)
	}
	if cfg.Remote.Port != 22 {
		t.Errorf("remote port = %d, want 22", cfg.Remote.Port)
	}
	if cfg.Journal.Type != "sqlite" {
		t.Errorf("journal type = %q, want sqlite", cfg.Journal.Type)
	}
}

func TestInit(t *testing.T) {
	t.Run("creates a new config file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "sub", "pullsnap.toml")
		if err := Init(path, NewConfig("id-1", "/base")); err != nil {
			t.Fatalf("Init() error = %v", err)
		}

		cfg, err := ReadFromFile(path)
		if err != nil {
			t.Fatalf("ReadFromFile() error = %v", err)
		}
		if cfg.InstanceID != "id-1" {
			t.Errorf("instance_id = %q, want id-1", cfg.InstanceID)
		}
	})

	t.Run("refuses to overwrite an existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "pullsnap.toml")
		if err := Init(path, NewConfig("id-1", "/base")); err != nil {
			t.Fatalf("Init() error = %v", err)
		}
		if err := Init(path, NewConfig("id-2", "/base")); err == nil {
			t.Error("expected error initializing over an existing config")
		}
	})
}
