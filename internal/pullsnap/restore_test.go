package pullsnap_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"pullsnap-go/internal/pullsnap"
	"pullsnap-go/internal/testutil"
)

func TestListBackups(t *testing.T) {
	t1 := testutil.MakeTarget(t, "t1")
	t2 := testutil.MakeTarget(t, "t2")
	testutil.MakeVersionDir(t, t1, 1000)
	testutil.MakeVersionDir(t, t1, 2000)
	targets := []*pullsnap.Target{t1, t2}

	t.Run("all targets", func(t *testing.T) {
		listings, err := pullsnap.ListBackups(targets, "")
		if err != nil {
			t.Fatalf("ListBackups() error = %v", err)
		}
		if len(listings) != 2 {
			t.Fatalf("listings = %d, want 2", len(listings))
		}
		if len(listings[0].Versions) != 2 || len(listings[1].Versions) != 0 {
			t.Errorf("versions = %v / %v, want 2 and 0", listings[0].Versions, listings[1].Versions)
		}
	})

	t.Run("single target", func(t *testing.T) {
		listings, err := pullsnap.ListBackups(targets, "t1")
		if err != nil {
			t.Fatalf("ListBackups() error = %v", err)
		}
		if len(listings) != 1 || listings[0].Target != "t1" {
			t.Fatalf("listings = %+v, want just t1", listings)
		}
	})

	t.Run("unknown target", func(t *testing.T) {
		_, err := pullsnap.ListBackups(targets, "nope")
		if !errors.Is(err, pullsnap.ErrNotFound) {
			t.Errorf("ListBackups() error = %v, want ErrNotFound", err)
		}
	})
}

func TestRestore(t *testing.T) {
	setup := func(t *testing.T) (*pullsnap.Target, string) {
		target := testutil.MakeTarget(t, "t1")
		version := testutil.MakeVersionDir(t, target, 1600000000)
		os.MkdirAll(filepath.Join(version, "sub"), 0755)
		os.WriteFile(filepath.Join(version, "sub", "nested.txt"), []byte("nested"), 0600)
		return target, version
	}

	t.Run("empty output path returns the internal version path", func(t *testing.T) {
		target, version := setup(t)

		got, err := pullsnap.Restore(target, 1600000000, "")
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if got != version {
			t.Errorf("Restore() = %q, want %q", got, version)
		}
	})

	t.Run("restores a full copy to a fresh path", func(t *testing.T) {
		target, _ := setup(t)
		out := filepath.Join(t.TempDir(), "restored")

		got, err := pullsnap.Restore(target, 1600000000, out)
		if err != nil {
			t.Fatalf("Restore() error = %v", err)
		}
		if got != out {
			t.Errorf("Restore() = %q, want %q", got, out)
		}

		data, err := os.ReadFile(filepath.Join(out, "file.txt"))
		if err != nil || string(data) != "data" {
			t.Errorf("restored file.txt = %q, %v", data, err)
		}
		nested, err := os.ReadFile(filepath.Join(out, "sub", "nested.txt"))
		if err != nil || string(nested) != "nested" {
			t.Errorf("restored nested.txt = %q, %v", nested, err)
		}

		info, err := os.Stat(filepath.Join(out, "sub", "nested.txt"))
		if err != nil {
			t.Fatalf("stat restored file: %v", err)
		}
		if info.Mode().Perm() != 0600 {
			t.Errorf("restored permissions = %v, want 0600", info.Mode().Perm())
		}
	})

	t.Run("existing output path fails without modifying either side", func(t *testing.T) {
		target, version := setup(t)
		out := t.TempDir()
		marker := filepath.Join(out, "marker")
		os.WriteFile(marker, []byte("keep"), 0644)

		_, err := pullsnap.Restore(target, 1600000000, out)
		if err == nil {
			t.Fatal("expected error for existing output path")
		}

		if data, _ := os.ReadFile(marker); string(data) != "keep" {
			t.Error("existing output path was modified")
		}
		if _, err := os.Stat(filepath.Join(version, "file.txt")); err != nil {
			t.Error("stored version was modified")
		}
	})

	t.Run("unknown timestamp is NotFound", func(t *testing.T) {
		target, _ := setup(t)
		_, err := pullsnap.Restore(target, 42, filepath.Join(t.TempDir(), "out"))
		if !errors.Is(err, pullsnap.ErrNotFound) {
			t.Errorf("Restore() error = %v, want ErrNotFound", err)
		}
	})
}
