package pullsnap

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// TargetVersions pairs a target name with its installed version timestamps.
type TargetVersions struct {
	Target   string
	Versions []int64
}

// ListBackups returns installed versions for one named target, or for all
// targets when name is empty.
func ListBackups(targets []*Target, name string) ([]TargetVersions, error) {
	if name != "" {
		t, err := FindTarget(targets, name)
		if err != nil {
			return nil, err
		}
		return []TargetVersions{{Target: t.Name, Versions: ListVersions(t)}}, nil
	}

	out := make([]TargetVersions, 0, len(targets))
	for _, t := range targets {
		out = append(out, TargetVersions{Target: t.Name, Versions: ListVersions(t)})
	}
	return out, nil
}

// Restore materializes a stored version outside the backup root. With an
// empty outPath it only resolves and returns the internal version path.
// The output path must not already exist; an existing path is an error and
// neither side is modified.
func Restore(t *Target, timestamp int64, outPath string) (string, error) {
	versionPath, err := ResolveVersion(t, timestamp)
	if err != nil {
		return "", err
	}

	if outPath == "" {
		return versionPath, nil
	}

	if _, err := os.Stat(outPath); err == nil {
		return "", fmt.Errorf("output path already exists: %s", outPath)
	}

	if err := copyTree(versionPath, outPath); err != nil {
		return "", fmt.Errorf("restoring %q version %d: %w", t.Name, timestamp, err)
	}
	return outPath, nil
}

// copyTree recursively copies src to dst, preserving file modes and
// modification times. dst must not exist.
func copyTree(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		link, err := os.Readlink(src)
		if err != nil {
			return err
		}
		return os.Symlink(link, dst)

	case info.IsDir():
		if err := os.Mkdir(dst, info.Mode().Perm()); err != nil {
			return err
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return err
		}
		for _, entry := range entries {
			if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dst, entry.Name())); err != nil {
				return err
			}
		}
		return os.Chtimes(dst, info.ModTime(), info.ModTime())

	default:
		if err := copyFile(src, dst, info.Mode().Perm()); err != nil {
			return err
		}
		return os.Chtimes(dst, info.ModTime(), info.ModTime())
	}
}

func copyFile(src, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
