// Package fs provides the OS-backed filesystem probes used by the engine.
package fs

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// DiskFree reports available capacity using the operating system's
// statistics for the volume holding a path.
type DiskFree struct{}

// NewDiskFree creates an OS-backed DiskFree probe.
func NewDiskFree() *DiskFree {
	return &DiskFree{}
}

// Free returns the number of bytes available on the volume holding path.
func (*DiskFree) Free(path string) (uint64, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return 0, fmt.Errorf("reading disk usage for %s: %w", path, err)
	}
	return usage.Free, nil
}
