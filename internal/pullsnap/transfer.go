package pullsnap

import (
	"context"
	"strings"
)

// RemoteHost identifies the machine snapshots are pulled from.
type RemoteHost struct {
	User    string
	Host    string
	Port    int
	KeyPath string
}

// TransferRequest describes one transfer invocation as typed fields. The
// transfer implementation is responsible for turning this into an argument
// list; the request never carries pre-assembled shell strings.
type TransferRequest struct {
	Remote     RemoteHost
	RemotePath string // trailing slash already normalized per target
	Dest       string // local new-version directory
	LinkDest   string // relative path to the prior version, empty for a full transfer
	Directory  bool
	Delete     bool
	Excludes   []string
}

// TransferResult reports the outcome of one transfer invocation.
// Err is non-nil only when the tool could not be started at all; otherwise
// ExitCode and Stderr describe what the tool itself reported.
type TransferResult struct {
	ExitCode int
	Stderr   string
	Err      error
}

// Transfer runs the external transfer tool. Implementations must be safe to
// invoke repeatedly with the same request (retries).
type Transfer interface {
	Run(ctx context.Context, req TransferRequest) TransferResult
}

// RemoteSizer reports the occupied size, in bytes, of a path on the remote.
type RemoteSizer interface {
	RemoteSize(ctx context.Context, remotePath string) (int64, error)
}

// DiskFree reports the available capacity, in bytes, of the volume holding
// the given path.
type DiskFree interface {
	Free(path string) (uint64, error)
}

// Transfer-tool exit codes with recognized meaning. 10 is a socket I/O
// error (dropped connection); 13 and 23 indicate the tool could not read
// part of the source, typically a permissions problem.
const (
	exitConnection = 10
	exitErrorsIO   = 13
	exitPartial    = 23
)

// transient reports whether a failed transfer is worth retrying without
// operator intervention. A broken-pipe diagnostic counts regardless of the
// exit code the tool died with.
func transient(res TransferResult) bool {
	if res.Err != nil {
		return false
	}
	if res.ExitCode == exitConnection {
		return true
	}
	return strings.Contains(strings.ToLower(res.Stderr), "broken pipe")
}

// permission reports whether a failed transfer looks like a source-side
// permissions problem, where the useful remedy is an exclude pattern.
func permission(res TransferResult) bool {
	return res.ExitCode == exitErrorsIO || res.ExitCode == exitPartial
}
