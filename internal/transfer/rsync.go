// Package transfer wraps the external tools pullsnap shells out to: rsync
// for snapshot transfers and ssh for the remote size probe. It never
// reimplements the byte-level delta algorithm; it only builds invocations
// and interprets their exit status.
package transfer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"

	"pullsnap-go/internal/pullsnap"
)

// Rsync runs snapshot transfers with the rsync binary over an ssh transport.
type Rsync struct {
	// Binary overrides the rsync executable path. Empty means "rsync" from
	// PATH. Tests point this at a stub script.
	Binary string
}

// NewRsync creates an Rsync transfer using the system rsync.
func NewRsync() *Rsync {
	return &Rsync{}
}

// Args builds the full rsync argument list for a request. Arguments are
// assembled as discrete argv elements from the request's typed fields; no
// shell is involved, so no quoting or injection concerns apply.
func Args(req pullsnap.TransferRequest) []string {
	args := []string{"-az"}

	if req.Delete {
		args = append(args, "--delete")
	}
	for _, pattern := range req.Excludes {
		args = append(args, "--exclude="+pattern)
	}

	args = append(args, "-e", sshCommand(req.Remote))

	if req.LinkDest != "" {
		args = append(args, "--link-dest="+req.LinkDest)
	}
	args = append(args, "--sparse")

	args = append(args,
		fmt.Sprintf("%s@%s:%s", req.Remote.User, req.Remote.Host, req.RemotePath),
		req.Dest,
	)
	return args
}

// Run executes one rsync invocation and reports its exit status and
// diagnostic output.
func (r *Rsync) Run(ctx context.Context, req pullsnap.TransferRequest) pullsnap.TransferResult {
	binary := r.Binary
	if binary == "" {
		binary = "rsync"
	}

	cmd := exec.CommandContext(ctx, binary, Args(req)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return pullsnap.TransferResult{Err: fmt.Errorf("starting %s: %w", binary, err)}
		}
		return pullsnap.TransferResult{ExitCode: exitErr.ExitCode(), Stderr: stderr.String()}
	}
	return pullsnap.TransferResult{Stderr: stderr.String()}
}

// sshCommand builds the remote-shell command rsync tunnels through.
// This is a single argv element consumed by rsync's -e flag.
func sshCommand(remote pullsnap.RemoteHost) string {
	return fmt.Sprintf("ssh -p %d -i %s", remote.Port, remote.KeyPath)
}
