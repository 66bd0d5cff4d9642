package transfer

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"pullsnap-go/internal/pullsnap"
)

// SSHSizer probes the occupied size of a remote path by running du over ssh.
// du reports whole kilobytes; the result is converted to bytes.
type SSHSizer struct {
	Remote pullsnap.RemoteHost

	// Binary overrides the ssh executable path. Empty means "ssh" from PATH.
	Binary string
}

// NewSSHSizer creates a sizer for the given remote host.
func NewSSHSizer(remote pullsnap.RemoteHost) *SSHSizer {
	return &SSHSizer{Remote: remote}
}

// ProbeArgs builds the ssh argument list for sizing remotePath.
func (s *SSHSizer) ProbeArgs(remotePath string) []string {
	return []string{
		"-p", strconv.Itoa(s.Remote.Port),
		"-i", s.Remote.KeyPath,
		fmt.Sprintf("%s@%s", s.Remote.User, s.Remote.Host),
		"du", "-sk", remotePath,
	}
}

// RemoteSize returns the size in bytes occupied by remotePath on the remote
// host. Any probe failure, including unparseable output, is reported as an
// error; callers treat it as a soft per-tick failure.
func (s *SSHSizer) RemoteSize(ctx context.Context, remotePath string) (int64, error) {
	binary := s.Binary
	if binary == "" {
		binary = "ssh"
	}

	out, err := exec.CommandContext(ctx, binary, s.ProbeArgs(remotePath)...).Output()
	if err != nil {
		return 0, fmt.Errorf("remote size probe for %s: %w", remotePath, err)
	}

	kb, err := parseDuOutput(string(out))
	if err != nil {
		return 0, fmt.Errorf("remote size probe for %s: %w", remotePath, err)
	}
	return kb * 1024, nil
}

// parseDuOutput extracts the kilobyte count from du -sk output, whose first
// whitespace-delimited field is the size.
func parseDuOutput(out string) (int64, error) {
	fields := strings.Fields(out)
	if len(fields) == 0 {
		return 0, fmt.Errorf("empty du output")
	}
	kb, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("unparseable du output %q", fields[0])
	}
	return kb, nil
}
