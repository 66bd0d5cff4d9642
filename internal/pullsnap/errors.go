package pullsnap

import "errors"

// ErrDiskFull means the destination volume cannot hold the next snapshot and
// no more space can be freed. It is fatal: the scan loop must stop rather
// than risk partial snapshots.
var ErrDiskFull = errors.New("disk full")

// ErrNotFound is returned by lookups for unknown targets or versions.
var ErrNotFound = errors.New("not found")
