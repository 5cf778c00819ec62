// Package lifecycle holds the timeouts shared by start/stop hooks and commits.
package lifecycle

import "time"

const (
	// DefaultTimeout bounds startup pings, graceful shutdown and detached commits.
	DefaultTimeout = 10 * time.Second
)
