// pkg/core/run.go
package core

import "time"

// Run describes one invocation of the parser over a pair of log files.
type Run struct {
	ID          string
	PrimaryFile string
	RawFile     string
	StartedAt   time.Time
	Duration    time.Duration
}
