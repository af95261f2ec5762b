package constants

import "time"

// Session lifecycle tunables. The backend expires sessions 60 minutes after
// the last activity; the client probes periodically and warns ahead of the
// deadline.
const (
	SessionDuration      = 3600 * time.Second
	SessionCheckInterval = 120 * time.Second
	SessionWarningLead   = 300 * time.Second
)

// Merge strategies for backup restoration. The server may accept more; the
// client treats the strategy as an opaque string.
const (
	MergeStrategyPreserveSystem = "preserve_system"
	MergeStrategyMerge          = "merge"
)
