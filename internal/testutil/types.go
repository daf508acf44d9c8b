package testutil

import "time"

// ExecutionRecord holds the start and end times of one task instance.
type ExecutionRecord struct {
	Task     string
	Instance int
	Start    time.Time
	End      time.Time
}
