package pipeline

import "time"

// RunStats tracks aggregate counters across a batch run.
type RunStats struct {
	Total           int
	Converted       int
	Failed          int
	TotalInputBytes int64
	Elapsed         time.Duration
}
