package matchpipe

import (
	"sync/atomic"
	"time"
)

// ProgressStats is a snapshot of the windowed-detection executor's progress.
type ProgressStats struct {
	LastUpdate       time.Time
	WindowsCompleted int64
	WindowsTotal     int64
	WindowsFailed    int64
}

// ProgressReporter observes batches completing inside the parallel executor
// and reports cumulative progress, generalized from "count stream items
// passing through" to "count windows completed across sequential
// batches," since the executor processes discrete batches rather than an
// open-ended channel.
type ProgressReporter struct {
	onProgress func(ProgressStats)
	total      int64
	completed  atomic.Int64
	failed     atomic.Int64
}

// NewProgressReporter creates a reporter for a run of `total` windows. A nil
// onProgress callback makes reporting a no-op (useful when the caller
// doesn't want progress events).
func NewProgressReporter(total int, onProgress func(ProgressStats)) *ProgressReporter {
	return &ProgressReporter{
		total:      int64(total),
		onProgress: onProgress,
	}
}

// ReportWindowDone records one window's completion (success or failure) and
// invokes the callback with the updated snapshot.
func (p *ProgressReporter) ReportWindowDone(failed bool) {
	p.completed.Add(1)
	if failed {
		p.failed.Add(1)
	}
	if p.onProgress == nil {
		return
	}
	p.onProgress(ProgressStats{
		WindowsCompleted: p.completed.Load(),
		WindowsFailed:    p.failed.Load(),
		WindowsTotal:     p.total,
		LastUpdate:       time.Now(),
	})
}
