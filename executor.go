package matchpipe

import (
	"context"
	"sync"
)

// defaultBatchSize is the number of windows run concurrently per batch.
const defaultBatchSize = 5

// Executor runs a Driver across many windows in bounded-parallel batches.
// Windows are grouped into fixed-size batches, a batch's windows run
// concurrently, and batches run one after another: at most `parallelism`
// outstanding model calls at any instant, without a generic
// worker-pool abstraction, since the unit of work here is always "one
// window, one analyzer call."
type Executor struct {
	driver    *Driver
	batchSize int
}

// NewExecutor creates an Executor. parallelism <= 0 defaults to
// defaultBatchSize.
func NewExecutor(driver *Driver, parallelism int) *Executor {
	if parallelism <= 0 {
		parallelism = defaultBatchSize
	}
	return &Executor{driver: driver, batchSize: parallelism}
}

// WindowResult pairs one window with its driver outcome.
type WindowResult struct {
	Window Window
	Err    error
	Events []RawEvent
}

// Run processes windows in sequential batches of e.batchSize windows run in
// parallel. One window's failure inside a batch does not cancel
// its siblings; the batch always waits for every window. Once a batch
// contains a permanent window failure, no further batches are launched
// and the failure is surfaced as ErrBatchFailed; events from windows that
// succeeded (including the rest of the failing batch) are still returned
// alongside the error so the caller can decide what to do with a partial
// result. progress and reviews may be nil.
func (e *Executor) Run(ctx context.Context, ref VideoReference, windows []Window, progress *ProgressReporter, reviews *PendingReviewSink, matchID string) ([]RawEvent, error) {
	var allEvents []RawEvent
	var anyFailed bool

	for start := 0; start < len(windows) && !anyFailed; start += e.batchSize {
		end := min(start+e.batchSize, len(windows))
		batch := windows[start:end]

		results := e.runBatch(ctx, ref, batch)

		for _, r := range results {
			if progress != nil {
				progress.ReportWindowDone(r.Err != nil)
			}
			if r.Err != nil {
				anyFailed = true
				if reviews != nil {
					reviews.Add(matchID, r.Window, e.driver.retry.MaxRetries, r.Err)
				}
				continue
			}
			allEvents = append(allEvents, r.Events...)
		}
	}

	if anyFailed {
		return allEvents, ErrBatchFailed
	}
	return allEvents, nil
}

// runBatch runs one batch of windows in parallel and waits for all of them,
// regardless of individual failures.
func (e *Executor) runBatch(ctx context.Context, ref VideoReference, batch []Window) []WindowResult {
	results := make([]WindowResult, len(batch))

	var wg sync.WaitGroup
	for i, w := range batch {
		if ctx.Err() != nil {
			results[i] = WindowResult{Window: w, Err: ctx.Err()}
			continue
		}
		wg.Add(1)
		go func(i int, w Window) {
			defer wg.Done()
			events, err := e.driver.ProcessWindow(ctx, ref, w)
			results[i] = WindowResult{Window: w, Events: events, Err: err}
		}(i, w)
	}
	wg.Wait()

	return results
}
