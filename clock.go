// Package matchpipe turns per-window analyzer proposals into a deduplicated,
// ranked, highlight-ready timeline of soccer match events.
package matchpipe

import "github.com/zoobzio/clockz"

// Clock provides time operations for deterministic testing. The retry/backoff
// driver waits out its backoff delays through a Clock; the per-call timeout
// and any pipeline-level deadline come from the caller's context instead.
type Clock = clockz.Clock

// Timer represents a single event timer.
type Timer = clockz.Timer

// Ticker delivers ticks at intervals.
type Ticker = clockz.Ticker

// RealClock is the default Clock using standard time.
var RealClock Clock = clockz.RealClock
