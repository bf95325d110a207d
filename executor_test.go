package matchpipe

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/zoobzio/clockz"
)

// countingAnalyzer returns a fixed event set per window and fails the
// first failUntil calls keyed by the window id embedded in the segment
// description (the Analyzer interface only sees ctx/ref/prompt, not the
// Window itself, so the window id is threaded through the prompt text).
type countingAnalyzer struct {
	mu        sync.Mutex
	failUntil map[string]int
	calls     map[string]int
}

func newCountingAnalyzer() *countingAnalyzer {
	return &countingAnalyzer{failUntil: make(map[string]int), calls: make(map[string]int)}
}

func windowKeyFromPrompt(prompt string) string {
	const marker = "Description: "
	idx := strings.Index(prompt, marker)
	if idx < 0 {
		return ""
	}
	rest := prompt[idx+len(marker):]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[:nl]
	}
	return rest
}

func (a *countingAnalyzer) Analyze(_ context.Context, _ VideoReference, prompt string) ([]byte, error) {
	key := windowKeyFromPrompt(prompt)

	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls[key]++
	if a.calls[key] <= a.failUntil[key] {
		return nil, fmt.Errorf("simulated transient failure")
	}
	resp := AnalyzerResponse{Events: []AnalyzerEvent{
		{Timestamp: 1, Type: EventPass, Team: TeamHome, Confidence: 0.9},
	}}
	raw, _ := json.Marshal(resp)
	return raw, nil
}

func testWindows(n int) []Window {
	windows := make([]Window, n)
	for i := range windows {
		id := fmt.Sprintf("w%d", i)
		windows[i] = Window{
			WindowID:       id,
			AbsoluteStart:  float64(i * 60),
			AbsoluteEnd:    float64(i*60 + 60),
			SegmentContext: Segment{Description: &id},
		}
	}
	return windows
}

func TestExecutor_Run_AllSucceed(t *testing.T) {
	analyzer := newCountingAnalyzer()
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 1, TimeoutMs: 1000}, clockz.NewFakeClock(), slog.Default())
	exec := NewExecutor(driver, 5)

	windows := testWindows(12)
	events, err := exec.Run(context.Background(), VideoReference{CacheHandle: "match-1"}, windows, nil, nil, "match-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 12 {
		t.Fatalf("expected 12 events, got %d", len(events))
	}
}

func TestExecutor_Run_PartialFailureAggregates(t *testing.T) {
	analyzer := newCountingAnalyzer()
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 1, TimeoutMs: 1000}, clockz.NewFakeClock(), slog.Default())
	exec := NewExecutor(driver, 3)

	windows := testWindows(3)
	analyzer.failUntil["w1"] = 99 // always fails

	var progressCalls atomic.Int64
	progress := NewProgressReporter(len(windows), func(ProgressStats) { progressCalls.Add(1) })
	reviews := NewPendingReviewSink()

	events, err := exec.Run(context.Background(), VideoReference{CacheHandle: "match-1"}, windows, progress, reviews, "match-1")

	if err == nil {
		t.Fatal("expected ErrBatchFailed")
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 successful windows' events, got %d", len(events))
	}
	if len(reviews.Reviews()) != 1 {
		t.Fatalf("expected 1 pending review, got %d", len(reviews.Reviews()))
	}
	if reviews.Reviews()[0].Window.WindowID != "w1" {
		t.Fatalf("expected pending review for w1, got %s", reviews.Reviews()[0].Window.WindowID)
	}
	if progressCalls.Load() != int64(len(windows)) {
		t.Fatalf("expected %d progress callbacks, got %d", len(windows), progressCalls.Load())
	}
}

func TestExecutor_Run_SiblingIndependenceWithinFailingBatch(t *testing.T) {
	analyzer := newCountingAnalyzer()
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 1, TimeoutMs: 1000}, clockz.NewFakeClock(), slog.Default())
	exec := NewExecutor(driver, 2)

	windows := testWindows(4)
	analyzer.failUntil["w1"] = 99

	events, err := exec.Run(context.Background(), VideoReference{CacheHandle: "match-1"}, windows, nil, nil, "match-1")
	if err == nil {
		t.Fatal("expected ErrBatchFailed")
	}
	// w1's failure does not cancel its sibling w0 in the same batch, but a
	// batch failure does stop the run before the next batch (w2, w3) ever
	// launches: only w0's event is returned.
	if len(events) != 1 {
		t.Fatalf("expected 1 successful window's events, got %d", len(events))
	}
}
