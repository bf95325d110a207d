// Package matchpipetest provides shared test builders and a fake analyzer
// for exercising the matchpipe pipeline without a live multimodal model.
package matchpipetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/kickframe/matchpipe"
)

// NewSegment builds a Segment with sensible defaults, overridable by id,
// type, and time range; tests that need player/team context set those
// fields directly on the result.
func NewSegment(id string, typ matchpipe.SegmentType, start, end float64) matchpipe.Segment {
	return matchpipe.Segment{SegmentID: id, Type: typ, StartSec: start, EndSec: end}
}

// NewRawEvent builds a RawEvent with the given type, team, and absolute
// timestamp at confidence 0.9, the shape most dedup/matcher tests need.
func NewRawEvent(windowID string, typ matchpipe.EventType, team matchpipe.Team, ts float64) matchpipe.RawEvent {
	return matchpipe.RawEvent{
		WindowID:          windowID,
		Type:              typ,
		Team:              team,
		AbsoluteTimestamp: ts,
		Confidence:        0.9,
	}
}

// NewClip builds a Clip spanning [start, end].
func NewClip(id string, start, end float64) matchpipe.Clip {
	return matchpipe.Clip{ID: id, StartTime: start, EndTime: end}
}

// FixedAnalyzer is an Analyzer that returns the same response (or error)
// to every call, counting how many times it was invoked.
type FixedAnalyzer struct {
	mu       sync.Mutex
	Response matchpipe.AnalyzerResponse
	Err      error
	calls    int
}

// Analyze implements matchpipe.Analyzer.
func (a *FixedAnalyzer) Analyze(_ context.Context, _ matchpipe.VideoReference, _ string) ([]byte, error) {
	a.mu.Lock()
	a.calls++
	a.mu.Unlock()

	if a.Err != nil {
		return nil, a.Err
	}
	raw, err := json.Marshal(a.Response)
	if err != nil {
		return nil, fmt.Errorf("matchpipetest: marshal fixed response: %w", err)
	}
	return raw, nil
}

// Calls returns how many times Analyze has been invoked.
func (a *FixedAnalyzer) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

// RequireNoError fails the test immediately if err is non-nil.
func RequireNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertEventCount fails the test if len(events) != want.
func AssertEventCount(t *testing.T, events []matchpipe.DeduplicatedEvent, want int) {
	t.Helper()
	if len(events) != want {
		t.Fatalf("expected %d events, got %d", want, len(events))
	}
}
