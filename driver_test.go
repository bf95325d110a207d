package matchpipe

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"

	"github.com/zoobzio/clockz"
)

type scriptedAnalyzer struct {
	calls   atomic.Int64
	results []func() ([]byte, error)
}

func (a *scriptedAnalyzer) Analyze(_ context.Context, _ VideoReference, _ string) ([]byte, error) {
	i := a.calls.Add(1) - 1
	if int(i) >= len(a.results) {
		return a.results[len(a.results)-1]()
	}
	return a.results[i]()
}

func validResponse() ([]byte, error) {
	resp := AnalyzerResponse{Events: []AnalyzerEvent{{Timestamp: 1, Type: EventPass, Team: TeamHome, Confidence: 0.9}}}
	raw, _ := json.Marshal(resp)
	return raw, nil
}

func transientFailure() ([]byte, error) {
	return nil, errors.New("transient")
}

func testWindow(id string) Window {
	return Window{WindowID: id, AbsoluteStart: 100, AbsoluteEnd: 160, SegmentContext: Segment{Type: SegmentActivePlay}}
}

func TestDriver_ProcessWindow_SucceedsFirstTry(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []func() ([]byte, error){validResponse}}
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 3, InitialDelayMs: 10, MaxDelayMs: 100, TimeoutMs: 1000}, clockz.NewFakeClock(), slog.Default())

	events, err := driver.ProcessWindow(context.Background(), VideoReference{CacheHandle: "h"}, testWindow("w1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].AbsoluteTimestamp != 101 {
		t.Errorf("expected absolute timestamp lifted from window start (101), got %.1f", events[0].AbsoluteTimestamp)
	}
	if analyzer.calls.Load() != 1 {
		t.Errorf("expected exactly 1 call, got %d", analyzer.calls.Load())
	}
}

// These two tests exercise the retry loop end-to-end including its backoff
// sleeps. A fake clock requires synchronizing with the exact moment the
// driver registers each backoff timer, which ProcessWindow doesn't expose;
// RealClock with a 1 ms InitialDelayMs keeps the test fast
// without that synchronization problem.
func TestDriver_ProcessWindow_RetriesAndRecovers(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []func() ([]byte, error){transientFailure, transientFailure, validResponse}}
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 3, InitialDelayMs: 1, MaxDelayMs: 5, TimeoutMs: 1000}, RealClock, slog.Default())

	events, err := driver.ProcessWindow(context.Background(), VideoReference{CacheHandle: "h"}, testWindow("w1"))
	if err != nil {
		t.Fatalf("unexpected error after recovering: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after recovery, got %d", len(events))
	}
	if analyzer.calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", analyzer.calls.Load())
	}
}

func TestDriver_ProcessWindow_ExhaustsRetries(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []func() ([]byte, error){transientFailure, transientFailure}}
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 2, InitialDelayMs: 1, MaxDelayMs: 5, TimeoutMs: 1000}, RealClock, slog.Default())

	_, err := driver.ProcessWindow(context.Background(), VideoReference{CacheHandle: "h"}, testWindow("w1"))
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if analyzer.calls.Load() != 2 {
		t.Errorf("expected 2 attempts (MaxRetries), got %d", analyzer.calls.Load())
	}
}

func TestDriver_ProcessWindow_InvalidVideoReference(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []func() ([]byte, error){validResponse}}
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 1, TimeoutMs: 1000}, clockz.NewFakeClock(), slog.Default())

	_, err := driver.ProcessWindow(context.Background(), VideoReference{}, testWindow("w1"))
	if !errors.Is(err, ErrNoVideoReference) {
		t.Fatalf("expected ErrNoVideoReference, got %v", err)
	}
	if analyzer.calls.Load() != 0 {
		t.Errorf("expected no analyzer calls for an invalid reference, got %d", analyzer.calls.Load())
	}
}

func safetyBlocked() ([]byte, error) {
	return nil, ErrSafetyBlocked
}

// A safety/block signal is permanent for the call that produced it but
// still counts against the retry budget: the driver retries
// it like any other failure and, if every attempt is blocked, the final
// error still unwraps to ErrSafetyBlocked.
func TestDriver_ProcessWindow_SafetyBlockedExhaustsRetries(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []func() ([]byte, error){safetyBlocked, safetyBlocked}}
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 2, InitialDelayMs: 1, MaxDelayMs: 5, TimeoutMs: 1000}, RealClock, slog.Default())

	_, err := driver.ProcessWindow(context.Background(), VideoReference{CacheHandle: "h"}, testWindow("w1"))
	if !errors.Is(err, ErrSafetyBlocked) {
		t.Fatalf("expected error to unwrap to ErrSafetyBlocked, got %v", err)
	}
	if analyzer.calls.Load() != 2 {
		t.Errorf("expected 2 attempts (MaxRetries), got %d", analyzer.calls.Load())
	}
}

// The model may answer differently on re-sample, so a safety block on one
// attempt does not prevent a later attempt from succeeding.
func TestDriver_ProcessWindow_SafetyBlockedThenRecovers(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []func() ([]byte, error){safetyBlocked, validResponse}}
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 3, InitialDelayMs: 1, MaxDelayMs: 5, TimeoutMs: 1000}, RealClock, slog.Default())

	events, err := driver.ProcessWindow(context.Background(), VideoReference{CacheHandle: "h"}, testWindow("w1"))
	if err != nil {
		t.Fatalf("unexpected error after recovering: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event after recovery, got %d", len(events))
	}
}

func TestDriver_ProcessWindow_ResolvesTeamFromJerseyColor(t *testing.T) {
	// Analyzer misreports the team as away, but attaches a raw jersey color
	// close to the known home kit hue (pure red, hue 0). WithKitHues should
	// make the resolved team win over the analyzer's own label.
	response := func() ([]byte, error) {
		resp := AnalyzerResponse{Events: []AnalyzerEvent{{
			Timestamp:   1,
			Type:        EventPass,
			Team:        TeamAway,
			Confidence:  0.9,
			JerseyColor: &JerseyColorSample{R: 1, G: 0, B: 0},
		}}}
		raw, _ := json.Marshal(resp)
		return raw, nil
	}
	analyzer := &scriptedAnalyzer{results: []func() ([]byte, error){response}}
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 1, TimeoutMs: 1000}, clockz.NewFakeClock(), slog.Default())
	driver = driver.WithKitHues(KitHues{HomeHue: 0, AwayHue: 240})

	events, err := driver.ProcessWindow(context.Background(), VideoReference{CacheHandle: "h"}, testWindow("w1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Team != TeamHome {
		t.Errorf("expected jersey-color resolution to override the analyzer's team label to home, got %s", events[0].Team)
	}
}

func TestDriver_ProcessWindow_NoKitHuesKeepsAnalyzerTeam(t *testing.T) {
	response := func() ([]byte, error) {
		resp := AnalyzerResponse{Events: []AnalyzerEvent{{
			Timestamp:   1,
			Type:        EventPass,
			Team:        TeamAway,
			Confidence:  0.9,
			JerseyColor: &JerseyColorSample{R: 1, G: 0, B: 0},
		}}}
		raw, _ := json.Marshal(resp)
		return raw, nil
	}
	analyzer := &scriptedAnalyzer{results: []func() ([]byte, error){response}}
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 1, TimeoutMs: 1000}, clockz.NewFakeClock(), slog.Default())

	events, err := driver.ProcessWindow(context.Background(), VideoReference{CacheHandle: "h"}, testWindow("w1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if events[0].Team != TeamAway {
		t.Errorf("expected analyzer's own team label without KitHues configured, got %s", events[0].Team)
	}
}

func TestDriver_ProcessWindow_EmptyResponse(t *testing.T) {
	analyzer := &scriptedAnalyzer{results: []func() ([]byte, error){func() ([]byte, error) { return nil, nil }}}
	clock := clockz.NewFakeClock()
	driver := NewDriver(analyzer, nil, RetryConfig{MaxRetries: 1, InitialDelayMs: 10, MaxDelayMs: 100, TimeoutMs: 1000}, clock, slog.Default())

	_, err := driver.ProcessWindow(context.Background(), VideoReference{CacheHandle: "h"}, testWindow("w1"))
	if err == nil {
		t.Fatal("expected an error for an empty analyzer response")
	}
}
