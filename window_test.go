package matchpipe

import "testing"

func TestWindowGenerator_ShortSegmentProducesSingleWindow(t *testing.T) {
	gen := NewWindowGenerator(WindowingConfig{DefaultDurationSec: 60, OverlapSec: 15}, nil)
	windows := gen.Generate([]Segment{{SegmentID: "s1", Type: SegmentActivePlay, StartSec: 0, EndSec: 30}})
	if len(windows) != 1 {
		t.Fatalf("expected 1 window, got %d", len(windows))
	}
	w := windows[0]
	if w.AbsoluteStart != 0 || w.AbsoluteEnd != 30 {
		t.Errorf("expected window spanning the whole segment, got %.1f-%.1f", w.AbsoluteStart, w.AbsoluteEnd)
	}
	if w.Overlap.Before != 0 || w.Overlap.After != 0 {
		t.Errorf("expected no overlap on a single-window segment, got %+v", w.Overlap)
	}
}

func TestWindowGenerator_LongSegmentOverlapsAdjacentWindows(t *testing.T) {
	gen := NewWindowGenerator(WindowingConfig{DefaultDurationSec: 60, OverlapSec: 15}, nil)
	windows := gen.Generate([]Segment{{SegmentID: "s1", Type: SegmentActivePlay, StartSec: 0, EndSec: 150}})
	if len(windows) < 2 {
		t.Fatalf("expected multiple windows for a 150s segment, got %d", len(windows))
	}
	first, second := windows[0], windows[1]
	if first.Overlap.Before != 0 {
		t.Errorf("expected the first window to have no leading overlap, got %.1f", first.Overlap.Before)
	}
	if second.Overlap.Before != 15 {
		t.Errorf("expected the second window to overlap the first by 15s, got %.1f", second.Overlap.Before)
	}
	last := windows[len(windows)-1]
	if last.Overlap.After != 0 {
		t.Errorf("expected the last window to have no trailing overlap, got %.1f", last.Overlap.After)
	}
	if last.AbsoluteEnd != 150 {
		t.Errorf("expected the last window to end at the segment boundary, got %.1f", last.AbsoluteEnd)
	}
}

func TestWindowGenerator_SkipsStoppagesByDefault(t *testing.T) {
	gen := NewWindowGenerator(WindowingConfig{DefaultDurationSec: 60, OverlapSec: 15, SkipStoppages: true}, nil)
	windows := gen.Generate([]Segment{
		{SegmentID: "s1", Type: SegmentStoppage, StartSec: 0, EndSec: 30},
		{SegmentID: "s2", Type: SegmentActivePlay, StartSec: 30, EndSec: 60},
	})
	if len(windows) != 1 {
		t.Fatalf("expected the stoppage segment to be skipped, got %d windows", len(windows))
	}
	if windows[0].SegmentContext.SegmentID != "s2" {
		t.Errorf("expected the remaining window from s2, got %s", windows[0].SegmentContext.SegmentID)
	}
}

func TestWindowGenerator_KeepsStoppagesWhenConfigured(t *testing.T) {
	gen := NewWindowGenerator(WindowingConfig{DefaultDurationSec: 60, OverlapSec: 15, SkipStoppages: false}, nil)
	windows := gen.Generate([]Segment{{SegmentID: "s1", Type: SegmentStoppage, StartSec: 0, EndSec: 30}})
	if len(windows) != 1 {
		t.Fatalf("expected the stoppage segment to produce a window when SkipStoppages is false, got %d", len(windows))
	}
}

func TestWindowGenerator_UsesSegmentFPSDefault(t *testing.T) {
	gen := NewWindowGenerator(WindowingConfig{DefaultDurationSec: 60, OverlapSec: 15}, nil)
	windows := gen.Generate([]Segment{{SegmentID: "s1", Type: SegmentGoalMoment, StartSec: 0, EndSec: 10}})
	if windows[0].TargetFPS != 5 {
		t.Errorf("expected goal_moment fps default 5, got %d", windows[0].TargetFPS)
	}
}

func TestWindowGenerator_SafetyCapTruncates(t *testing.T) {
	gen := NewWindowGenerator(WindowingConfig{DefaultDurationSec: 10, OverlapSec: 0}, nil)
	// 10000s / 10s-per-window would need 1000 windows without the cap.
	windows := gen.Generate([]Segment{{SegmentID: "s1", Type: SegmentActivePlay, StartSec: 0, EndSec: 10000}})
	if len(windows) > maxWindowsPerSegment {
		t.Fatalf("expected window generation capped at %d, got %d", maxWindowsPerSegment, len(windows))
	}
}
