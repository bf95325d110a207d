package matchpipe

import (
	"log/slog"

	"github.com/google/uuid"
)

// defaultWindowSize is the width of an analysis window.
const defaultWindowSize = 60.0

// defaultWindowOverlap is how much adjacent windows within a segment
// overlap.
const defaultWindowOverlap = 15.0

// maxWindowsPerSegment is the per-segment safety cap: emitting more than this
// many windows for one segment logs a warning and stops.
const maxWindowsPerSegment = 100

// defaultFPSBySegment is the default per-segment-type target frame rate.
var defaultFPSBySegment = map[SegmentType]int{
	SegmentActivePlay: 3,
	SegmentSetPiece:   2,
	SegmentGoalMoment: 5,
	SegmentStoppage:   1,
}

// WindowGenerator carves an ordered list of Segments into overlapping
// analysis windows. It holds no mutable state and is safe for
// concurrent use; Generate is a pure function of its inputs.
type WindowGenerator struct {
	logger        *slog.Logger
	fpsBySegment  map[SegmentType]int
	windowSize    float64
	windowOverlap float64
	skipStoppages bool
}

// NewWindowGenerator creates a WindowGenerator using the given windowing
// config. A nil logger defaults to slog.Default().
func NewWindowGenerator(cfg WindowingConfig, logger *slog.Logger) *WindowGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	fps := cfg.FPSBySegment
	if fps == nil {
		fps = defaultFPSBySegment
	}
	size := cfg.DefaultDurationSec
	if size <= 0 {
		size = defaultWindowSize
	}
	overlap := cfg.OverlapSec
	if overlap < 0 {
		overlap = defaultWindowOverlap
	}
	return &WindowGenerator{
		windowSize:    size,
		windowOverlap: overlap,
		fpsBySegment:  fps,
		skipStoppages: cfg.SkipStoppages,
		logger:        logger,
	}
}

// Generate emits the windows for every segment in order. Segments of type
// stoppage are skipped when skipStoppages is enabled.
func (g *WindowGenerator) Generate(segments []Segment) []Window {
	var windows []Window
	for _, seg := range segments {
		if g.skipStoppages && seg.Type == SegmentStoppage {
			continue
		}
		windows = append(windows, g.generateForSegment(seg)...)
	}
	return windows
}

func (g *WindowGenerator) generateForSegment(seg Segment) []Window {
	length := seg.EndSec - seg.StartSec
	fps := g.fpsBySegment[seg.Type]
	if fps == 0 {
		fps = defaultFPSBySegment[SegmentActivePlay]
	}

	if length <= g.windowSize {
		return []Window{{
			WindowID:       uuid.NewString(),
			AbsoluteStart:  seg.StartSec,
			AbsoluteEnd:    seg.EndSec,
			Overlap:        WindowOverlap{},
			TargetFPS:      fps,
			SegmentContext: seg,
		}}
	}

	step := g.windowSize - g.windowOverlap
	var windows []Window
	cursor := seg.StartSec
	for i := 0; cursor < seg.EndSec; i++ {
		if i >= maxWindowsPerSegment {
			g.logger.Warn("window generation hit safety cap, truncating segment",
				"segmentId", seg.SegmentID, "cap", maxWindowsPerSegment)
			break
		}

		end := min(cursor+g.windowSize, seg.EndSec)
		overlap := WindowOverlap{}
		if i > 0 {
			overlap.Before = g.windowOverlap
		}
		if end < seg.EndSec {
			overlap.After = g.windowOverlap
		}

		windows = append(windows, Window{
			WindowID:       uuid.NewString(),
			AbsoluteStart:  cursor,
			AbsoluteEnd:    end,
			Overlap:        overlap,
			TargetFPS:      fps,
			SegmentContext: seg,
		})

		cursor += step
	}
	return windows
}
