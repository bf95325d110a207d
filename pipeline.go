package matchpipe

import (
	"context"
	"log/slog"
)

// Pipeline wires the window generator, windowed-detection executor,
// deduplicator, outcome analyzer, scorer, and half merger into the entry
// points a caller drives a per-match run through. It owns no per-run state; a single Pipeline value can run
// many matches concurrently as long as each call supplies its own
// matchID and video reference.
type Pipeline struct {
	config Config
	logger *slog.Logger
	clock  Clock
}

// NewPipeline creates a Pipeline using cfg. A nil logger defaults to
// slog.Default(); a nil clock defaults to RealClock.
func NewPipeline(cfg Config, clock Clock, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	if clock == nil {
		clock = RealClock
	}
	return &Pipeline{config: cfg, logger: logger, clock: clock}
}

// DetectEventsWindowedInput is the input to DetectEventsWindowed.
type DetectEventsWindowedInput struct {
	MatchID  string
	Version  string
	Segments []Segment
	// KitHues is optional. When set, it resolves any analyzer event carrying
	// a raw JerseyColor sample to home/away via ResolveJerseyTeam instead of
	// the analyzer's own team label.
	KitHues  *KitHues
}

// DetectEventsWindowedResult is the output of DetectEventsWindowed.
type DetectEventsWindowedResult struct {
	EventsByType  map[EventType]int
	MatchID       string
	SkipReason    string
	RawEvents     []RawEvent
	WindowCount   int
	RawEventCount int
	Skipped       bool
}

// DetectEventsWindowed carves input.Segments into windows, runs the
// bounded-parallel detection executor against ref, and returns the raw
// events produced. A missing video reference is not an
// error: it short-circuits to an empty, Skipped result.
func (p *Pipeline) DetectEventsWindowed(ctx context.Context, analyzer Analyzer, ref VideoReference, input DetectEventsWindowedInput, progress *ProgressReporter, reviews *PendingReviewSink) (DetectEventsWindowedResult, error) {
	if !ref.Valid() {
		return DetectEventsWindowedResult{
			MatchID:    input.MatchID,
			Skipped:    true,
			SkipReason: ErrNoVideoReference.Error(),
		}, nil
	}

	generator := NewWindowGenerator(p.config.Windowing, p.logger)
	windows := generator.Generate(input.Segments)

	driver := NewDriver(analyzer, NewPromptTemplate(), p.config.Retry, p.clock, p.logger)
	if input.KitHues != nil {
		driver = driver.WithKitHues(*input.KitHues)
	}
	executor := NewExecutor(driver, p.config.Windowing.Parallelism)

	events, err := executor.Run(ctx, ref, windows, progress, reviews, input.MatchID)

	byType := make(map[EventType]int)
	for _, e := range events {
		byType[e.Type]++
	}

	result := DetectEventsWindowedResult{
		MatchID:       input.MatchID,
		WindowCount:   len(windows),
		RawEventCount: len(events),
		EventsByType:  byType,
		RawEvents:     events,
	}

	if err != nil {
		// executor.Run already aggregated any window failures into
		// ErrBatchFailed; the events it did collect (including the
		// PendingReviewSink entries for whichever windows failed) are
		// still returned alongside the wrapped error so the caller can
		// persist the partial result instead of losing it.
		return result, NewStepError(input.MatchID, "detectEventsWindowed", err)
	}

	return result, nil
}

// DeduplicateEvents clusters and merges rawEvents. A nil cfg
// uses the pipeline's configured defaults.
func (p *Pipeline) DeduplicateEvents(rawEvents []RawEvent, cfg *DedupConfig) ([]DeduplicatedEvent, DedupStats) {
	effective := p.config.Dedup
	if cfg != nil {
		effective = *cfg
	}
	return NewDeduplicator(effective).Deduplicate(rawEvents)
}

// AnalyzeSetPieceOutcomes determines the outcome of every set piece in
// setPieces by scanning allEvents within windowSec. windowSec
// <= 0 uses the analyzer's documented default of 10s.
func (p *Pipeline) AnalyzeSetPieceOutcomes(setPieces, allEvents []DeduplicatedEvent, windowSec float64) []SetPieceOutcome {
	return NewSetPieceOutcomeAnalyzer(windowSec).Analyze(setPieces, allEvents)
}

// ComputeDynamicWindows derives a context-aware {before, after} clip
// window around each of events, given the full peer population and match
// context.
func (p *Pipeline) ComputeDynamicWindows(events, peers []Event, ctx MatchContext) []DynamicWindow {
	calc := NewDynamicWindowCalculator(p.config.DynamicWindow)
	windows := make([]DynamicWindow, len(events))
	for i, e := range events {
		windows[i] = calc.Calculate(e, peers, ctx)
	}
	return windows
}

// RankClipsByImportance matches clips against events and ranks them by
// importance. tolerance <= 0 uses the pipeline's configured
// matcher tolerance.
func (p *Pipeline) RankClipsByImportance(clips []Clip, events []Event, ctx MatchContext, tolerance float64) []RankedClip {
	if tolerance <= 0 {
		tolerance = p.config.Matcher.Tolerance
	}
	return RankClipsByImportance(clips, events, ctx, tolerance)
}

// MergeHalves composes two independently-analyzed halves into one
// timeline and stats block.
func (p *Pipeline) MergeHalves(firstHalf, secondHalf []DeduplicatedEvent, firstClips, secondClips []Clip, halfDuration float64, firstStats, secondStats []Stat) ([]DeduplicatedEvent, []Clip, []MergedStat) {
	merger := NewHalfMerger()
	events := merger.MergeEvents(firstHalf, secondHalf, halfDuration)
	clips := merger.MergeClips(firstClips, secondClips, halfDuration)
	stats := merger.MergeStats(firstStats, secondStats)
	return events, clips, stats
}
