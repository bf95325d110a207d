package matchpipe

import "math"

// This file defines the closed, sum-typed event and segment taxonomies
// plus the value types every subsystem in this package passes around.
// All types here are immutable value types produced by exactly one
// subsystem and owned by the pipeline run that created them; nothing is
// stored as a shared global.

// SegmentType classifies a contiguous interval of match video.
type SegmentType string

const (
	SegmentActivePlay SegmentType = "active_play"
	SegmentSetPiece   SegmentType = "set_piece"
	SegmentGoalMoment SegmentType = "goal_moment"
	SegmentStoppage   SegmentType = "stoppage"
	SegmentReplay     SegmentType = "replay"
)

// Team identifies which side an event or segment belongs to.
type Team string

const (
	TeamHome    Team = "home"
	TeamAway    Team = "away"
	TeamUnknown Team = "unknown"
)

// Zone is the pitch third an event occurred in, as reported by the analyzer.
type Zone string

const (
	ZoneDefensiveThird Zone = "defensive_third"
	ZoneMiddleThird    Zone = "middle_third"
	ZoneAttackingThird Zone = "attacking_third"
)

// EventType is the closed sum of tactical event kinds a window can report
// and the broader set the scorer understands. The latter is a superset
// since scored clips may also be matched against discrete match events
// (goals, cards) that the windowed detector itself never emits directly
// but that an upstream collaborator (out of scope here) can feed into the
// scorer and matcher.
type EventType string

const (
	EventPass     EventType = "pass"
	EventCarry    EventType = "carry"
	EventTurnover EventType = "turnover"
	EventShot     EventType = "shot"
	EventSetPiece EventType = "setPiece"

	EventGoal       EventType = "goal"
	EventPenalty    EventType = "penalty"
	EventRedCard    EventType = "red_card"
	EventYellowCard EventType = "yellow_card"
	EventOwnGoal    EventType = "own_goal"
	EventKeyPass    EventType = "key_pass"
	EventTackle     EventType = "tackle"
	EventFoul       EventType = "foul"
	EventSave       EventType = "save"
	EventChance     EventType = "chance"
)

// Segment is an input interval of the match with a tactical classification.
type Segment struct {
	Description *string
	Team        *Team
	Importance  *float64
	SegmentID   string
	Type        SegmentType
	StartSec    float64
	EndSec      float64
}

// WindowOverlap records how much a window overlaps its neighbors.
type WindowOverlap struct {
	Before float64
	After  float64
}

// Window is an analysis sub-interval within a segment, passed to the
// external analyzer. Invariants: AbsoluteStart < AbsoluteEnd;
// Overlap.Before == 0 for a segment's first window; Overlap.After == 0 for
// its last.
type Window struct {
	WindowID       string
	AbsoluteStart  float64
	AbsoluteEnd    float64
	Overlap        WindowOverlap
	TargetFPS      int
	SegmentContext Segment
}

// EventDetails is the sparse, all-optional record carried by raw and
// deduplicated events. Every field is a pointer so "field absent" and
// "field is the zero value" are distinguishable, matching the analyzer's
// JSON contract where every details field is nullable/omittable.
type EventDetails struct {
	PassType     *string
	Outcome      *string
	TargetPlayer *string
	Distance     *float64
	EndReason    *string
	TurnoverType *string
	ShotResult   *string
	ShotType     *string
	SetPieceType *string
	IsOnTarget   *bool
	WonTackle    *bool
}

// RawEvent is one event proposal from a single window call, with timestamps
// relative to that window.
type RawEvent struct {
	Player            *string
	Zone              *Zone
	VisualEvidence    *string
	WindowID          string
	Type              EventType
	Team              Team
	Details           EventDetails
	RelativeTimestamp float64
	AbsoluteTimestamp float64
	Confidence        float64
}

// DeduplicatedEvent is the representative event produced by collapsing
// temporally adjacent same-kind raw events from overlapping windows.
// Invariant: len(MergedFromWindows) >= 1.
type DeduplicatedEvent struct {
	Player               *string
	Zone                 *Zone
	MergedVisualEvidence *string
	ID                   string
	Type                 EventType
	Team                 Team
	Details              EventDetails
	AbsoluteTimestamp    float64
	AdjustedConfidence   float64
	MergedFromWindows    []string
}

// Clip is a short candidate interval for highlight-reel consideration.
type Clip struct {
	ID        string
	StartTime float64
	EndTime   float64
}

// Duration returns the clip's length in seconds.
func (c Clip) Duration() float64 {
	return c.EndTime - c.StartTime
}

// Valid reports whether the clip can be matched against events:
// StartTime must precede EndTime and the duration must be finite.
func (c Clip) Valid() bool {
	d := c.Duration()
	return c.StartTime < c.EndTime && !isNonFinite(d)
}

// Event is the scorer's view of a match event:
// a flatter record than RawEvent/DeduplicatedEvent because the scorer and
// matcher also operate over discrete match events (goals, cards) that may
// arrive from an upstream collaborator rather than from the windowed
// detector.
type Event struct {
	ID        string
	Type      EventType
	Details   EventDetails
	Timestamp float64
}

// MatchType is the temporal relationship between a clip and an event.
type MatchType string

const (
	MatchExact     MatchType = "exact"
	MatchOverlap   MatchType = "overlap"
	MatchProximity MatchType = "proximity"
)

// ClipEventMatch records one event matched to a clip.
type ClipEventMatch struct {
	ClipID          string
	EventID         string
	MatchType       MatchType
	Confidence      float64
	TemporalOffset  float64
	ImportanceBoost float64
}

// ClipImportanceFactors breaks down a clip's final importance score into its
// contributing terms.
type ClipImportanceFactors struct {
	BaseImportance  float64
	EventTypeBoost  float64
	ContextBoost    float64
	RarityBoost     float64
	FinalImportance float64
}

// RankedClip is a clip together with its computed importance factors and
// its rank among the set it was ranked within.
type RankedClip struct {
	Clip    Clip
	Matches []ClipEventMatch
	Factors ClipImportanceFactors
	Rank    int
}

// DynamicWindow is a context-aware clip window computed around an event.
type DynamicWindow struct {
	Reason        string
	ContextBefore []Event
	ContextAfter  []Event
	Before        float64
	After         float64
}

// SetPieceResultType is the outcome classification for a set piece.
type SetPieceResultType string

const (
	ResultGoal          SetPieceResultType = "goal"
	ResultShot          SetPieceResultType = "shot"
	ResultCleared       SetPieceResultType = "cleared"
	ResultTurnover      SetPieceResultType = "turnover"
	ResultContinuedPlay SetPieceResultType = "continued_play"
	ResultUnknown       SetPieceResultType = "unknown"
)

// SetPieceOutcome is the first meaningful event following a set piece
// within a bounded window.
type SetPieceOutcome struct {
	OutcomeEventID *string
	ResultType     SetPieceResultType
	TimeToOutcome  float64
	ScoringChance  bool
}

// Stat is one calculator's output for a half merger input.
type Stat struct {
	PlayerID     *string
	TeamID       *string
	StatID       string
	CalculatorID string
	Value        float64
}

// MatchContext carries match-level state used to modulate importance and
// dynamic-window sizes.
type MatchContext struct {
	MatchMinute       float64
	TotalMatchMinutes float64
	ScoreDifferential int
}

func isNonFinite(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
