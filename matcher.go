package matchpipe

import (
	"math"
	"sort"
)

// defaultMatcherToleranceSec is the matcher's default proximity tolerance
// τ.
const defaultMatcherToleranceSec = 2.0

// ClipMatcher classifies how a clip's interval relates to a set of events
// and ranks the resulting matches. It holds only its configured
// tolerance and is safe for concurrent use.
type ClipMatcher struct {
	tolerance float64
}

// NewClipMatcher creates a ClipMatcher. tolerance <= 0 defaults to
// defaultMatcherToleranceSec.
func NewClipMatcher(tolerance float64) *ClipMatcher {
	if tolerance <= 0 {
		tolerance = defaultMatcherToleranceSec
	}
	return &ClipMatcher{tolerance: tolerance}
}

// MatchEvents classifies every event against clip and returns the matches
// sorted by confidence descending. An invalid clip
// returns an empty slice silently.
func (m *ClipMatcher) MatchEvents(clip Clip, events []Event) []ClipEventMatch {
	if !clip.Valid() {
		return []ClipEventMatch{}
	}

	center := (clip.StartTime + clip.EndTime) / 2
	half := clip.Duration() / 2

	matches := make([]ClipEventMatch, 0, len(events))
	for _, e := range events {
		match, ok := m.classify(clip, center, half, e)
		if !ok {
			continue
		}
		matches = append(matches, match)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Confidence > matches[j].Confidence
	})
	return matches
}

// classify buckets event e against clip into exact/overlap/proximity.
// The exact condition ("start <= e.t <= end") is mathematically identical
// to "offset <= half" for a clip centered at c with half-width half,
// which would make a literal overlap condition unreachable. We resolve
// that by reading overlap as the band just outside the clip's own
// bounds, out to one more half-width (offset in (half, 2*half]): the
// natural "near miss" tier between exact containment and bare proximity,
// and the only reading under which all three tiers are reachable.
func (m *ClipMatcher) classify(clip Clip, center, half float64, e Event) (ClipEventMatch, bool) {
	offset := math.Abs(e.Timestamp - center)

	switch {
	case e.Timestamp >= clip.StartTime && e.Timestamp <= clip.EndTime:
		conf := math.Max(0.7, 1.0-(offset/half)*0.3)
		return ClipEventMatch{
			ClipID: clip.ID, EventID: e.ID, MatchType: MatchExact,
			Confidence: conf, TemporalOffset: offset, ImportanceBoost: eventTypeBoost(e),
		}, true

	case offset <= 2*half:
		conf := math.Max(0.4, 0.7-(offset/half)*0.3)
		return ClipEventMatch{
			ClipID: clip.ID, EventID: e.ID, MatchType: MatchOverlap,
			Confidence: conf, TemporalOffset: offset, ImportanceBoost: eventTypeBoost(e),
		}, true

	case offset <= m.tolerance:
		conf := math.Max(0.2, 0.4-(offset/m.tolerance)*0.2)
		return ClipEventMatch{
			ClipID: clip.ID, EventID: e.ID, MatchType: MatchProximity,
			Confidence: conf, TemporalOffset: offset, ImportanceBoost: eventTypeBoost(e),
		}, true

	default:
		return ClipEventMatch{}, false
	}
}

// eventTypeBaseWeights are the per-event-type importance boosts.
var eventTypeBaseWeights = map[EventType]float64{
	EventGoal:       1.0,
	EventPenalty:    0.95,
	EventRedCard:    0.9,
	EventOwnGoal:    0.85,
	EventSave:       0.75,
	EventShot:       0.7,
	EventChance:     0.65,
	EventKeyPass:    0.6,
	EventFoul:       0.55,
	EventYellowCard: 0.55,
	EventSetPiece:   0.5,
	EventTackle:     0.5,
	EventTurnover:   0.45,
	EventPass:       0.3,
	EventCarry:      0.25,
}

// eventTypeBoost derives a matched event's importanceBoost from its base
// weight and detail modifiers, clamped to 1.0.
func eventTypeBoost(e Event) float64 {
	boost, ok := eventTypeBaseWeights[e.Type]
	if !ok {
		boost = 0
	}

	switch e.Type {
	case EventShot:
		if e.Details.ShotResult != nil && *e.Details.ShotResult == "goal" {
			boost = eventTypeBaseWeights[EventGoal]
			break
		}
		if e.Details.IsOnTarget != nil && *e.Details.IsOnTarget {
			boost *= 1.2
		}
		if e.Details.ShotType != nil && *e.Details.ShotType == "long_range" {
			boost *= 1.1
		}
	case EventTackle:
		if e.Details.WonTackle != nil && *e.Details.WonTackle {
			boost *= 1.3
		}
	case EventTurnover:
		if e.Details.TurnoverType != nil && *e.Details.TurnoverType == "interception" {
			boost *= 1.2
		}
	}

	if boost > 1.0 {
		boost = 1.0
	}
	return boost
}
