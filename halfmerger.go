package matchpipe

import "regexp"

// countMetricPattern and its exclusion classify a stat's calculatorId
// for deciding whether a stat's two half-values sum or average. A
// calculatorId matching countMetricPattern is a count metric (sum) unless
// it also matches countExclusionPattern (average wins in that case, e.g.
// "total_possession_percentage" is excluded despite containing "total").
var (
	countMetricPattern    = regexp.MustCompile(`(^|_)(count|total|number)(_|$)|_(goals|shots|passes|tackles|clearances|blocks|fouls|corners|offsides)$`)
	countExclusionPattern = regexp.MustCompile(`(^|_)(accuracy|rate|percentage|ratio|average)(_|$)`)
)

// isCountMetric reports whether calculatorId names a count-style stat that
// should be summed across halves rather than averaged.
func isCountMetric(calculatorID string) bool {
	if countExclusionPattern.MatchString(calculatorID) {
		return false
	}
	return countMetricPattern.MatchString(calculatorID)
}

// MergedStat is one (calculatorId, player/team) group's combined value
// across halves.
type MergedStat struct {
	PlayerID         *string
	TeamID           *string
	CalculatorID     string
	Value            float64
	FirstHalfValue   float64
	SecondHalfValue  float64
	HasSecondHalf    bool
	MergedFromHalves bool
}

// HalfMerger composes two independently-analyzed halves of a match into
// one timeline and one statistics block. It holds no mutable state.
type HalfMerger struct{}

// NewHalfMerger creates a HalfMerger.
func NewHalfMerger() *HalfMerger {
	return &HalfMerger{}
}

// MergeEvents concatenates first-half events with second-half events
// shifted forward by halfDuration seconds.
func (m *HalfMerger) MergeEvents(firstHalf, secondHalf []DeduplicatedEvent, halfDuration float64) []DeduplicatedEvent {
	merged := make([]DeduplicatedEvent, 0, len(firstHalf)+len(secondHalf))
	merged = append(merged, firstHalf...)
	for _, e := range secondHalf {
		shifted := e
		shifted.AbsoluteTimestamp += halfDuration
		merged = append(merged, shifted)
	}
	return merged
}

// MergeClips concatenates first-half clips with second-half clips shifted
// forward by halfDuration seconds.
func (m *HalfMerger) MergeClips(firstHalf, secondHalf []Clip, halfDuration float64) []Clip {
	merged := make([]Clip, 0, len(firstHalf)+len(secondHalf))
	merged = append(merged, firstHalf...)
	for _, c := range secondHalf {
		shifted := c
		shifted.StartTime += halfDuration
		shifted.EndTime += halfDuration
		merged = append(merged, shifted)
	}
	return merged
}

// statGroupKey groups stats by (calculatorId, playerId ?? "match",
// teamId ?? "none").
type statGroupKey struct {
	calculatorID string
	playerID     string
	teamID       string
}

func groupKeyFor(s Stat) statGroupKey {
	player := "match"
	if s.PlayerID != nil {
		player = *s.PlayerID
	}
	team := "none"
	if s.TeamID != nil {
		team = *s.TeamID
	}
	return statGroupKey{calculatorID: s.CalculatorID, playerID: player, teamID: team}
}

// MergeStats groups stats from every half by (calculatorId, playerId,
// teamId) and combines each group's values. Only the first two halves
// supplied for a given key are merged; any further halves for that key
// are silently dropped.
func (m *HalfMerger) MergeStats(halves ...[]Stat) []MergedStat {
	groups := make(map[statGroupKey][]Stat)
	var order []statGroupKey

	for _, half := range halves {
		for _, s := range half {
			key := groupKeyFor(s)
			if _, seen := groups[key]; !seen {
				order = append(order, key)
			}
			if len(groups[key]) < 2 {
				groups[key] = append(groups[key], s)
			}
		}
	}

	out := make([]MergedStat, 0, len(order))
	for _, key := range order {
		group := groups[key]
		out = append(out, mergeStatGroup(group))
	}
	return out
}

func mergeStatGroup(group []Stat) MergedStat {
	first := group[0]
	merged := MergedStat{
		CalculatorID:     first.CalculatorID,
		PlayerID:         first.PlayerID,
		TeamID:           first.TeamID,
		MergedFromHalves: true,
	}

	if len(group) == 1 {
		merged.Value = first.Value
		merged.FirstHalfValue = first.Value
		return merged
	}

	second := group[1]
	merged.FirstHalfValue = first.Value
	merged.SecondHalfValue = second.Value
	merged.HasSecondHalf = true

	if isCountMetric(first.CalculatorID) {
		merged.Value = first.Value + second.Value
	} else {
		merged.Value = (first.Value + second.Value) / 2
	}
	return merged
}
