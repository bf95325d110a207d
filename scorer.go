package matchpipe

import "sort"

// rarityByWeight back-infers an event kind from a match's importanceBoost
// and maps it to that kind's rarity score. The inference is lossy: detail
// modifiers can push one kind's boost into another kind's band, and the
// bands below 0.8 infer kinds (shot, key_pass, tackle) the rarity table
// assigns nothing to, so save and yellow_card rarities are unreachable
// through this path.
var rarityByWeight = []struct {
	minWeight float64
	rarity    float64
}{
	{0.95, 0.7},  // inferred goal
	{0.9, 0.8},   // inferred penalty
	{0.85, 0.85}, // inferred red_card
	{0.8, 0.9},   // inferred own_goal
}

// rarityFor returns the rarity score for the event kind back-inferred from
// importanceBoost. Boosts below every threshold contribute no rarity.
func rarityFor(importanceBoost float64) float64 {
	for _, r := range rarityByWeight {
		if importanceBoost >= r.minWeight {
			return r.rarity
		}
	}
	return 0
}

// ClipImportanceScorer computes a clip's multi-factor importance score
// from its matched events. It holds no mutable state.
type ClipImportanceScorer struct{}

// NewClipImportanceScorer creates a ClipImportanceScorer.
func NewClipImportanceScorer() *ClipImportanceScorer {
	return &ClipImportanceScorer{}
}

// Score computes ClipImportanceFactors for a clip given its matches
// (already sorted by confidence descending, as ClipMatcher.MatchEvents
// returns them) and the match context.
func (s *ClipImportanceScorer) Score(matches []ClipEventMatch, ctx MatchContext) ClipImportanceFactors {
	if len(matches) == 0 {
		return ClipImportanceFactors{BaseImportance: 0.1, FinalImportance: 0.1}
	}

	base := matches[0].ImportanceBoost * matches[0].Confidence

	var typeBoost float64
	limit := len(matches)
	if limit > 3 {
		limit = 3
	}
	for i := 1; i < limit; i++ {
		m := matches[i]
		typeBoost += 0.3 * m.ImportanceBoost * m.Confidence * pow05(i)
	}

	ctxBoost := contextBoost(matches, ctx)

	var rarityBoost float64
	for _, m := range matches {
		r := rarityFor(m.ImportanceBoost) * m.Confidence
		if r > rarityBoost {
			rarityBoost = r
		}
	}
	rarityBoost *= 0.2

	final := base + typeBoost + ctxBoost + rarityBoost
	if final > 1.0 {
		final = 1.0
	}

	return ClipImportanceFactors{
		BaseImportance:  base,
		EventTypeBoost:  typeBoost,
		ContextBoost:    ctxBoost,
		RarityBoost:     rarityBoost,
		FinalImportance: final,
	}
}

// contextBoost computes the match-context component (max 0.3) of a clip's
// importance.
func contextBoost(matches []ClipEventMatch, ctx MatchContext) float64 {
	var boost float64

	if ctx.TotalMatchMinutes > 0 {
		progress := ctx.MatchMinute / ctx.TotalMatchMinutes
		if progress > 0.8 {
			boost += 0.15 * (progress - 0.8) / 0.2
		}
	}

	// TotalMatchMinutes > 0 is the "context present" signal; a zero-value
	// context must not read as a tied match.
	if ctx.TotalMatchMinutes > 0 && absInt(ctx.ScoreDifferential) <= 1 {
		boost += 0.1
	}

	goalWeight := eventTypeBaseWeights[EventGoal]
	if ctx.ScoreDifferential < 0 {
		for _, m := range matches {
			if m.ImportanceBoost >= goalWeight {
				boost += 0.15
				break
			}
		}
	}

	if boost > 0.3 {
		boost = 0.3
	}
	return boost
}

// pow05 returns 0.5^n for small non-negative n without importing math.Pow
// for a value this cheap to compute by repeated halving.
func pow05(n int) float64 {
	v := 1.0
	for i := 0; i < n; i++ {
		v *= 0.5
	}
	return v
}

// RankClipsByImportance scores and ranks every clip against events under
// ctx and tolerance, sorted by finalImportance descending with sequential
// ranks assigned.
func RankClipsByImportance(clips []Clip, events []Event, ctx MatchContext, tolerance float64) []RankedClip {
	matcher := NewClipMatcher(tolerance)
	scorer := NewClipImportanceScorer()

	ranked := make([]RankedClip, 0, len(clips))
	for _, clip := range clips {
		matches := matcher.MatchEvents(clip, events)
		factors := scorer.Score(matches, ctx)
		ranked = append(ranked, RankedClip{
			Clip:    clip,
			Matches: matches,
			Factors: factors,
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Factors.FinalImportance > ranked[j].Factors.FinalImportance
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// TopN slices the top n ranked clips (ranked is assumed already sorted by
// RankClipsByImportance). n <= 0 or n >= len(ranked) returns ranked as-is.
func TopN(ranked []RankedClip, n int) []RankedClip {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}

// FilterByThreshold keeps only ranked clips whose finalImportance is at
// least threshold.
func FilterByThreshold(ranked []RankedClip, threshold float64) []RankedClip {
	out := make([]RankedClip, 0, len(ranked))
	for _, r := range ranked {
		if r.Factors.FinalImportance >= threshold {
			out = append(out, r)
		}
	}
	return out
}
