package matchpipe

import "testing"

func TestClipImportanceScorer_NoMatches(t *testing.T) {
	s := NewClipImportanceScorer()
	f := s.Score(nil, MatchContext{})
	if f.BaseImportance != 0.1 || f.FinalImportance != 0.1 {
		t.Errorf("expected default (0.1,0.1) for no matches, got %+v", f)
	}
}

func TestClipImportanceScorer_BaseImportance(t *testing.T) {
	s := NewClipImportanceScorer()
	matches := []ClipEventMatch{{ImportanceBoost: 0.7, Confidence: 0.9}}
	f := s.Score(matches, MatchContext{})
	want := 0.7 * 0.9
	if f.BaseImportance != want {
		t.Errorf("expected base %.4f, got %.4f", want, f.BaseImportance)
	}
}

func TestClipImportanceScorer_FinalClampedToOne(t *testing.T) {
	s := NewClipImportanceScorer()
	matches := []ClipEventMatch{
		{ImportanceBoost: 1.0, Confidence: 1.0},
		{ImportanceBoost: 0.95, Confidence: 1.0},
		{ImportanceBoost: 0.9, Confidence: 1.0},
	}
	ctx := MatchContext{MatchMinute: 89, TotalMatchMinutes: 90, ScoreDifferential: -1}
	f := s.Score(matches, ctx)
	if f.FinalImportance > 1.0 {
		t.Errorf("expected finalImportance clamped to 1.0, got %.4f", f.FinalImportance)
	}
}

func TestClipImportanceScorer_NoContextSkipsCloseScoreBoost(t *testing.T) {
	s := NewClipImportanceScorer()
	matches := []ClipEventMatch{{ImportanceBoost: 0.3, Confidence: 0.5}}

	none := s.Score(matches, MatchContext{})
	if none.ContextBoost != 0 {
		t.Errorf("expected no context boost for a zero-value context, got %.4f", none.ContextBoost)
	}

	tied := s.Score(matches, MatchContext{MatchMinute: 10, TotalMatchMinutes: 90, ScoreDifferential: 0})
	if tied.ContextBoost != 0.1 {
		t.Errorf("expected close-score boost 0.1 for an actual tied match, got %.4f", tied.ContextBoost)
	}
}

func TestRarityFor_Thresholds(t *testing.T) {
	cases := []struct {
		boost float64
		want  float64
	}{
		{1.0, 0.7},
		{0.95, 0.7},
		{0.9, 0.8},
		{0.85, 0.85},
		{0.8, 0.9},
		{0.7, 0},
		{0.5, 0},
		{0.1, 0},
	}
	for _, c := range cases {
		if got := rarityFor(c.boost); got != c.want {
			t.Errorf("rarityFor(%.2f) = %.2f, want %.2f", c.boost, got, c.want)
		}
	}
}

func TestRankClipsByImportance_StableDescendingOrder(t *testing.T) {
	clips := []Clip{
		{ID: "low", StartTime: 100, EndTime: 110},
		{ID: "high", StartTime: 0, EndTime: 10},
	}
	events := []Event{
		{ID: "e1", Type: EventGoal, Timestamp: 5},
		{ID: "e2", Type: EventPass, Timestamp: 105},
	}
	ranked := RankClipsByImportance(clips, events, MatchContext{}, 2.0)
	if len(ranked) != 2 {
		t.Fatalf("expected 2 ranked clips, got %d", len(ranked))
	}
	if ranked[0].Clip.ID != "high" {
		t.Errorf("expected the goal clip ranked first, got %s", ranked[0].Clip.ID)
	}
	if ranked[0].Rank != 1 || ranked[1].Rank != 2 {
		t.Errorf("expected sequential ranks 1,2, got %d,%d", ranked[0].Rank, ranked[1].Rank)
	}
}

func TestTopN(t *testing.T) {
	ranked := []RankedClip{{Rank: 1}, {Rank: 2}, {Rank: 3}}
	if got := TopN(ranked, 2); len(got) != 2 {
		t.Errorf("expected top 2, got %d", len(got))
	}
	if got := TopN(ranked, 0); len(got) != 3 {
		t.Errorf("expected n<=0 to return all, got %d", len(got))
	}
}

func TestFilterByThreshold(t *testing.T) {
	ranked := []RankedClip{
		{Factors: ClipImportanceFactors{FinalImportance: 0.9}},
		{Factors: ClipImportanceFactors{FinalImportance: 0.2}},
	}
	got := FilterByThreshold(ranked, 0.5)
	if len(got) != 1 {
		t.Fatalf("expected 1 clip above threshold, got %d", len(got))
	}
}
