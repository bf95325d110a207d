package matchpipe

import "testing"

func TestClipMatcher_InvalidClipReturnsEmpty(t *testing.T) {
	m := NewClipMatcher(2.0)
	invalid := Clip{ID: "c1", StartTime: 10, EndTime: 10}
	matches := m.MatchEvents(invalid, []Event{{ID: "e1", Type: EventGoal, Timestamp: 10}})
	if len(matches) != 0 {
		t.Fatalf("expected 0 matches for invalid clip, got %d", len(matches))
	}
}

func TestClipMatcher_ExactMatch(t *testing.T) {
	m := NewClipMatcher(2.0)
	clip := Clip{ID: "c1", StartTime: 0, EndTime: 10}
	events := []Event{{ID: "e1", Type: EventGoal, Timestamp: 5}}
	matches := m.MatchEvents(clip, events)
	if len(matches) != 1 {
		t.Fatalf("expected 1 match, got %d", len(matches))
	}
	if matches[0].MatchType != MatchExact {
		t.Errorf("expected exact match at clip center, got %s", matches[0].MatchType)
	}
	if matches[0].Confidence != 1.0 {
		t.Errorf("expected confidence 1.0 at dead center, got %.4f", matches[0].Confidence)
	}
}

func TestClipMatcher_ProximityMatch(t *testing.T) {
	m := NewClipMatcher(2.0)
	// clip center=0.5, half=0.5, so 2*half=1.0; an event at offset=1.5 is
	// past the overlap band but still inside the 2.0s tolerance.
	clip := Clip{ID: "c1", StartTime: 0, EndTime: 1}
	events := []Event{{ID: "e1", Type: EventPass, Timestamp: 2.0}}
	matches := m.MatchEvents(clip, events)
	if len(matches) != 1 {
		t.Fatalf("expected 1 proximity match, got %d", len(matches))
	}
	if matches[0].MatchType != MatchProximity {
		t.Errorf("expected proximity match, got %s", matches[0].MatchType)
	}
}

func TestClipMatcher_NoMatchBeyondTolerance(t *testing.T) {
	m := NewClipMatcher(2.0)
	clip := Clip{ID: "c1", StartTime: 0, EndTime: 2}
	events := []Event{{ID: "e1", Type: EventPass, Timestamp: 100}}
	matches := m.MatchEvents(clip, events)
	if len(matches) != 0 {
		t.Fatalf("expected 0 matches far outside tolerance, got %d", len(matches))
	}
}

func TestClipMatcher_SortedByConfidenceDescending(t *testing.T) {
	m := NewClipMatcher(2.0)
	clip := Clip{ID: "c1", StartTime: 0, EndTime: 10}
	events := []Event{
		{ID: "far", Type: EventPass, Timestamp: 9},
		{ID: "center", Type: EventGoal, Timestamp: 5},
	}
	matches := m.MatchEvents(clip, events)
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Confidence > matches[i-1].Confidence {
			t.Fatalf("matches not sorted descending by confidence: %+v", matches)
		}
	}
}

func TestEventTypeBoost_ShotWithGoalResult(t *testing.T) {
	goalResult := "goal"
	e := Event{Type: EventShot, Details: EventDetails{ShotResult: &goalResult}}
	boost := eventTypeBoost(e)
	if boost != 1.0 {
		t.Errorf("expected shot-with-goal-result to use goal weight 1.0, got %.4f", boost)
	}
}

func TestEventTypeBoost_ClampedToOne(t *testing.T) {
	onTarget := true
	longRange := "long_range"
	e := Event{Type: EventShot, Details: EventDetails{IsOnTarget: &onTarget, ShotType: &longRange}}
	boost := eventTypeBoost(e)
	if boost > 1.0 {
		t.Errorf("expected boost clamped to 1.0, got %.4f", boost)
	}
}

func TestEventTypeBoost_WonTackle(t *testing.T) {
	won := true
	e := Event{Type: EventTackle, Details: EventDetails{WonTackle: &won}}
	boost := eventTypeBoost(e)
	want := eventTypeBaseWeights[EventTackle] * 1.3
	if boost != want {
		t.Errorf("expected won-tackle boost %.4f, got %.4f", want, boost)
	}
}
