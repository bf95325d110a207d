package matchpipe

// defaultOutcomeLookaheadSec is how far past a set piece the analyzer looks
// for a resolving event.
const defaultOutcomeLookaheadSec = 10.0

// defaultClearanceWindowSec bounds rule 5.
const defaultClearanceWindowSec = 5.0

// SetPieceOutcomeAnalyzer determines what happened after a set piece by
// scanning the events that follow it within a bounded lookahead.
// It holds no mutable state.
type SetPieceOutcomeAnalyzer struct {
	lookaheadSec float64
}

// NewSetPieceOutcomeAnalyzer creates an analyzer. lookaheadSec <= 0
// defaults to defaultOutcomeLookaheadSec.
func NewSetPieceOutcomeAnalyzer(lookaheadSec float64) *SetPieceOutcomeAnalyzer {
	if lookaheadSec <= 0 {
		lookaheadSec = defaultOutcomeLookaheadSec
	}
	return &SetPieceOutcomeAnalyzer{lookaheadSec: lookaheadSec}
}

// Analyze returns the outcome for each set piece in setPieces, scanning
// allEvents for the candidate that resolves it. allEvents need not be
// sorted; Analyze filters to the lookahead window and evaluates the rules
// in priority order, taking the first event (in allEvents' order) that
// satisfies the highest-priority rule.
func (a *SetPieceOutcomeAnalyzer) Analyze(setPieces, allEvents []DeduplicatedEvent) []SetPieceOutcome {
	outcomes := make([]SetPieceOutcome, 0, len(setPieces))
	for _, sp := range setPieces {
		outcomes = append(outcomes, a.analyzeOne(sp, allEvents))
	}
	return outcomes
}

// outcomeRuleResult is what a single priority rule decides for the event
// it matched.
type outcomeRuleResult struct {
	resultType    SetPieceResultType
	scoringChance bool
}

// outcomeRuleFn is one prioritized candidate rule: given the set
// piece and the window of events following it, return the resolving event
// and its result, or ok=false if the rule doesn't apply to any event in
// the window.
type outcomeRuleFn func(sp DeduplicatedEvent, window []DeduplicatedEvent) (DeduplicatedEvent, outcomeRuleResult, bool)

var outcomeRules = []outcomeRuleFn{
	shotGoalRule,
	shotScoringRule,
	shotMissedRule,
	sameTeamTurnoverRule,
	clearedRule,
	continuedPlayRule,
}

func (a *SetPieceOutcomeAnalyzer) analyzeOne(sp DeduplicatedEvent, allEvents []DeduplicatedEvent) SetPieceOutcome {
	var window []DeduplicatedEvent
	for _, e := range allEvents {
		delta := e.AbsoluteTimestamp - sp.AbsoluteTimestamp
		if delta > 0 && delta <= a.lookaheadSec {
			window = append(window, e)
		}
	}

	for _, rule := range outcomeRules {
		e, result, ok := rule(sp, window)
		if !ok {
			continue
		}
		return SetPieceOutcome{
			ResultType:     result.resultType,
			TimeToOutcome:  e.AbsoluteTimestamp - sp.AbsoluteTimestamp,
			ScoringChance:  result.scoringChance,
			OutcomeEventID: idPtr(e.ID),
		}
	}

	return SetPieceOutcome{ResultType: ResultUnknown, TimeToOutcome: 0}
}

// 1. shot with shotResult=goal.
func shotGoalRule(_ DeduplicatedEvent, window []DeduplicatedEvent) (DeduplicatedEvent, outcomeRuleResult, bool) {
	for _, e := range window {
		if e.Type == EventShot && e.Details.ShotResult != nil && *e.Details.ShotResult == "goal" {
			return e, outcomeRuleResult{ResultGoal, true}, true
		}
	}
	return DeduplicatedEvent{}, outcomeRuleResult{}, false
}

// 2. shot with result in {saved, post}.
func shotScoringRule(_ DeduplicatedEvent, window []DeduplicatedEvent) (DeduplicatedEvent, outcomeRuleResult, bool) {
	for _, e := range window {
		if e.Type == EventShot && e.Details.ShotResult != nil &&
			(*e.Details.ShotResult == "saved" || *e.Details.ShotResult == "post") {
			return e, outcomeRuleResult{ResultShot, true}, true
		}
	}
	return DeduplicatedEvent{}, outcomeRuleResult{}, false
}

// 3. shot with result in {missed, blocked}.
func shotMissedRule(_ DeduplicatedEvent, window []DeduplicatedEvent) (DeduplicatedEvent, outcomeRuleResult, bool) {
	for _, e := range window {
		if e.Type == EventShot && e.Details.ShotResult != nil &&
			(*e.Details.ShotResult == "missed" || *e.Details.ShotResult == "blocked") {
			return e, outcomeRuleResult{ResultShot, false}, true
		}
	}
	return DeduplicatedEvent{}, outcomeRuleResult{}, false
}

// 4. turnover by the same team.
func sameTeamTurnoverRule(sp DeduplicatedEvent, window []DeduplicatedEvent) (DeduplicatedEvent, outcomeRuleResult, bool) {
	for _, e := range window {
		if e.Type == EventTurnover && e.Team == sp.Team {
			return e, outcomeRuleResult{ResultTurnover, false}, true
		}
	}
	return DeduplicatedEvent{}, outcomeRuleResult{}, false
}

// 5. opponent event (any kind) within 5s.
func clearedRule(sp DeduplicatedEvent, window []DeduplicatedEvent) (DeduplicatedEvent, outcomeRuleResult, bool) {
	for _, e := range window {
		delta := e.AbsoluteTimestamp - sp.AbsoluteTimestamp
		if e.Team != sp.Team && e.Team != TeamUnknown && delta <= defaultClearanceWindowSec {
			return e, outcomeRuleResult{ResultCleared, false}, true
		}
	}
	return DeduplicatedEvent{}, outcomeRuleResult{}, false
}

// 6. same-team non-shot event.
func continuedPlayRule(sp DeduplicatedEvent, window []DeduplicatedEvent) (DeduplicatedEvent, outcomeRuleResult, bool) {
	for _, e := range window {
		if e.Team == sp.Team && e.Type != EventShot {
			return e, outcomeRuleResult{ResultContinuedPlay, false}, true
		}
	}
	return DeduplicatedEvent{}, outcomeRuleResult{}, false
}

func idPtr(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
