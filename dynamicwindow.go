package matchpipe

import "math"

// DynamicWindowConfig overrides the fallback window used for event types
// with no per-type default. The per-type defaults and adjustment
// thresholds are fixed. Zero-value fields fall back to the documented
// fallback via NewDynamicWindowCalculator.
type DynamicWindowConfig struct {
	DefaultBefore float64 `yaml:"defaultBefore"`
	DefaultAfter  float64 `yaml:"defaultAfter"`
}

// typeWindow is a type's default {before, after, reason} triple.
type typeWindow struct {
	before float64
	after  float64
	reason string
}

var defaultTypeWindows = map[EventType]typeWindow{
	EventGoal:       {10, 5, "goal"},
	EventPenalty:    {5, 5, "penalty"},
	EventRedCard:    {7, 4, "red card"},
	EventOwnGoal:    {8, 5, "own goal"},
	EventShot:       {7, 3, "shot"},
	EventSave:       {5, 2, "save"},
	EventChance:     {6, 3, "scoring chance"},
	EventKeyPass:    {5, 4, "key pass"},
	EventFoul:       {3, 2, "foul"},
	EventYellowCard: {4, 2, "yellow card"},
	EventSetPiece:   {3, 5, "set piece"},
	EventTackle:     {2, 2, "tackle"},
	EventTurnover:   {2, 3, "turnover"},
	EventPass:       {2, 1, "pass"},
	EventCarry:      {2, 2, "carry"},
}

const unknownTypeReason = "unclassified event"

var unknownTypeWindow = typeWindow{5, 3, unknownTypeReason}

// DynamicWindowCalculator derives a context-aware clip window around an
// event from its type, its detail fields, neighboring events, and
// match-level context. It holds no mutable state beyond its
// unknown-type fallback window; Calculate is otherwise a pure function of
// its arguments.
type DynamicWindowCalculator struct {
	unknown typeWindow
}

// NewDynamicWindowCalculator creates a DynamicWindowCalculator. Zero-value
// fields in cfg fall back to the documented unclassified-event defaults
// (5s before, 3s after).
func NewDynamicWindowCalculator(cfg DynamicWindowConfig) *DynamicWindowCalculator {
	unknown := unknownTypeWindow
	if cfg.DefaultBefore > 0 {
		unknown.before = cfg.DefaultBefore
	}
	if cfg.DefaultAfter > 0 {
		unknown.after = cfg.DefaultAfter
	}
	return &DynamicWindowCalculator{unknown: unknown}
}

// Calculate returns the {before, after} clip window for event E among its
// peers, under the given match context. peers should include every
// other event under consideration (E itself may or may not be present; a
// peer equal to E is not counted by the density rule, and E's own type is
// never among the context types surfaced for it).
func (c *DynamicWindowCalculator) Calculate(e Event, peers []Event, ctx MatchContext) DynamicWindow {
	base, ok := defaultTypeWindows[e.Type]
	if !ok {
		base = c.unknown
	}
	before, after := base.before, base.after
	reason := base.reason

	// 1. Counter-attack goal.
	if e.Type == EventGoal {
		for _, p := range peers {
			if p.Type == EventTurnover {
				delta := e.Timestamp - p.Timestamp
				if delta > 0 && delta <= 10 {
					before = 15
					reason = "counter-attack goal"
					break
				}
			}
		}
	}

	// 2. Shot details.
	if e.Type == EventShot {
		if e.Details.IsOnTarget != nil && *e.Details.IsOnTarget {
			after = 4
		}
		if e.Details.ShotType != nil && *e.Details.ShotType == "long_range" {
			before = 4
		}
	}

	// 3. Set-piece type.
	if e.Type == EventSetPiece && e.Details.SetPieceType != nil {
		switch *e.Details.SetPieceType {
		case "corner":
			before, after = 2, 7
		case "free_kick":
			before, after = 3, 6
		}
	}

	// 4. Turnover/interception.
	if e.Type == EventTurnover && e.Details.TurnoverType != nil && *e.Details.TurnoverType == "interception" {
		after = 5
	}

	// 5. Late-game boost.
	if ctx.TotalMatchMinutes > 0 && ctx.MatchMinute/ctx.TotalMatchMinutes > 0.85 {
		switch e.Type {
		case EventGoal, EventShot, EventChance:
			before *= 1.2
			after *= 1.3
		}
	}

	// 6. Close-score boost. TotalMatchMinutes > 0 is the "context present"
	// signal; a zero-value context must not read as a tied match.
	if ctx.TotalMatchMinutes > 0 && e.Type == EventGoal && absInt(ctx.ScoreDifferential) <= 1 {
		before *= 1.1
		after *= 1.2
	}

	// 7. Density boosts.
	dBefore, dAfter := densityCounts(e, peers, before, after)
	if dBefore > 3 {
		before *= 1.3
	}
	if dAfter > 3 {
		after *= 1.3
	}

	before = roundTenth(before)
	after = roundTenth(after)

	return DynamicWindow{
		Before:        before,
		After:         after,
		Reason:        reason,
		ContextBefore: contextPeers(e, peers, before, contextBeforeTypes(e.Type), true),
		ContextAfter:  contextPeers(e, peers, after, contextAfterTypes(e.Type), false),
	}
}

// densityCounts counts peers within [E.t-before, E.t] and [E.t, E.t+after]
// respectively, evaluated against the window as adjusted by
// rules 1-6 (the density rule reads the already-adjusted edges). A peer
// equal to e is skipped.
func densityCounts(e Event, peers []Event, before, after float64) (int, int) {
	var dBefore, dAfter int
	for _, p := range peers {
		if p == e {
			continue
		}
		if p.Timestamp >= e.Timestamp-before && p.Timestamp <= e.Timestamp {
			dBefore++
		}
		if p.Timestamp >= e.Timestamp && p.Timestamp <= e.Timestamp+after {
			dAfter++
		}
	}
	return dBefore, dAfter
}

// contextBeforeTypes and contextAfterTypes name the peer types surfaced as
// context for well-known event kinds.
func contextBeforeTypes(t EventType) map[EventType]bool {
	switch t {
	case EventGoal:
		return map[EventType]bool{EventKeyPass: true, EventChance: true, EventPass: true}
	case EventPenalty:
		return map[EventType]bool{EventFoul: true}
	default:
		return nil
	}
}

func contextAfterTypes(t EventType) map[EventType]bool {
	switch t {
	case EventSetPiece:
		return map[EventType]bool{EventShot: true, EventGoal: true, EventTurnover: true}
	default:
		return nil
	}
}

// contextPeers returns the peers within the adjusted window on the
// requested side whose type is in allowed. A nil allowed set yields no
// context peers for event types with no documented context relationship.
func contextPeers(e Event, peers []Event, edge float64, allowed map[EventType]bool, before bool) []Event {
	if len(allowed) == 0 {
		return nil
	}
	var out []Event
	for _, p := range peers {
		if !allowed[p.Type] {
			continue
		}
		if before {
			if p.Timestamp >= e.Timestamp-edge && p.Timestamp <= e.Timestamp {
				out = append(out, p)
			}
		} else {
			if p.Timestamp >= e.Timestamp && p.Timestamp <= e.Timestamp+edge {
				out = append(out, p)
			}
		}
	}
	return out
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
