package matchpipe

import "context"

// AnalyzerResponse is the parsed shape of one window's analyzer call.
type AnalyzerResponse struct {
	Metadata *AnalyzerMetadata `json:"metadata,omitempty"`
	Events   []AnalyzerEvent   `json:"events"`
}

// AnalyzerMetadata is the optional per-call quality metadata.
type AnalyzerMetadata struct {
	VideoQuality        *string  `json:"videoQuality,omitempty"`
	QualityIssues       []string `json:"qualityIssues,omitempty"`
	AnalyzedDurationSec *float64 `json:"analyzedDurationSec,omitempty"`
}

// AnalyzerEvent is one raw event proposal as reported by the analyzer,
// with a window-relative timestamp.
type AnalyzerEvent struct {
	Player         *string              `json:"player,omitempty"`
	Zone           *Zone                `json:"zone,omitempty"`
	VisualEvidence *string              `json:"visualEvidence,omitempty"`
	Details        *AnalyzerEventDetail `json:"details,omitempty"`
	JerseyColor    *JerseyColorSample   `json:"jerseyColor,omitempty"`
	Type           EventType            `json:"type"`
	Team           Team                 `json:"team"`
	Timestamp      float64              `json:"timestamp"`
	Confidence     float64              `json:"confidence"`
}

// JerseyColorSample is an optional raw jersey color sample an analyzer may
// attach alongside its own home/away call, each channel in the 0-1 range.
// When a match's KitHues are known, the driver uses this to
// cross-check/resolve the event's team via ResolveJerseyTeam
// rather than trusting Team alone, since the analyzer's label can be
// wrong when the two kits are visually similar under poor lighting.
type JerseyColorSample struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// AnalyzerEventDetail is the sparse details record the analyzer may attach
// to an event.
type AnalyzerEventDetail struct {
	PassType     *string  `json:"passType,omitempty"`
	Outcome      *string  `json:"outcome,omitempty"`
	TargetPlayer *string  `json:"targetPlayer,omitempty"`
	Distance     *float64 `json:"distance,omitempty"`
	EndReason    *string  `json:"endReason,omitempty"`
	TurnoverType *string  `json:"turnoverType,omitempty"`
	ShotResult   *string  `json:"shotResult,omitempty"`
	ShotType     *string  `json:"shotType,omitempty"`
	SetPieceType *string  `json:"setPieceType,omitempty"`
	IsOnTarget   *bool    `json:"isOnTarget,omitempty"`
	WonTackle    *bool    `json:"wonTackle,omitempty"`
}

func (d *AnalyzerEventDetail) toEventDetails() EventDetails {
	if d == nil {
		return EventDetails{}
	}
	return EventDetails{
		PassType:     d.PassType,
		Outcome:      d.Outcome,
		TargetPlayer: d.TargetPlayer,
		Distance:     d.Distance,
		EndReason:    d.EndReason,
		TurnoverType: d.TurnoverType,
		ShotResult:   d.ShotResult,
		ShotType:     d.ShotType,
		SetPieceType: d.SetPieceType,
		IsOnTarget:   d.IsOnTarget,
		WonTackle:    d.WonTackle,
	}
}

// VideoReference identifies the cached video a window's analyzer call
// should be run against. At least one of CacheHandle/FileURI must be
// non-empty; otherwise the call fails with ErrNoVideoReference.
type VideoReference struct {
	CacheHandle string
	FileURI     string
}

// Valid reports whether at least one addressable reference is present.
func (v VideoReference) Valid() bool {
	return v.CacheHandle != "" || v.FileURI != ""
}

// Analyzer is the opaque external multimodal model collaborator:
// analyze(videoRef, prompt) -> JSON. Concrete adapters (e.g. the Anthropic
// one in analyzer_anthropic.go) implement this; the rest of the pipeline
// only ever depends on the interface.
type Analyzer interface {
	// Analyze issues one call against the given video reference and
	// prompt, returning the raw (unvalidated) JSON response text.
	Analyze(ctx context.Context, ref VideoReference, prompt string) ([]byte, error)
}

// toRawEvents converts every accepted AnalyzerEvent in resp to RawEvents
// with absolute timestamps lifted from the window's start:
// absoluteTimestamp = window.absoluteStart + event.timestamp. When kitHues
// is non-nil and an event carries a raw JerseyColor sample, the event's
// team is resolved from the sample via ResolveJerseyTeam instead of the
// analyzer's own Team field.
func toRawEvents(w Window, resp AnalyzerResponse, kitHues *KitHues) []RawEvent {
	events := make([]RawEvent, 0, len(resp.Events))
	for _, e := range resp.Events {
		team := e.Team
		if kitHues != nil && e.JerseyColor != nil {
			hue := JerseyHue(e.JerseyColor.R, e.JerseyColor.G, e.JerseyColor.B)
			team = ResolveJerseyTeam(hue, kitHues.HomeHue, kitHues.AwayHue)
		}
		events = append(events, RawEvent{
			WindowID:          w.WindowID,
			RelativeTimestamp: e.Timestamp,
			AbsoluteTimestamp: w.AbsoluteStart + e.Timestamp,
			Type:              e.Type,
			Team:              team,
			Player:            e.Player,
			Zone:              e.Zone,
			Details:           e.Details.toEventDetails(),
			Confidence:        clamp(e.Confidence, 0.3, 1.0),
			VisualEvidence:    e.VisualEvidence,
		})
	}
	return events
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
