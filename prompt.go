package matchpipe

import (
	"fmt"
	"strings"
	"sync"
)

// PromptTemplate builds the per-window prompt sent to the external
// analyzer. Its base string is built once behind a sync.Once, constructed
// once per PromptTemplate value rather than once per process, and passed
// into the driver as a constructor argument so tests
// can substitute their own.
type PromptTemplate struct {
	once sync.Once
	base string
}

// NewPromptTemplate creates a PromptTemplate. The base instructional text
// is built lazily on first use.
func NewPromptTemplate() *PromptTemplate {
	return &PromptTemplate{}
}

func (p *PromptTemplate) baseText() string {
	p.once.Do(func() {
		p.base = strings.TrimSpace(`
You are a soccer match video analyst. You will be shown a short clip from a
soccer match. Identify every tactical event you observe: passes, carries,
turnovers, shots, and set pieces.

Report timestamps RELATIVE TO THE START OF THIS CLIP, in seconds, not
relative to the full match.

Respond with a single JSON object matching this shape:
{
  "metadata": {"videoQuality": string, "qualityIssues": [string], "analyzedDurationSec": number},
  "events": [
    {
      "timestamp": number,
      "type": "pass" | "carry" | "turnover" | "shot" | "setPiece",
      "team": "home" | "away",
      "player": string?,
      "zone": "defensive_third" | "middle_third" | "attacking_third"?,
      "details": {...}?,
      "confidence": number,
      "visualEvidence": string?
    }
  ]
}`)
	})
	return p.base
}

// Build renders the full prompt for one window, naming its segment type,
// description, team, time range, and target FPS, and instructing the model
// to report window-relative timestamps.
func (p *PromptTemplate) Build(w Window) string {
	var b strings.Builder
	b.WriteString(p.baseText())
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Clip context:\n")
	fmt.Fprintf(&b, "- Segment type: %s\n", w.SegmentContext.Type)
	if w.SegmentContext.Description != nil {
		fmt.Fprintf(&b, "- Description: %s\n", *w.SegmentContext.Description)
	}
	if w.SegmentContext.Team != nil {
		fmt.Fprintf(&b, "- Segment team (if relevant): %s\n", *w.SegmentContext.Team)
	}
	fmt.Fprintf(&b, "- Absolute match time range: %.2fs to %.2fs\n", w.AbsoluteStart, w.AbsoluteEnd)
	fmt.Fprintf(&b, "- Requested sampling rate: %d fps\n", w.TargetFPS)

	return b.String()
}
