package main

import (
	"context"
	"encoding/json"

	"github.com/kickframe/matchpipe"
)

// fakeAnalyzer is the --analyzer=fake implementation for local dry runs
// without a live Anthropic call: it reports one low-confidence pass per
// window so the rest of the pipeline has something to chew on.
type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(_ context.Context, _ matchpipe.VideoReference, _ string) ([]byte, error) {
	resp := matchpipe.AnalyzerResponse{
		Events: []matchpipe.AnalyzerEvent{
			{Timestamp: 1, Type: matchpipe.EventPass, Team: matchpipe.TeamHome, Confidence: 0.5},
		},
	}
	return json.Marshal(resp)
}
