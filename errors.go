package matchpipe

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel error kinds. Check with errors.Is, not string matching.
var (
	// ErrNoVideoReference means the pipeline was given no cache handle and
	// no file URI for a match's video. The step short-circuits to an empty
	// result with Skipped=true rather than failing.
	ErrNoVideoReference = errors.New("matchpipe: no video reference available")

	// ErrSafetyBlocked means the analyzer declined to answer for safety
	// reasons. Permanent for the attempt, but still counts against the
	// retry budget: the model may answer differently on re-sample.
	ErrSafetyBlocked = errors.New("matchpipe: analyzer returned a safety block signal")

	// ErrSchemaValidation means the analyzer's JSON response failed schema
	// validation. Permanent for the response, retried anyway.
	ErrSchemaValidation = errors.New("matchpipe: analyzer response failed schema validation")

	// ErrEmptyResponse means the analyzer returned no text content.
	ErrEmptyResponse = errors.New("matchpipe: analyzer returned empty response")

	// ErrBatchFailed means a batch of windows exhausted retries on at
	// least one window and the batch-level error is being surfaced.
	ErrBatchFailed = errors.New("matchpipe: window batch failed")

	// ErrInvalidClip means a clip's startTime >= endTime or its duration
	// is non-finite. The matcher returns empty matches silently; this
	// sentinel exists for callers that want to distinguish it explicitly.
	ErrInvalidClip = errors.New("matchpipe: invalid clip interval")
)

// StepError wraps an internal error with the {matchId, step} context every
// wrapped error in this pipeline must carry. Generalized from "the
// item that failed" to "the pipeline step that failed," since most
// failures here are step-scoped (a whole batch, a whole half-merge)
// rather than single-item.
type StepError struct {
	Err       error
	MatchID   string
	Step      string
	Timestamp time.Time
}

// NewStepError wraps err with match and step context.
func NewStepError(matchID, step string, err error) *StepError {
	if err == nil {
		return nil
	}
	return &StepError{
		MatchID:   matchID,
		Step:      step,
		Err:       err,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface.
func (e *StepError) Error() string {
	return fmt.Sprintf("matchpipe[match=%s step=%s]: %v", e.MatchID, e.Step, e.Err)
}

// Unwrap enables errors.Is/errors.As chains against the sentinel kinds above.
func (e *StepError) Unwrap() error {
	return e.Err
}
