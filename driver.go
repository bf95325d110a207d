package matchpipe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"time"
)

// Driver issues the per-window analyzer call with retry/backoff, timeout,
// and schema validation, converting accepted events to RawEvents
// with absolute timestamps.
//
// Generalized from "retry a Processor" to "retry one window's analyzer
// call": exponential-backoff-with-jitter, clock injection for
// deterministic tests, but the unit of work is a single model call rather
// than a stream item, and a schema validation failure is deliberately
// still retried rather than classified as non-retryable.
type Driver struct {
	analyzer Analyzer
	prompt   *PromptTemplate
	clock    Clock
	logger   *slog.Logger
	retry    RetryConfig
	kitHues  *KitHues
}

// NewDriver creates a Driver. A nil logger defaults to slog.Default(); a
// nil clock defaults to RealClock.
func NewDriver(analyzer Analyzer, prompt *PromptTemplate, retry RetryConfig, clock Clock, logger *slog.Logger) *Driver {
	if clock == nil {
		clock = RealClock
	}
	if logger == nil {
		logger = slog.Default()
	}
	if prompt == nil {
		prompt = NewPromptTemplate()
	}
	return &Driver{
		analyzer: analyzer,
		prompt:   prompt,
		retry:    retry,
		clock:    clock,
		logger:   logger,
	}
}

// WithKitHues sets the match's known kit hues, enabling raw jersey-color
// resolution for events that carry a JerseyColor sample. Returns d for
// chaining after NewDriver.
func (d *Driver) WithKitHues(hues KitHues) *Driver {
	d.kitHues = &hues
	return d
}

// ProcessWindow runs one window through the analyzer with retry/backoff,
// returning the absolute-timestamped RawEvents it accepted.
//
// Retry policy: exponential backoff starting at retry.InitialDelay,
// capped at retry.MaxDelay, up to retry.MaxRetries attempts, each attempt
// bounded by retry.Timeout. Both transient errors and schema-validation
// failures consume a retry attempt, since the model may re-sample
// differently. A safety/block signal is permanent for the call that
// produced it but still consumes a retry attempt.
func (d *Driver) ProcessWindow(ctx context.Context, ref VideoReference, w Window) ([]RawEvent, error) {
	if !ref.Valid() {
		return nil, ErrNoVideoReference
	}

	maxAttempts := d.retry.MaxRetries
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	prompt := d.prompt.Build(w)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			delay := d.backoffDelay(attempt - 1)
			select {
			case <-d.clock.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		events, err := d.callOnce(ctx, ref, prompt, w)
		if err == nil {
			return events, nil
		}
		lastErr = err
		d.logger.Warn("window analyzer call failed, will retry",
			"windowId", w.WindowID, "attempt", attempt, "maxAttempts", maxAttempts,
			"schemaFailure", isPermanentSchemaError(err), "error", err)
	}

	return nil, fmt.Errorf("window %s exhausted %d attempts: %w", w.WindowID, maxAttempts, lastErr)
}

func (d *Driver) callOnce(ctx context.Context, ref VideoReference, prompt string, w Window) ([]RawEvent, error) {
	timeout := d.retry.Timeout()
	callCtx := ctx
	var cancel context.CancelFunc
	if timeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := d.analyzer.Analyze(callCtx, ref, prompt)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrEmptyResponse
	}

	resp, err := ValidateAnalyzerResponse(raw)
	if err != nil {
		return nil, err
	}

	return toRawEvents(w, resp, d.kitHues), nil
}

// backoffDelay computes the exponential backoff delay for the given retry
// attempt (1-indexed: the delay before the 2nd, 3rd, ... call), capped at
// MaxDelay and jittered between 50% and 100% of the computed value.
func (d *Driver) backoffDelay(attempt int) time.Duration {
	base := float64(d.retry.InitialDelayMs)
	computed := base * math.Pow(2, float64(attempt-1))
	ceiling := float64(d.retry.MaxDelayMs)
	if ceiling > 0 && computed > ceiling {
		computed = ceiling
	}
	jitter := 0.5 + rand.Float64()*0.5
	return time.Duration(computed*jitter) * time.Millisecond
}

// isPermanentSchemaError reports whether err is the schema validation
// sentinel, so retry logging can distinguish it from transient analyzer
// failures without treating it as non-retryable.
func isPermanentSchemaError(err error) bool {
	return errors.Is(err, ErrSchemaValidation)
}
