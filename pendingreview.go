package matchpipe

import "time"

// PendingReview is a window that exhausted its retry budget and needs
// manual inspection rather than silently vanishing from the timeline. It
// narrows "any failed stream item" down to "one window that a batch gave
// up on," and feeds the `pendingReviews` persisted collection.
type PendingReview struct {
	Timestamp time.Time
	Window    Window
	MatchID   string
	Err       error
	Attempts  int
}

// PendingReviewSink collects PendingReviews for a pipeline run. Pipeline
// callers persist them via DocumentStore.BatchWrite; kept separate from
// storage so pipeline.go has no direct storage dependency.
type PendingReviewSink struct {
	reviews []PendingReview
}

// NewPendingReviewSink creates an empty sink.
func NewPendingReviewSink() *PendingReviewSink {
	return &PendingReviewSink{}
}

// Add records one failed window.
func (s *PendingReviewSink) Add(matchID string, w Window, attempts int, err error) {
	s.reviews = append(s.reviews, PendingReview{
		MatchID:   matchID,
		Window:    w,
		Attempts:  attempts,
		Err:       err,
		Timestamp: time.Now(),
	})
}

// Reviews returns every recorded PendingReview.
func (s *PendingReviewSink) Reviews() []PendingReview {
	return s.reviews
}
