package matchpipe

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Deduplicator clusters temporally adjacent same-kind raw events across
// window overlaps into single representative events with merged evidence
// and boosted confidence. It is a pure in-memory transform with no
// shared mutable state, generalized from "drop exact repeats by key"
// to "merge a whole cluster of near-duplicates into one representative
// event."
type Deduplicator struct {
	cfg DedupConfig
}

// NewDeduplicator creates a Deduplicator using the given dedup config.
func NewDeduplicator(cfg DedupConfig) *Deduplicator {
	if cfg.TimeThreshold <= 0 {
		cfg.TimeThreshold = defaultDedupTimeThreshold
	}
	if cfg.ConfidenceBoostPerDetection <= 0 {
		cfg.ConfidenceBoostPerDetection = defaultDedupBoostPerDetection
	}
	return &Deduplicator{cfg: cfg}
}

// DedupStats are the diagnostics the deduplicator reports alongside its
// output.
type DedupStats struct {
	ByType                  map[EventType]TypeDedupStats
	TotalRawEvents          int
	TotalDeduplicatedEvents int
	MergedCount             int
	UniqueCount             int
	AverageClusterSize      float64
}

// TypeDedupStats is the per-event-type breakdown within DedupStats.
type TypeDedupStats struct {
	Raw          int
	Deduplicated int
	MergedCount  int
}

// Deduplicate clusters rawEvents and merges each cluster into one
// DeduplicatedEvent. Empty input returns an empty, non-nil result.
func (d *Deduplicator) Deduplicate(rawEvents []RawEvent) ([]DeduplicatedEvent, DedupStats) {
	stats := DedupStats{ByType: make(map[EventType]TypeDedupStats), TotalRawEvents: len(rawEvents)}
	if len(rawEvents) == 0 {
		return []DeduplicatedEvent{}, stats
	}

	clusters := d.cluster(rawEvents)

	out := make([]DeduplicatedEvent, 0, len(clusters))
	var clusterSizeSum int
	for _, cluster := range clusters {
		merged := d.mergeCluster(cluster)
		out = append(out, merged)

		ts := stats.ByType[merged.Type]
		ts.Raw += len(cluster)
		ts.Deduplicated++
		if len(cluster) > 1 {
			ts.MergedCount++
		}
		stats.ByType[merged.Type] = ts

		clusterSizeSum += len(cluster)
		if len(cluster) > 1 {
			stats.MergedCount++
		} else {
			stats.UniqueCount++
		}
	}

	stats.TotalDeduplicatedEvents = len(out)
	if len(clusters) > 0 {
		stats.AverageClusterSize = float64(clusterSizeSum) / float64(len(clusters))
	}

	return out, stats
}

// indexedRawEvent carries a raw event together with its position in the
// caller's input slice, so mergedFromWindows can preserve the input order
// of a cluster's window ids even though clustering walks a sorted copy.
type indexedRawEvent struct {
	event RawEvent
	pos   int
}

// cluster sorts events by AbsoluteTimestamp ascending and walks the sorted
// list, comparing each candidate against the LAST element already placed
// in the current cluster.
func (d *Deduplicator) cluster(rawEvents []RawEvent) [][]indexedRawEvent {
	sorted := make([]indexedRawEvent, len(rawEvents))
	for i, e := range rawEvents {
		sorted[i] = indexedRawEvent{event: e, pos: i}
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].event.AbsoluteTimestamp < sorted[j].event.AbsoluteTimestamp
	})

	var clusters [][]indexedRawEvent
	var current []indexedRawEvent

	for _, e := range sorted {
		if len(current) == 0 {
			current = append(current, e)
			continue
		}
		last := current[len(current)-1]
		if d.sameCluster(last.event, e.event) {
			current = append(current, e)
			continue
		}
		clusters = append(clusters, current)
		current = []indexedRawEvent{e}
	}
	if len(current) > 0 {
		clusters = append(clusters, current)
	}
	return clusters
}

func (d *Deduplicator) sameCluster(last, candidate RawEvent) bool {
	delta := candidate.AbsoluteTimestamp - last.AbsoluteTimestamp
	if delta < 0 {
		delta = -delta
	}
	return delta <= d.cfg.TimeThreshold &&
		candidate.Type == last.Type &&
		candidate.Team == last.Team
}

// mergeCluster collapses a cluster of size n into one DeduplicatedEvent.
// A singleton passes through unchanged except for the field renaming
// RawEvent -> DeduplicatedEvent requires.
func (d *Deduplicator) mergeCluster(indexed []indexedRawEvent) DeduplicatedEvent {
	// Window ids keep the caller's input order, not the sorted walk order.
	byPos := make([]indexedRawEvent, len(indexed))
	copy(byPos, indexed)
	sort.SliceStable(byPos, func(i, j int) bool {
		return byPos[i].pos < byPos[j].pos
	})
	windowIDs := make([]string, len(byPos))
	for i, e := range byPos {
		windowIDs[i] = e.event.WindowID
	}

	cluster := make([]RawEvent, len(indexed))
	for i, e := range indexed {
		cluster[i] = e.event
	}

	if len(cluster) == 1 {
		e := cluster[0]
		return DeduplicatedEvent{
			ID:                   uuid.NewString(),
			Type:                 e.Type,
			Team:                 e.Team,
			Player:               e.Player,
			Zone:                 e.Zone,
			Details:              e.Details,
			AbsoluteTimestamp:    e.AbsoluteTimestamp,
			AdjustedConfidence:   e.Confidence,
			MergedFromWindows:    windowIDs,
			MergedVisualEvidence: e.VisualEvidence,
		}
	}

	base := highestConfidence(cluster)

	var weightedNumerator, weightSum float64
	for _, e := range cluster {
		weightedNumerator += e.AbsoluteTimestamp * e.Confidence
		weightSum += e.Confidence
	}
	weightedTimestamp := weightedNumerator / weightSum

	byConfidenceDesc := make([]RawEvent, len(cluster))
	copy(byConfidenceDesc, cluster)
	sort.SliceStable(byConfidenceDesc, func(i, j int) bool {
		return byConfidenceDesc[i].Confidence > byConfidenceDesc[j].Confidence
	})

	details := mergeDetails(byConfidenceDesc)
	evidence := mergeVisualEvidence(byConfidenceDesc)

	boost := d.cfg.ConfidenceBoostPerDetection
	adjusted := base.Confidence * (1 + boost*float64(len(cluster)-1))
	if adjusted > 1.0 {
		adjusted = 1.0
	}

	var evidencePtr *string
	if evidence != "" {
		evidencePtr = &evidence
	}

	return DeduplicatedEvent{
		ID:                   uuid.NewString(),
		Type:                 base.Type,
		Team:                 base.Team,
		Player:               base.Player,
		Zone:                 base.Zone,
		Details:              details,
		AbsoluteTimestamp:    weightedTimestamp,
		AdjustedConfidence:   adjusted,
		MergedFromWindows:    windowIDs,
		MergedVisualEvidence: evidencePtr,
	}
}

// highestConfidence picks the cluster's base event: highest confidence,
// ties broken by earliest AbsoluteTimestamp.
func highestConfidence(cluster []RawEvent) RawEvent {
	best := cluster[0]
	for _, e := range cluster[1:] {
		if e.Confidence > best.Confidence ||
			(e.Confidence == best.Confidence && e.AbsoluteTimestamp < best.AbsoluteTimestamp) {
			best = e
		}
	}
	return best
}

// mergeDetails iterates events in descending confidence order; each detail
// field receives the first non-nil value encountered. No overwrite.
func mergeDetails(byConfidenceDesc []RawEvent) EventDetails {
	var d EventDetails
	for _, e := range byConfidenceDesc {
		if d.PassType == nil {
			d.PassType = e.Details.PassType
		}
		if d.Outcome == nil {
			d.Outcome = e.Details.Outcome
		}
		if d.TargetPlayer == nil {
			d.TargetPlayer = e.Details.TargetPlayer
		}
		if d.Distance == nil {
			d.Distance = e.Details.Distance
		}
		if d.EndReason == nil {
			d.EndReason = e.Details.EndReason
		}
		if d.TurnoverType == nil {
			d.TurnoverType = e.Details.TurnoverType
		}
		if d.ShotResult == nil {
			d.ShotResult = e.Details.ShotResult
		}
		if d.ShotType == nil {
			d.ShotType = e.Details.ShotType
		}
		if d.SetPieceType == nil {
			d.SetPieceType = e.Details.SetPieceType
		}
		if d.IsOnTarget == nil {
			d.IsOnTarget = e.Details.IsOnTarget
		}
		if d.WonTackle == nil {
			d.WonTackle = e.Details.WonTackle
		}
	}
	return d
}

// mergeVisualEvidence joins all non-empty visualEvidence strings in
// descending-confidence order with "; ".
func mergeVisualEvidence(byConfidenceDesc []RawEvent) string {
	var parts []string
	for _, e := range byConfidenceDesc {
		if e.VisualEvidence != nil && *e.VisualEvidence != "" {
			parts = append(parts, *e.VisualEvidence)
		}
	}
	return strings.Join(parts, "; ")
}
