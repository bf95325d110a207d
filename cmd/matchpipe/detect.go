package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/kickframe/matchpipe"
	"github.com/kickframe/matchpipe/storage"
)

var (
	detectMatchID      string
	detectSegmentsFile string
	detectCacheHandle  string
	detectFileURI      string
)

var detectCmd = &cobra.Command{
	Use:   "detect",
	Short: "Run windowed event detection against a match's video",
	Args:  cobra.NoArgs,
	RunE:  runDetect,
}

func init() {
	detectCmd.Flags().StringVar(&detectMatchID, "match", "", "match id (required)")
	detectCmd.Flags().StringVar(&detectSegmentsFile, "segments", "", "path to a JSON array of segments (required)")
	detectCmd.Flags().StringVar(&detectCacheHandle, "cache-handle", "", "analyzer cache handle for the match video")
	detectCmd.Flags().StringVar(&detectFileURI, "file-uri", "", "file URI for the match video (used if cache-handle is empty)")
	detectCmd.MarkFlagRequired("match")
	detectCmd.MarkFlagRequired("segments")
}

func runDetect(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(detectSegmentsFile)
	if err != nil {
		return fmt.Errorf("read segments file: %w", err)
	}
	var segments []matchpipe.Segment
	if err := json.Unmarshal(raw, &segments); err != nil {
		return fmt.Errorf("parse segments file: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	analyzer, err := newAnalyzer()
	if err != nil {
		return err
	}

	pipeline := matchpipe.NewPipeline(cfg, matchpipe.RealClock, newLogger())
	reviews := matchpipe.NewPendingReviewSink()
	progress := matchpipe.NewProgressReporter(len(matchpipe.NewWindowGenerator(cfg.Windowing, nil).Generate(segments)), nil)

	result, detectErr := pipeline.DetectEventsWindowed(context.Background(), analyzer,
		matchpipe.VideoReference{CacheHandle: detectCacheHandle, FileURI: detectFileURI},
		matchpipe.DetectEventsWindowedInput{MatchID: detectMatchID, Segments: segments},
		progress, reviews)
	if result.Skipped {
		fmt.Fprintf(cmd.OutOrStdout(), "skipped: %s\n", result.SkipReason)
		return nil
	}

	// Even on a batch failure, DetectEventsWindowed still returns whichever
	// windows succeeded plus the PendingReviewSink entries for whichever
	// failed; persist that partial result rather than discarding it, then
	// surface the original error.
	if err := persistDetectionResult(detectMatchID, segments, result, reviews); err != nil {
		return fmt.Errorf("persist detection result: %w", err)
	}
	if detectErr != nil {
		return fmt.Errorf("detect events: %w", detectErr)
	}

	table := tablewriter.NewTable(cmd.OutOrStdout(), tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("EVENT TYPE", "COUNT")
	for typ, n := range result.EventsByType {
		table.Append(string(typ), fmt.Sprintf("%d", n))
	}
	table.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "\nwindows: %d, raw events: %d, pending reviews: %d\n",
		result.WindowCount, result.RawEventCount, len(reviews.Reviews()))
	return nil
}

// collectionForEventType maps the three raw event types the persisted
// collections explicitly name; other event types are returned in the
// result but have no dedicated collection to land in.
func collectionForEventType(t matchpipe.EventType) (storage.Collection, bool) {
	switch t {
	case matchpipe.EventPass:
		return storage.CollectionPassEvents, true
	case matchpipe.EventCarry:
		return storage.CollectionCarryEvents, true
	case matchpipe.EventTurnover:
		return storage.CollectionTurnoverEvents, true
	default:
		return "", false
	}
}

func persistDetectionResult(matchID string, segments []matchpipe.Segment, result matchpipe.DetectEventsWindowedResult, reviews *matchpipe.PendingReviewSink) error {
	store, err := storage.Open(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	var docs []storage.Document
	for i, seg := range segments {
		docs = append(docs, storage.Document{
			Collection: storage.CollectionPossessionSegments,
			MatchID:    matchID,
			ID:         storage.DocumentID(matchID, storage.CollectionPossessionSegments, fmt.Sprintf("%d", i)),
			Body:       seg,
		})
	}
	for i, e := range result.RawEvents {
		c, ok := collectionForEventType(e.Type)
		if !ok {
			continue
		}
		docs = append(docs, storage.Document{
			Collection: c,
			MatchID:    matchID,
			ID:         storage.DocumentID(matchID, c, fmt.Sprintf("%d", i)),
			Body:       e,
		})
	}
	for i, r := range reviews.Reviews() {
		docs = append(docs, storage.Document{
			Collection: storage.CollectionPendingReviews,
			MatchID:    matchID,
			ID:         storage.DocumentID(matchID, storage.CollectionPendingReviews, fmt.Sprintf("%d", i)),
			Body:       r,
		})
	}

	return store.BatchWrite(context.Background(), docs)
}
