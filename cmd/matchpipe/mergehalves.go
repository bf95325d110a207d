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
	mergeMatchID      string
	mergeFirstFile    string
	mergeSecondFile   string
	mergeHalfDuration float64
)

// mergeHalvesInput is the on-disk shape read for each half: the
// deduplicated events, candidate clips, and calculator stats produced by
// analyzing that half independently.
type mergeHalvesInput struct {
	Events []matchpipe.DeduplicatedEvent `json:"events"`
	Clips  []matchpipe.Clip              `json:"clips"`
	Stats  []matchpipe.Stat              `json:"stats"`
}

var mergeHalvesCmd = &cobra.Command{
	Use:   "merge-halves",
	Short: "Merge two independently-analyzed halves into one match timeline",
	Args:  cobra.NoArgs,
	RunE:  runMergeHalves,
}

func init() {
	mergeHalvesCmd.Flags().StringVar(&mergeMatchID, "match", "", "match id (required)")
	mergeHalvesCmd.Flags().StringVar(&mergeFirstFile, "first-half", "", "path to the first half's JSON result (required)")
	mergeHalvesCmd.Flags().StringVar(&mergeSecondFile, "second-half", "", "path to the second half's JSON result (required)")
	mergeHalvesCmd.Flags().Float64Var(&mergeHalfDuration, "half-duration", 45*60, "first-half duration in seconds, used to shift the second half's timestamps")
	mergeHalvesCmd.MarkFlagRequired("match")
	mergeHalvesCmd.MarkFlagRequired("first-half")
	mergeHalvesCmd.MarkFlagRequired("second-half")
}

func runMergeHalves(cmd *cobra.Command, args []string) error {
	first, err := readMergeHalvesInput(mergeFirstFile)
	if err != nil {
		return fmt.Errorf("read first half: %w", err)
	}
	second, err := readMergeHalvesInput(mergeSecondFile)
	if err != nil {
		return fmt.Errorf("read second half: %w", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipeline := matchpipe.NewPipeline(cfg, matchpipe.RealClock, newLogger())
	events, clips, stats := pipeline.MergeHalves(
		first.Events, second.Events,
		first.Clips, second.Clips,
		mergeHalfDuration,
		first.Stats, second.Stats,
	)

	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()
	if err := persistMergedMatch(context.Background(), store, mergeMatchID, events, stats); err != nil {
		return fmt.Errorf("persist merged match: %w", err)
	}

	table := tablewriter.NewTable(cmd.OutOrStdout(), tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("METRIC", "VALUE")
	table.Append("merged events", fmt.Sprintf("%d", len(events)))
	table.Append("merged clips", fmt.Sprintf("%d", len(clips)))
	table.Append("merged stats", fmt.Sprintf("%d", len(stats)))
	table.Render()
	return nil
}

func readMergeHalvesInput(path string) (mergeHalvesInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return mergeHalvesInput{}, err
	}
	var in mergeHalvesInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return mergeHalvesInput{}, err
	}
	return in, nil
}

func persistMergedMatch(ctx context.Context, store *storage.SQLiteStore, matchID string, events []matchpipe.DeduplicatedEvent, stats []matchpipe.MergedStat) error {
	var docs []storage.Document
	for _, e := range events {
		docs = append(docs, storage.Document{
			Collection: storage.CollectionStats,
			MatchID:    matchID,
			ID:         storage.DocumentID(matchID, storage.CollectionStats, fmt.Sprintf("merged-event-%s", e.ID)),
			Body:       e,
		})
	}
	for i, s := range stats {
		docs = append(docs, storage.Document{
			Collection: storage.CollectionStats,
			MatchID:    matchID,
			ID:         storage.DocumentID(matchID, storage.CollectionStats, fmt.Sprintf("merged-stat-%d", i)),
			Body:       s,
		})
	}
	return store.BatchWrite(ctx, docs)
}
