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
	rankMatchID   string
	rankClipsFile string
	rankMatchMin  float64
	rankTotalMin  float64
	rankScoreDiff int
	rankTolerance float64
	rankTopN      int
)

var rankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Match clips against a match's deduplicated events and rank them by importance",
	Args:  cobra.NoArgs,
	RunE:  runRank,
}

func init() {
	rankCmd.Flags().StringVar(&rankMatchID, "match", "", "match id (required)")
	rankCmd.Flags().StringVar(&rankClipsFile, "clips", "", "path to a JSON array of clips (required)")
	rankCmd.Flags().Float64Var(&rankMatchMin, "match-minute", 0, "current match minute, for context boosts")
	rankCmd.Flags().Float64Var(&rankTotalMin, "total-minutes", 90, "total match minutes")
	rankCmd.Flags().IntVar(&rankScoreDiff, "score-differential", 0, "home minus away goal differential")
	rankCmd.Flags().Float64Var(&rankTolerance, "tolerance", 0, "matcher tolerance in seconds (0 uses the configured default)")
	rankCmd.Flags().IntVar(&rankTopN, "top", 10, "number of ranked clips to print")
	rankCmd.MarkFlagRequired("match")
	rankCmd.MarkFlagRequired("clips")
}

func runRank(cmd *cobra.Command, args []string) error {
	raw, err := os.ReadFile(rankClipsFile)
	if err != nil {
		return fmt.Errorf("read clips file: %w", err)
	}
	var clips []matchpipe.Clip
	if err := json.Unmarshal(raw, &clips); err != nil {
		return fmt.Errorf("parse clips file: %w", err)
	}

	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	dedupRaw, err := loadRawEvents(store, rankMatchID)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipeline := matchpipe.NewPipeline(cfg, matchpipe.RealClock, newLogger())
	deduped, _ := pipeline.DeduplicateEvents(dedupRaw, nil)

	events := make([]matchpipe.Event, 0, len(deduped))
	for _, d := range deduped {
		events = append(events, matchpipe.Event{
			ID:        d.ID,
			Type:      d.Type,
			Details:   d.Details,
			Timestamp: d.AbsoluteTimestamp,
		})
	}

	matchCtx := matchpipe.MatchContext{
		MatchMinute:       rankMatchMin,
		TotalMatchMinutes: rankTotalMin,
		ScoreDifferential: rankScoreDiff,
	}
	ranked := pipeline.RankClipsByImportance(clips, events, matchCtx, rankTolerance)

	if rankTopN > 0 && rankTopN < len(ranked) {
		ranked = matchpipe.TopN(ranked, rankTopN)
	}

	table := tablewriter.NewTable(cmd.OutOrStdout(), tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("RANK", "CLIP", "START", "END", "IMPORTANCE")
	for _, r := range ranked {
		table.Append(
			fmt.Sprintf("%d", r.Rank),
			r.Clip.ID,
			fmt.Sprintf("%.1f", r.Clip.StartTime),
			fmt.Sprintf("%.1f", r.Clip.EndTime),
			fmt.Sprintf("%.3f", r.Factors.FinalImportance),
		)
	}
	table.Render()
	return persistRankedClips(context.Background(), store, rankMatchID, ranked)
}

func persistRankedClips(ctx context.Context, store *storage.SQLiteStore, matchID string, ranked []matchpipe.RankedClip) error {
	var docs []storage.Document
	for _, r := range ranked {
		docs = append(docs, storage.Document{
			Collection: storage.CollectionStats,
			MatchID:    matchID,
			ID:         storage.DocumentID(matchID, storage.CollectionStats, fmt.Sprintf("ranked-clip-%s", r.Clip.ID)),
			Body:       r,
		})
	}
	return store.BatchWrite(ctx, docs)
}
