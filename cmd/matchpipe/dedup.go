package main

import (
	"context"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"

	"github.com/kickframe/matchpipe"
	"github.com/kickframe/matchpipe/storage"
)

var dedupMatchID string

var dedupCmd = &cobra.Command{
	Use:   "dedup",
	Short: "Deduplicate the raw pass/carry/turnover events stored for a match",
	Args:  cobra.NoArgs,
	RunE:  runDedup,
}

func init() {
	dedupCmd.Flags().StringVar(&dedupMatchID, "match", "", "match id (required)")
	dedupCmd.MarkFlagRequired("match")
}

func runDedup(cmd *cobra.Command, args []string) error {
	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	raw, err := loadRawEvents(store, dedupMatchID)
	if err != nil {
		return err
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	pipeline := matchpipe.NewPipeline(cfg, matchpipe.RealClock, newLogger())
	events, stats := pipeline.DeduplicateEvents(raw, nil)

	var docs []storage.Document
	for i, e := range events {
		docs = append(docs, storage.Document{
			Collection: storage.CollectionStats,
			MatchID:    dedupMatchID,
			ID:         storage.DocumentID(dedupMatchID, storage.CollectionStats, fmt.Sprintf("dedup-event-%d", i)),
			Body:       e,
		})
	}
	if err := store.BatchWrite(context.Background(), docs); err != nil {
		return fmt.Errorf("persist deduplicated events: %w", err)
	}

	table := tablewriter.NewTable(cmd.OutOrStdout(), tablewriter.WithConfig(tablewriter.Config{
		Row:    tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignRight}},
		Header: tw.CellConfig{Alignment: tw.CellAlignment{Global: tw.AlignCenter}},
	}))
	table.Header("METRIC", "VALUE")
	table.Append("raw events", fmt.Sprintf("%d", len(raw)))
	table.Append("deduplicated events", fmt.Sprintf("%d", len(events)))
	table.Append("merges", fmt.Sprintf("%d", stats.MergedCount))
	table.Render()
	return nil
}

func loadRawEvents(store *storage.SQLiteStore, matchID string) ([]matchpipe.RawEvent, error) {
	ctx := context.Background()
	var raw []matchpipe.RawEvent
	for _, c := range []storage.Collection{storage.CollectionPassEvents, storage.CollectionCarryEvents, storage.CollectionTurnoverEvents} {
		docs, err := store.List(ctx, c, matchID)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", c, err)
		}
		for _, d := range docs {
			var e matchpipe.RawEvent
			if err := unmarshalDoc(d, &e); err != nil {
				return nil, err
			}
			raw = append(raw, e)
		}
	}
	return raw, nil
}
