package main

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"cadence/internal/api"
	"cadence/internal/history"
	"cadence/internal/ipc"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect finished conversions",
	}
	historyCmd.AddCommand(newHistoryListCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryListCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List finished jobs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := loadHistory(cmd.Context(), ctx, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				return writeJSON(cmd, api.HistoryListResponse{Entries: entries})
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No finished jobs recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print JSON")
	return cmd
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all history entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := history.Open(cfg)
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()
			removed, err := store.Clear(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %d history entries\n", removed)
			return nil
		},
	}
}

// loadHistory asks the daemon first and reads the database directly when it
// is offline.
func loadHistory(reqCtx context.Context, ctx *commandContext, limit int) ([]api.HistoryEntry, error) {
	if client, err := ipc.Dial(ctx.socketPath()); err == nil {
		defer client.Close()
		resp, err := client.History(limit)
		if err != nil {
			return nil, err
		}
		return resp.Entries, nil
	}

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled in configuration")
	}
	store, err := history.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer store.Close()
	entries, err := store.List(reqCtx, limit)
	if err != nil {
		return nil, err
	}
	return api.FromHistory(entries), nil
}

func renderHistoryTable(entries []api.HistoryEntry) string {
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		finished := "-"
		if ts := api.ParseTime(entry.FinishedAt); !ts.IsZero() {
			finished = humanize.Time(ts)
		}
		result := entry.OutputPath
		if entry.Error != "" {
			result = entry.Error
		}
		format := entry.Format
		if entry.Bitrate != "" {
			format += " @ " + entry.Bitrate
		}
		rows = append(rows, []string{
			finished,
			entry.SourceName,
			format,
			entry.Status,
			api.ElapsedLabel(entry.DurationMS),
			result,
		})
	}
	return renderTable(historyColumns, rows)
}
