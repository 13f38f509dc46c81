package main

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"autoname/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var statusFilter string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recently processed documents",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if limit < 1 {
				return fmt.Errorf("--limit must be at least 1")
			}

			var status history.Status
			if strings.TrimSpace(statusFilter) != "" {
				parsed, ok := history.ParseStatus(statusFilter)
				if !ok {
					return fmt.Errorf("unknown status %q (want renamed, skipped, or failed)", statusFilter)
				}
				status = parsed
			}

			store, err := history.Open(cfg.HistoryPath())
			if err != nil {
				return fmt.Errorf("open history: %w", err)
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), limit, status)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No documents recorded")
				return nil
			}
			fmt.Fprintln(out, renderHistoryTable(entries))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")
	cmd.Flags().StringVar(&statusFilter, "status", "", "Only show entries with this status (renamed, skipped, failed)")
	return cmd
}

func renderHistoryTable(entries []history.Entry) string {
	columns := []column{
		{Header: "ID", Align: alignRight},
		{Header: "When"},
		{Header: "Status"},
		{Header: "Source", MaxWidth: 40},
		{Header: "Result", MaxWidth: 60},
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		result := filepath.Base(entry.Destination)
		if entry.Destination == "" {
			result = entry.Detail
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", entry.ID),
			entry.CreatedAt.Local().Format(time.DateTime),
			string(entry.Status),
			filepath.Base(entry.Source),
			result,
		})
	}
	return renderTable(columns, rows)
}
