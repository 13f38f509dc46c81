package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"autoname/internal/history"
	"autoname/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, service credentials, and journal totals",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)

			var lines []string
			lines = append(lines, renderSectionHeader("Configuration", colorize)...)
			configDetail := ctx.configPath
			if !ctx.configExists {
				configDetail += " (not found, using defaults)"
			}
			lines = append(lines, renderStatusLine("Config file", statusInfo, configDetail, colorize))
			lines = append(lines, renderStatusLine("Extensions", statusInfo, strings.Join(cfg.Intake.Extensions, ", "), colorize))
			lines = append(lines, renderStatusLine("Scan existing", statusInfo, yesNo(cfg.Intake.ScanExisting), colorize))
			lines = append(lines, "")

			var results []preflight.Result
			if offline {
				results = preflight.CheckDirectories(cfg)
			} else {
				results = preflight.RunAll(cmd.Context(), cfg)
			}
			lines = append(lines, renderSectionHeader("Checks", colorize)...)
			for _, result := range results {
				lines = append(lines, renderStatusLine(result.Name, checkKind(result.Passed), result.Detail, colorize))
			}

			if cfg.History.Enabled {
				lines = append(lines, "")
				lines = append(lines, renderSectionHeader("History", colorize)...)
				lines = append(lines, historyStatusLines(cfg.HistoryPath(), cmd, colorize)...)
			}

			fmt.Fprintln(out, strings.Join(lines, "\n"))

			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the network checks against Sypht and the ABR")
	return cmd
}

func historyStatusLines(path string, cmd *cobra.Command, colorize bool) []string {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return []string{renderStatusLine("Journal", statusInfo, "no documents processed yet", colorize)}
	}
	store, err := history.Open(path)
	if err != nil {
		return []string{renderStatusLine("Journal", statusWarn, err.Error(), colorize)}
	}
	defer store.Close()

	counts, err := store.Counts(cmd.Context())
	if err != nil {
		return []string{renderStatusLine("Journal", statusWarn, err.Error(), colorize)}
	}
	lines := make([]string, 0, len(history.AllStatuses()))
	for _, status := range history.AllStatuses() {
		lines = append(lines, renderStatusLine(titleCase(string(status)), outcomeKind(status, counts[status]), fmt.Sprintf("%d", counts[status]), colorize))
	}
	return lines
}

func titleCase(value string) string {
	if value == "" {
		return value
	}
	return strings.ToUpper(value[:1]) + value[1:]
}
