package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/seoscribe/internal/report"
	"github.com/FranksOps/seoscribe/internal/storage"
	"github.com/FranksOps/seoscribe/internal/storage/backends"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Summarize the run log",
	Long: `Runs reads the configured run log (storage.backend, storage.dsn) and prints
a summary of past generations: outcomes, failure kinds, triggers and keywords.`,
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().String("format", "text", "output format: text, json or html")
	runsCmd.Flags().String("keyword", "", "only runs for this keyword")
	runsCmd.Flags().String("trigger", "", "only runs from this trigger: web, schedule or cli")
	runsCmd.Flags().String("status", "", "only runs with this status: ok or failed")
	runsCmd.Flags().Duration("since", 0, "only runs newer than this duration, e.g. 168h")
	runsCmd.Flags().Int("limit", 0, "maximum number of runs to include (0 for all)")

	rootCmd.AddCommand(runsCmd)
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	var write func(io.Writer, report.Summary) error
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "text":
		write = report.WriteText
	case "json":
		write = report.WriteJSON
	case "html":
		write = report.WriteHTML
	default:
		return fmt.Errorf("unknown --format %q", format)
	}

	b, err := backends.Open(cmd.Context(), cfg.Storage.Backend, cfg.Storage.DSN)
	if err != nil {
		return err
	}
	if b == nil {
		return fmt.Errorf("no run log configured: set storage.backend and storage.dsn")
	}
	defer b.Close()

	filter := storage.Filter{}
	filter.Keyword, _ = cmd.Flags().GetString("keyword")
	filter.Trigger, _ = cmd.Flags().GetString("trigger")
	filter.Status, _ = cmd.Flags().GetString("status")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
		t := time.Now().Add(-since)
		filter.Since = &t
	}

	records, err := b.Query(cmd.Context(), filter)
	if err != nil {
		return err
	}

	return write(cmd.OutOrStdout(), report.GenerateSummary(records))
}
