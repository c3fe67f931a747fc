package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/staffmeal/validation-service/internal/database"
	"github.com/staffmeal/validation-service/internal/stats"
	"github.com/staffmeal/validation-service/internal/store"
)

var (
	statsDays    int
	statsCompare bool
)

// statsCmd represents the stats command
var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show validation statistics and alerts",
	Long: `Aggregate the stored validation records over a trailing window and
print the completion statistics, breakdowns, and any triggered alerts.`,
	Example: `  validation-service stats
  validation-service stats --days 30 --compare`,
	Args: cobra.NoArgs,
	RunE: runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)

	statsCmd.Flags().IntVar(&statsDays, "days", 7, "Window length in days, ending now")
	statsCmd.Flags().BoolVar(&statsCompare, "compare", false, "Compute trend deltas against the previous window")
}

func runStats(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	recordStore := store.NewPostgresStore(database.Pool())

	now := time.Now().UTC()
	period := stats.Period{Start: now.AddDate(0, 0, -statsDays), End: now}

	var comparison *stats.Period
	queryFrom := period.Start
	if statsCompare {
		prev := period.Previous()
		comparison = &prev
		queryFrom = prev.Start
	}

	records, err := recordStore.Query(ctx, store.Filter{From: queryFrom, Until: period.End})
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}

	s := stats.Aggregate(records, period, comparison)
	alerts := stats.DetectAlerts(s, cfg.Alerts)

	displayStats(s, period)
	displayAlerts(alerts)
	return nil
}

func displayStats(s stats.Statistics, period stats.Period) {
	fmt.Printf("Window %s .. %s\n\n",
		period.Start.Format("2006-01-02 15:04"),
		period.End.Format("2006-01-02 15:04"))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	fmt.Fprintf(w, "Total validations\t%d\n", s.Total)
	fmt.Fprintf(w, "Complete\t%d\n", s.Complete)
	fmt.Fprintf(w, "Completion rate\t%.1f%%%s\n", s.CompletionRate*100, deltaSuffix(s.CompletionRateDelta))
	fmt.Fprintf(w, "Error rate\t%.1f%%%s\n", s.ErrorRate*100, deltaSuffix(s.ErrorRateDelta))
	fmt.Fprintf(w, "Missing item entries\t%d\n", s.MissingCount)
	fmt.Fprintf(w, "Extra item entries\t%d\n", s.ExtraCount)
	w.Flush()

	if len(s.MissingByItem) > 0 {
		fmt.Println("\nMost forgotten items:")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		for item, count := range s.MissingByItem {
			fmt.Fprintf(w, "  %s\t%d\n", item, count)
		}
		w.Flush()
	}

	if len(s.ByOperator) > 0 {
		fmt.Println("\nBy operator:")
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "  OPERATOR\tCOUNT\tCOMPLETION")
		for op, b := range s.ByOperator {
			fmt.Fprintf(w, "  %s\t%d\t%.1f%%\n", op, b.Count, b.CompletionRate*100)
		}
		w.Flush()
	}
}

func deltaSuffix(delta *float64) string {
	if delta == nil {
		return ""
	}
	return fmt.Sprintf(" (%+.1f pts)", *delta*100)
}

func displayAlerts(alerts []stats.Alert) {
	if len(alerts) == 0 {
		fmt.Println("\nNo alerts.")
		return
	}

	fmt.Println("\nAlerts:")
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	for _, a := range alerts {
		fmt.Fprintf(w, "  [%s]\t%s\t%s\n", a.Severity, a.Code, a.Message)
	}
	w.Flush()
}
