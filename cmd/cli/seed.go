package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/staffmeal/validation-service/internal/catalog"
	"github.com/staffmeal/validation-service/internal/compare"
	"github.com/staffmeal/validation-service/internal/database"
	"github.com/staffmeal/validation-service/internal/order"
	"github.com/staffmeal/validation-service/internal/record"
	"github.com/staffmeal/validation-service/internal/store"
)

var (
	seedCount       int
	seedDays        int
	seedCompletePct int
	seedWorkers     int
)

var seedOperators = []string{"marie", "lucas", "sophie", "thomas"}

// seedCmd represents the seed command
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert mock validation records for testing",
	Long: `Generate and persist randomized validation records spread over the
last N days. Useful for exercising the statistics and alert endpoints
against a realistic history.`,
	Example: `  validation-service seed --count 200 --days 30
  validation-service seed --count 50 --complete-pct 70`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().IntVar(&seedCount, "count", 100, "Number of records to insert")
	seedCmd.Flags().IntVar(&seedDays, "days", 30, "Spread records over the last N days")
	seedCmd.Flags().IntVar(&seedCompletePct, "complete-pct", 80, "Approximate share of complete bags (0-100)")
	seedCmd.Flags().IntVar(&seedWorkers, "workers", 8, "Concurrent insert workers")
}

func runSeed(cmd *cobra.Command, args []string) error {
	if seedCount <= 0 {
		return fmt.Errorf("--count must be positive")
	}
	if seedCompletePct < 0 || seedCompletePct > 100 {
		return fmt.Errorf("--complete-pct must be between 0 and 100")
	}

	ctx := context.Background()
	recordStore := store.NewPostgresStore(database.Pool())
	if err := recordStore.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	// Generate sequentially (the rng is not safe for concurrent use),
	// insert concurrently.
	records := make([]*record.ValidationRecord, 0, seedCount)
	for i := 0; i < seedCount; i++ {
		rec, err := mockRecord(rng, i)
		if err != nil {
			return fmt.Errorf("generate record %d: %w", i, err)
		}
		records = append(records, rec)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(seedWorkers)

	for _, rec := range records {
		rec := rec
		g.Go(func() error {
			_, err := recordStore.Append(gctx, rec)
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("insert records: %w", err)
	}

	logger.Info().Int("count", seedCount).Int("days", seedDays).Msg("Seeded mock validation records")
	return nil
}

func mockRecord(rng *rand.Rand, seq int) (*record.ValidationRecord, error) {
	items := catalog.Items()

	// Expected order: 1-4 distinct items, 1-3 boxes each.
	lineCount := 1 + rng.Intn(4)
	picked := rng.Perm(len(items))[:lineCount]
	lines := make([]order.Line, 0, lineCount)
	for _, idx := range picked {
		lines = append(lines, order.Line{Item: items[idx], Quantity: 1 + rng.Intn(3)})
	}

	source := order.SourceUberEats
	if rng.Intn(2) == 0 {
		source = order.SourceDeliveroo
	}

	orderID := fmt.Sprintf("MOCK-%06d", seq)
	expected, err := order.New(orderID, source, lines)
	if err != nil {
		return nil, err
	}

	// Detected order: usually identical, otherwise drop one line or
	// shave a box off the first one.
	detectedLines := make([]order.Line, len(lines))
	copy(detectedLines, lines)
	if rng.Intn(100) >= seedCompletePct {
		if len(detectedLines) > 1 && rng.Intn(2) == 0 {
			detectedLines = detectedLines[:len(detectedLines)-1]
		} else {
			detectedLines[0].Quantity--
		}
	}

	// Orders need at least one line with quantity >= 1. If the drop
	// emptied the bag, substitute a wrong item so the expected line
	// still shows up as missing.
	valid := detectedLines[:0]
	for _, l := range detectedLines {
		if l.Quantity > 0 {
			valid = append(valid, l)
		}
	}

	var detected *order.Order
	if len(valid) == 0 {
		other := items[(picked[0]+1)%len(items)]
		detected, err = order.New(orderID, source, []order.Line{{Item: other, Quantity: 1}})
	} else {
		detected, err = order.New(orderID, source, valid)
	}
	if err != nil {
		return nil, err
	}

	result := compare.Compare(expected, detected)

	// Timestamp biased toward lunch and dinner rushes.
	daysBack := rng.Intn(seedDays)
	hour := []int{11, 12, 13, 19, 20, 21}[rng.Intn(6)]
	ts := time.Now().UTC().AddDate(0, 0, -daysBack).
		Truncate(24 * time.Hour).
		Add(time.Duration(hour)*time.Hour + time.Duration(rng.Intn(60))*time.Minute)

	assembler := record.Assembler{Now: func() time.Time { return ts }}
	operator := seedOperators[rng.Intn(len(seedOperators))]
	return assembler.Assemble(expected, detected, result, operator)
}
