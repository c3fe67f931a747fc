package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/staffmeal/validation-service/internal/database"
	"github.com/staffmeal/validation-service/internal/store"
)

var (
	purgeOlderThan int
	purgeMock      bool
	purgeYes       bool
)

// purgeCmd represents the purge command
var purgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Delete old or seeded validation records",
	Long: `Delete validation records past the retention cutoff, or records
created by the seed command. Requires --yes to actually delete.`,
	Example: `  validation-service purge --older-than 365 --yes
  validation-service purge --mock --yes`,
	Args: cobra.NoArgs,
	RunE: runPurge,
}

func init() {
	rootCmd.AddCommand(purgeCmd)

	purgeCmd.Flags().IntVar(&purgeOlderThan, "older-than", 0, "Delete records older than N days")
	purgeCmd.Flags().BoolVar(&purgeMock, "mock", false, "Delete records inserted by the seed command")
	purgeCmd.Flags().BoolVar(&purgeYes, "yes", false, "Confirm deletion")
}

func runPurge(cmd *cobra.Command, args []string) error {
	if purgeOlderThan <= 0 && !purgeMock {
		return fmt.Errorf("nothing to do: pass --older-than <days> and/or --mock")
	}
	if !purgeYes {
		return fmt.Errorf("refusing to delete without --yes")
	}

	ctx := context.Background()

	if purgeOlderThan > 0 {
		recordStore := store.NewPostgresStore(database.Pool())
		cutoff := time.Now().UTC().AddDate(0, 0, -purgeOlderThan)
		deleted, err := recordStore.DeleteOlderThan(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("delete old records: %w", err)
		}
		logger.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Deleted old validation records")
	}

	if purgeMock {
		tag, err := database.Pool().Exec(ctx,
			`DELETE FROM validation_records WHERE order_id LIKE 'MOCK-%'`)
		if err != nil {
			return fmt.Errorf("delete mock records: %w", err)
		}
		logger.Info().Int64("deleted", tag.RowsAffected()).Msg("Deleted seeded validation records")
	}

	return nil
}
