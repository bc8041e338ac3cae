package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dfarias/examload/internal/db"
	"github.com/dfarias/examload/internal/exitcode"
	"github.com/dfarias/examload/internal/ingest"
	"github.com/dfarias/examload/internal/logging"
)

var (
	rollbackBatchID string
	rollbackReason  string
)

var rollbackCmd = &cobra.Command{
	Use:   "rollback",
	Short: "Remove every fact row of a batch",
	Long:  "Deletes all committed rows tagged with the batch id and marks the batch rolled back. Rejection records are kept as the audit trail.",
	RunE:  runRollback,
}

func init() {
	f := rollbackCmd.Flags()
	f.StringVar(&rollbackBatchID, "batch", "", "Batch id (required)")
	f.StringVar(&rollbackReason, "reason", "manual rollback", "Reason recorded on the batch")
	_ = rollbackCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(rollbackCmd)
}

func runRollback(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	batchID, err := uuid.Parse(rollbackBatchID)
	if err != nil {
		log.Error().Err(err).Msg("--batch must be a UUID")
		os.Exit(exitcode.UsageError)
	}
	if cfg.DSN == "" {
		log.Error().Msg("--dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	removed, err := ingest.Rollback(ctx, pool, log, batchID, rollbackReason)
	if err != nil {
		log.Error().Err(err).Msg("rollback failed")
		os.Exit(exitcode.ChunkError)
	}

	fmt.Printf("Rolled back batch %s: %d rows removed\n", batchID, removed)
	return nil
}
