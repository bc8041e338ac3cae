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

var abortBatchID string

var abortCmd = &cobra.Command{
	Use:   "abort",
	Short: "Request a clean stop of an in-progress batch",
	Long:  "Sets the abort flag on a non-terminal batch. The running ingest stops at the next chunk boundary; already committed chunks stay and the file can be resumed or rolled back later.",
	RunE:  runAbort,
}

func init() {
	abortCmd.Flags().StringVar(&abortBatchID, "batch", "", "Batch id (required)")
	_ = abortCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(abortCmd)
}

func runAbort(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	batchID, err := uuid.Parse(abortBatchID)
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

	requested, err := ingest.RequestAbort(ctx, pool, batchID)
	if err != nil {
		log.Error().Err(err).Msg("abort request failed")
		os.Exit(exitcode.ChunkError)
	}
	if !requested {
		fmt.Printf("Batch %s is already terminal; nothing to abort\n", batchID)
		return nil
	}

	fmt.Printf("Abort requested for batch %s; it will stop at the next chunk boundary\n", batchID)
	return nil
}
