package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dfarias/examload/internal/db"
	"github.com/dfarias/examload/internal/exitcode"
	"github.com/dfarias/examload/internal/ingest"
	"github.com/dfarias/examload/internal/logging"
)

var validateBatchID string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run integrity checks against a committed batch",
	RunE:  runValidate,
}

func init() {
	f := validateCmd.Flags()
	f.StringVar(&validateBatchID, "batch", "", "Batch id (required)")
	f.IntVar(&cfg.ValidationThreshold, "threshold", 0, "Minimum passing score 0..100 (default 100)")
	_ = validateCmd.MarkFlagRequired("batch")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	batchID, err := uuid.Parse(validateBatchID)
	if err != nil {
		log.Error().Err(err).Msg("--batch must be a UUID")
		os.Exit(exitcode.UsageError)
	}
	if cfg.DSN == "" {
		log.Error().Msg("--dsn or DATABASE_URL is required")
		os.Exit(exitcode.UsageError)
	}
	threshold := cfg.ValidationThreshold
	if threshold == 0 {
		threshold = 100
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	report, err := ingest.Validate(ctx, pool, log, batchID, threshold)
	if err != nil {
		log.Error().Err(err).Msg("validation failed to run")
		os.Exit(exitcode.ChunkError)
	}

	fmt.Printf("Validation score: %d (threshold %d)\n", report.Score, threshold)
	if !report.Ok {
		fmt.Printf("FAILED checks: %s\n", strings.Join(report.FailedChecks, ", "))
		os.Exit(exitcode.IntegrityError)
	}
	fmt.Println("All checks passed")
	return nil
}
