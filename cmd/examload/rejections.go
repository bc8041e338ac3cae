package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dfarias/examload/internal/db"
	"github.com/dfarias/examload/internal/exitcode"
	"github.com/dfarias/examload/internal/export"
	"github.com/dfarias/examload/internal/logging"
)

var (
	rejectionsBatchID string
	rejectionsOut     string
)

var rejectionsCmd = &cobra.Command{
	Use:   "rejections",
	Short: "Export a batch's rejection report",
	Long:  "Writes every rejected row of a batch, with reason code and raw payload, to an .xlsx or .parquet file chosen by the output extension.",
	RunE:  runRejections,
}

func init() {
	f := rejectionsCmd.Flags()
	f.StringVar(&rejectionsBatchID, "batch", "", "Batch id (required)")
	f.StringVar(&rejectionsOut, "out", "", "Output path ending in .xlsx or .parquet (required)")
	_ = rejectionsCmd.MarkFlagRequired("batch")
	_ = rejectionsCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(rejectionsCmd)
}

func runRejections(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	batchID, err := uuid.Parse(rejectionsBatchID)
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

	n, err := export.Rejections(ctx, pool, log, batchID, rejectionsOut)
	if err != nil {
		log.Error().Err(err).Msg("export failed")
		os.Exit(exitcode.ChunkError)
	}

	fmt.Printf("Exported %d rejections to %s\n", n, rejectionsOut)
	return nil
}
