package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dfarias/examload/internal/db"
	"github.com/dfarias/examload/internal/exitcode"
	"github.com/dfarias/examload/internal/ingest"
	"github.com/dfarias/examload/internal/logging"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest an exam volume xlsx into the billing database",
	RunE:  runIngest,
}

func init() {
	f := ingestCmd.Flags()
	f.StringVar(&cfg.FilePath, "file", "", "Path to xlsx file (required)")
	f.StringVar(&cfg.SourceKind, "kind", "", "Source kind: standard, non_standard, retro_standard, retro_non_standard, onco_standard (required)")
	f.StringVar(&cfg.Period, "period", "", "Billing period as YYYY-MM (required)")
	f.BoolVar(&cfg.Force, "force", false, "Re-run even if this file was already committed for the kind and period")
	f.BoolVar(&cfg.KeepStaging, "keep-staging", false, "Keep staging rows after commit")
	f.IntVar(&cfg.ChunkSize, "chunk-size", 0, "Rows per chunk (default 200)")
	_ = ingestCmd.MarkFlagRequired("file")
	_ = ingestCmd.MarkFlagRequired("kind")
	_ = ingestCmd.MarkFlagRequired("period")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	log := logging.Setup(cfg.LogFormat)
	ctx := context.Background()

	if err := loadConfigFile(); err != nil {
		log.Error().Err(err).Msg("config file load failed")
		os.Exit(exitcode.UsageError)
	}
	if err := cfg.ValidateWithDSN(); err != nil {
		log.Error().Err(err).Msg("config validation failed")
		os.Exit(exitcode.UsageError)
	}

	pool, err := db.NewPool(ctx, cfg.DSN)
	if err != nil {
		log.Error().Err(err).Msg("database connection failed")
		os.Exit(exitcode.DBConnError)
	}
	defer pool.Close()

	summary, err := ingest.Run(ctx, pool, log, &cfg)
	if err != nil {
		var pe *ingest.PipelineError
		if errors.As(err, &pe) {
			log.Error().Err(pe.Err).Str("phase", pe.Phase).Msg("ingest failed")
			switch {
			case errors.Is(err, ingest.ErrValidationFailed):
				os.Exit(exitcode.IntegrityError)
			case pe.Phase == "start":
				os.Exit(exitcode.ValidationError)
			default:
				os.Exit(exitcode.ChunkError)
			}
		}
		log.Error().Err(err).Msg("ingest failed")
		os.Exit(exitcode.ChunkError)
	}

	if summary.RowsRejected > 0 {
		fmt.Printf("Ingest complete with rejections: batch %s, %d accepted, %d rejected of %d rows (%.1fs)\n",
			summary.BatchID, summary.RowsAccepted, summary.RowsRejected, summary.RowsRead,
			summary.DurationTotal.Seconds())
		os.Exit(exitcode.PartialSuccess)
	}

	fmt.Printf("Ingest complete: batch %s, %d rows committed (%.1fs)\n",
		summary.BatchID, summary.RowsAccepted, summary.DurationTotal.Seconds())
	return nil
}
