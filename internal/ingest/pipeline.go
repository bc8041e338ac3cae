package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dfarias/examload/internal/config"
	"github.com/dfarias/examload/internal/model"
)

// PipelineError wraps an error with the phase where it occurred.
type PipelineError struct {
	Phase string
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Phase, e.Err)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// ErrValidationFailed is returned (wrapped in a PipelineError) when the
// integrity score falls below the threshold and the batch was rolled back.
var ErrValidationFailed = errors.New("integrity validation failed")

// Run executes a full upload: start → chunk loop → validate → finalize,
// rolling the batch back when validation fails. The chunk loop is the
// resumable part: re-running the same file after an interruption re-enters
// here and continues from the stored cursor.
func Run(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, cfg *config.Config) (*model.BatchSummary, error) {
	totalStart := time.Now()

	log.Info().Str("file", cfg.FilePath).Msg("starting batch")
	ref, err := StartBatch(ctx, pool, log, cfg.FilePath, cfg.Kind, cfg.BillingPeriod, cfg.Force)
	if err != nil {
		return nil, &PipelineError{Phase: "start", Err: err}
	}

	if ref.AlreadyLoaded {
		log.Info().
			Str("batch_id", ref.ID.String()).
			Str("sha256", ref.FileSHA256).
			Msg("file already committed for this kind and period, skipping (use --force to re-run)")
		return &model.BatchSummary{
			FilePath:      cfg.FilePath,
			FileSHA256:    ref.FileSHA256,
			BatchID:       ref.ID.String(),
			DurationTotal: time.Since(totalStart),
		}, nil
	}

	chunkStart := time.Now()
	chunks := 0
	for {
		result, err := ProcessChunk(ctx, pool, log, ref.ID, cfg.ChunkSize)
		if err != nil {
			if errors.Is(err, ErrBatchAborted) {
				_ = SetFailure(ctx, pool, ref.ID, model.BatchFailed, "aborted by operator")
			}
			return nil, &PipelineError{Phase: "chunks", Err: err}
		}
		chunks++
		if result.NextStartRow == nil {
			break
		}
	}
	chunkDur := time.Since(chunkStart)

	validateStart := time.Now()
	report, err := Validate(ctx, pool, log, ref.ID, cfg.ValidationThreshold)
	if err != nil {
		_ = SetFailure(ctx, pool, ref.ID, model.BatchFailed, err.Error())
		return nil, &PipelineError{Phase: "validate", Err: err}
	}

	if !report.Ok {
		reason := fmt.Sprintf("validation score %d below threshold %d; failed checks: %s",
			report.Score, cfg.ValidationThreshold, strings.Join(report.FailedChecks, ", "))
		if _, err := Rollback(ctx, pool, log, ref.ID, reason); err != nil {
			return nil, &PipelineError{Phase: "rollback", Err: err}
		}
		return nil, &PipelineError{
			Phase: "validate",
			Err:   fmt.Errorf("%w: %s", ErrValidationFailed, reason),
		}
	}

	if !cfg.KeepStaging {
		log.Info().Msg("cleaning up staging")
		if err := Cleanup(ctx, pool, log, ref.ID); err != nil {
			log.Warn().Err(err).Msg("staging cleanup failed (non-fatal)")
		}
	}

	if err := UpdateStatus(ctx, pool, ref.ID, model.BatchCommitted); err != nil {
		return nil, &PipelineError{Phase: "finalize", Err: err}
	}

	b, err := GetBatch(ctx, pool, ref.ID)
	if err != nil {
		return nil, &PipelineError{Phase: "finalize", Err: err}
	}

	summary := &model.BatchSummary{
		FilePath:         cfg.FilePath,
		FileSHA256:       ref.FileSHA256,
		BatchID:          ref.ID.String(),
		Chunks:           chunks,
		RowsRead:         b.RowsRead,
		RowsAccepted:     b.RowsAccepted,
		RowsRejected:     b.RowsRejected,
		ValidationScore:  report.Score,
		DurationChunks:   chunkDur,
		DurationValidate: time.Since(validateStart),
		DurationTotal:    time.Since(totalStart),
	}

	log.Info().
		Str("batch_id", summary.BatchID).
		Int("chunks", summary.Chunks).
		Int64("rows_read", summary.RowsRead).
		Int64("rows_accepted", summary.RowsAccepted).
		Int64("rows_rejected", summary.RowsRejected).
		Int("score", summary.ValidationScore).
		Str("total_duration", summary.DurationTotal.String()).
		Msg("batch committed")

	return summary, nil
}
