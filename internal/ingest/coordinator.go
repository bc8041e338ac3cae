package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dfarias/examload/internal/model"
	"github.com/dfarias/examload/internal/normalize"
	embedsql "github.com/dfarias/examload/internal/sql"
	"github.com/dfarias/examload/internal/xlsxread"
)

// ErrBatchAborted is returned by ProcessChunk when the operator requested
// an abort; it is honored between chunks, never mid-chunk.
var ErrBatchAborted = errors.New("batch abort requested")

// BatchRef holds the context resolved when a batch starts.
type BatchRef struct {
	// ID is the batch identifier; stable across resumed runs of the same
	// file + kind + period.
	ID uuid.UUID
	// FileSHA256 binds the batch to one underlying file: every chunk call
	// re-verifies it so a swapped file cannot continue an old cursor.
	FileSHA256 string
	// TotalRows is the data-row count from the spreadsheet.
	TotalRows int64
	// AlreadyLoaded is true when the same file was already committed for
	// this kind + period and force mode is off.
	AlreadyLoaded bool
}

// StartBatch validates the spreadsheet header, hashes the file, and
// registers (or resets) the upload batch. No staging row is written here:
// input errors fail fast before any chunk runs.
func StartBatch(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, filePath string, kind model.SourceKind, period model.Period, force bool) (*BatchRef, error) {
	start := time.Now()

	reader, err := xlsxread.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("start batch: %w", err)
	}
	totalRows, err := reader.RowCount()
	reader.Close()
	if err != nil {
		return nil, fmt.Errorf("start batch: %w", err)
	}

	sha, err := normalize.FileHash(filePath)
	if err != nil {
		return nil, fmt.Errorf("start batch hash: %w", err)
	}

	batchID := uuid.New()
	err = pool.QueryRow(ctx, embedsql.RegisterBatch,
		batchID, string(kind), period.Year, int(period.Month), filePath, sha, totalRows,
	).Scan(&batchID)

	if err == pgx.ErrNoRows {
		// Same file + kind + period already registered.
		var existingID uuid.UUID
		var status string
		if err := pool.QueryRow(ctx, embedsql.LookupBatchByFile,
			sha, string(kind), period.Year, int(period.Month),
		).Scan(&existingID, &status); err != nil {
			return nil, fmt.Errorf("lookup existing batch: %w", err)
		}

		existing := model.BatchStatus(status)
		switch {
		case !force && existing == model.BatchCommitted:
			return &BatchRef{ID: existingID, FileSHA256: sha, TotalRows: totalRows, AlreadyLoaded: true}, nil

		case !force && !existing.Terminal():
			// An interrupted run: resume from the stored cursor. The chunk
			// loop re-verifies the file hash, and the lot-key conflict
			// handling absorbs any chunk that was read but not yet counted.
			log.Info().
				Str("batch_id", existingID.String()).
				Str("status", status).
				Msg("resuming interrupted batch")
			if _, err := pool.Exec(ctx,
				"UPDATE ingest.upload_batches SET abort_requested = FALSE, updated_at = now() WHERE batch_id = $1",
				existingID,
			); err != nil {
				return nil, fmt.Errorf("clear abort flag: %w", err)
			}
			batchID = existingID

		default:
			// Forced re-run, or a rolled back / failed batch restarted from
			// scratch under the same batch id: clear partial fact and
			// staging rows so counters and lot keys start clean. Rejections
			// are append-only audit and stay.
			if _, err := pool.Exec(ctx, embedsql.DeleteBatchRecords, existingID); err != nil {
				return nil, fmt.Errorf("reset batch records: %w", err)
			}
			if _, err := pool.Exec(ctx, embedsql.DeleteStagingBatch, existingID); err != nil {
				return nil, fmt.Errorf("reset staging: %w", err)
			}
			if _, err := pool.Exec(ctx, embedsql.ResetBatch, existingID, totalRows, filePath); err != nil {
				return nil, fmt.Errorf("reset batch: %w", err)
			}
			batchID = existingID
		}
	} else if err != nil {
		return nil, fmt.Errorf("register batch: %w", err)
	}

	log.Info().
		Str("batch_id", batchID.String()).
		Str("kind", string(kind)).
		Str("period", period.String()).
		Str("sha256", sha).
		Int64("rows", totalRows).
		Dur("duration", time.Since(start)).
		Msg("batch registered")

	return &BatchRef{ID: batchID, FileSHA256: sha, TotalRows: totalRows}, nil
}

// GetBatch loads the durable batch record.
func GetBatch(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID) (*model.UploadBatch, error) {
	var b model.UploadBatch
	var kind, status string
	var month int
	err := pool.QueryRow(ctx, embedsql.GetBatch, batchID).Scan(
		&b.ID, &kind, &b.Period.Year, &month, &b.FilePath, &b.FileSHA256,
		&status, &b.RowsRead, &b.RowsAccepted, &b.RowsRejected,
		&b.NextStartRow, &b.TotalRows, &b.AbortRequested, &b.FailureReason,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("get batch %s: %w", batchID, err)
	}
	b.SourceKind = model.SourceKind(kind)
	b.Period.Month = time.Month(month)
	b.Status = model.BatchStatus(status)
	return &b, nil
}

// UpdateStatus transitions the batch status.
func UpdateStatus(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID, status model.BatchStatus) error {
	_, err := pool.Exec(ctx,
		"UPDATE ingest.upload_batches SET status = $2, updated_at = now() WHERE batch_id = $1",
		batchID, string(status),
	)
	return err
}

// SetFailure marks the batch failed (or rolled back) with a stored reason
// so the outcome is explainable without application logs.
func SetFailure(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID, status model.BatchStatus, reason string) error {
	_, err := pool.Exec(ctx,
		"UPDATE ingest.upload_batches SET status = $2, failure_reason = $3, updated_at = now() WHERE batch_id = $1",
		batchID, string(status), reason,
	)
	return err
}

// RequestAbort sets the abort flag; the next ProcessChunk call on a
// non-terminal batch refuses to run.
func RequestAbort(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID) (bool, error) {
	tag, err := pool.Exec(ctx,
		`UPDATE ingest.upload_batches SET abort_requested = TRUE, updated_at = now()
		 WHERE batch_id = $1 AND status NOT IN ('committed', 'rolled_back', 'failed')`,
		batchID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
