package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dfarias/examload/internal/db"
	"github.com/dfarias/examload/internal/mapping"
	"github.com/dfarias/examload/internal/model"
	"github.com/dfarias/examload/internal/normalize"
	"github.com/dfarias/examload/internal/rules"
	embedsql "github.com/dfarias/examload/internal/sql"
	"github.com/dfarias/examload/internal/xlsxread"
)

// ProcessChunk reads the next chunk of data rows at the batch cursor,
// stages them, runs the rule pipeline, and writes accepted fact rows and
// rejections. Cursor, counters, staging, and writes commit in a single
// transaction: a failed chunk advances nothing and is safe to retry.
func ProcessChunk(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID, chunkSize int) (*model.ChunkResult, error) {
	start := time.Now()

	b, err := GetBatch(ctx, pool, batchID)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, fmt.Errorf("batch %s is %s; no further chunks", batchID, b.Status)
	}
	if b.AbortRequested {
		return nil, ErrBatchAborted
	}

	// The cursor only makes sense against the file the batch started with.
	sha, err := normalize.FileHash(b.FilePath)
	if err != nil {
		return nil, fmt.Errorf("chunk hash: %w", err)
	}
	if sha != b.FileSHA256 {
		return nil, fmt.Errorf("file %s changed since batch start (sha256 mismatch)", b.FilePath)
	}

	if b.NextStartRow >= b.TotalRows {
		return &model.ChunkResult{ProgressPercent: 100}, nil
	}

	reader, err := xlsxread.Open(b.FilePath)
	if err != nil {
		return nil, fmt.Errorf("chunk open: %w", err)
	}
	stagingRows, err := reader.ReadChunk(batchID, b.NextStartRow, int64(chunkSize))
	reader.Close()
	if err != nil {
		return nil, fmt.Errorf("chunk read: %w", err)
	}

	tables, err := mapping.Load(ctx, pool, b.SourceKind)
	if err != nil {
		return nil, err
	}

	res := rules.New().Apply(stagingRows, b.SourceKind, b.Period, tables)

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("chunk begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"ingest", "staging_rows"},
		model.StagingColumns(),
		db.NewStagingSource(stagingRows),
	); err != nil {
		return nil, fmt.Errorf("chunk stage copy: %w", err)
	}

	inserted, err := writeOutcomes(ctx, tx, b, res)
	if err != nil {
		return nil, err
	}

	newCursor := b.NextStartRow + int64(len(stagingRows))
	status := model.BatchStaging
	if newCursor >= b.TotalRows {
		status = model.BatchCommitting
	}
	if _, err := tx.Exec(ctx, embedsql.AdvanceCursor,
		batchID, newCursor, int64(len(stagingRows)),
		int64(len(res.Accepted)), int64(len(res.Rejected)), string(status),
	); err != nil {
		return nil, fmt.Errorf("advance cursor: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("chunk commit: %w", err)
	}

	result := &model.ChunkResult{
		Inserted:        inserted,
		Rejected:        int64(len(res.Rejected)),
		MappingsApplied: res.MappingsApplied,
		ProgressPercent: float64(newCursor) / float64(b.TotalRows) * 100,
	}
	if newCursor < b.TotalRows {
		result.NextStartRow = &newCursor
	}

	log.Info().
		Str("batch_id", batchID.String()).
		Int64("start_row", b.NextStartRow).
		Int("rows_read", len(stagingRows)).
		Int64("inserted", result.Inserted).
		Int64("rejected", result.Rejected).
		Float64("progress", result.ProgressPercent).
		Dur("duration", time.Since(start)).
		Msg("chunk processed")

	return result, nil
}

// writeOutcomes inserts accepted fact rows (idempotent on the lot key) and
// rejection records inside the chunk transaction.
func writeOutcomes(ctx context.Context, tx pgx.Tx, b *model.UploadBatch, res *rules.Result) (int64, error) {
	batch := &pgx.Batch{}
	for _, row := range res.Accepted {
		rec := row.Record(b.SourceKind, b.Period)
		batch.Queue(embedsql.InsertExamRecord,
			rec.BatchID, rec.LotKey, rec.RowNumber, rec.ChildOrdinal,
			string(rec.SourceKind), rec.PeriodYear, rec.PeriodMonth,
			rec.ClientRaw, rec.Client, rec.Patient, rec.StudyDescription,
			rec.Accession, rec.ModalityRaw, rec.Modality, rec.SpecialtyRaw,
			rec.Specialty, rec.PriorityRaw, rec.Priority, rec.Physician, rec.ValueCents,
			rec.PerformedAt, rec.ReportedAt, rec.Category, rec.BillingType,
		)
	}
	for _, rej := range res.Rejected {
		batch.Queue(embedsql.InsertRejectedRow,
			rej.BatchID, rej.RowNumber, rej.Reason, rej.Detail, rej.Payload,
		)
	}

	br := tx.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range res.Accepted {
		tag, err := br.Exec()
		if err != nil {
			return 0, fmt.Errorf("insert exam record: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	for range res.Rejected {
		if _, err := br.Exec(); err != nil {
			return 0, fmt.Errorf("insert rejected row: %w", err)
		}
	}
	return inserted, nil
}
