package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dfarias/examload/internal/mapping"
	"github.com/dfarias/examload/internal/model"
	"github.com/dfarias/examload/internal/normalize"
	"github.com/dfarias/examload/internal/rules"
	embedsql "github.com/dfarias/examload/internal/sql"
)

// ReapplyResult reports a corrective rule re-application.
type ReapplyResult struct {
	PseudoBatchID uuid.UUID
	RowsScanned   int64
	RowsUpdated   int64
}

// Reapply recomputes the derived fields of every committed record in the
// given kind + period scope, using the current mapping tables. The run is
// recorded as a pseudo-batch for audit. Classification is computed fresh
// from the preserved raw fields, so a row whose grouping predicate no
// longer matches returns to its base client; nothing is deleted, split, or
// re-filtered here.
func Reapply(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, kind model.SourceKind, period model.Period) (*ReapplyResult, error) {
	start := time.Now()

	pseudoID := uuid.New()
	// The pseudo-batch reuses the upload ledger; the synthetic sha keeps
	// the file uniqueness index out of the way.
	if _, err := pool.Exec(ctx, embedsql.RegisterBatch,
		pseudoID, string(kind), period.Year, int(period.Month),
		"reapply", "reapply-"+pseudoID.String(), 0,
	); err != nil {
		return nil, fmt.Errorf("register reapply batch: %w", err)
	}

	tables, err := mapping.Load(ctx, pool, kind)
	if err != nil {
		return nil, err
	}

	records, err := scanRecords(ctx, pool, kind, period)
	if err != nil {
		return nil, err
	}

	workRows := make([]*rules.Row, len(records))
	for i := range records {
		workRows[i] = rules.FromRecord(&records[i])
	}
	res := rules.NewReapply().ApplyRows(workRows, kind, period, tables)

	batch := &pgx.Batch{}
	for _, row := range res.Accepted {
		batch.Queue(embedsql.UpdateRecordDerived,
			normalize.LotKey(row.BatchID, row.RowNumber, row.ChildOrdinal),
			row.Client, row.Modality, row.Specialty,
			row.Priority, row.Category, row.BillingType,
		)
	}

	br := pool.SendBatch(ctx, batch)
	var updated int64
	for range res.Accepted {
		tag, err := br.Exec()
		if err != nil {
			br.Close()
			return nil, fmt.Errorf("update record: %w", err)
		}
		updated += tag.RowsAffected()
	}
	if err := br.Close(); err != nil {
		return nil, fmt.Errorf("reapply batch close: %w", err)
	}

	if _, err := pool.Exec(ctx,
		`UPDATE ingest.upload_batches
		 SET status = 'committed', rows_read = $2, rows_accepted = $3, updated_at = now()
		 WHERE batch_id = $1`,
		pseudoID, int64(len(records)), updated,
	); err != nil {
		return nil, fmt.Errorf("finalize reapply batch: %w", err)
	}

	log.Info().
		Str("pseudo_batch_id", pseudoID.String()).
		Str("kind", string(kind)).
		Str("period", period.String()).
		Int("rows_scanned", len(records)).
		Int64("rows_updated", updated).
		Dur("duration", time.Since(start)).
		Msg("rules reapplied")

	return &ReapplyResult{
		PseudoBatchID: pseudoID,
		RowsScanned:   int64(len(records)),
		RowsUpdated:   updated,
	}, nil
}

func scanRecords(ctx context.Context, pool *pgxpool.Pool, kind model.SourceKind, period model.Period) ([]model.ExamRecord, error) {
	rows, err := pool.Query(ctx, embedsql.SelectRecordsForReapply,
		string(kind), period.Year, int(period.Month))
	if err != nil {
		return nil, fmt.Errorf("select records for reapply: %w", err)
	}
	defer rows.Close()

	var records []model.ExamRecord
	for rows.Next() {
		var rec model.ExamRecord
		if err := rows.Scan(
			&rec.BatchID, &rec.LotKey, &rec.RowNumber, &rec.ChildOrdinal,
			&rec.ClientRaw, &rec.Client, &rec.Patient, &rec.StudyDescription,
			&rec.Accession, &rec.ModalityRaw, &rec.Modality, &rec.SpecialtyRaw,
			&rec.Specialty, &rec.PriorityRaw, &rec.Priority, &rec.Physician, &rec.ValueCents,
			&rec.PerformedAt, &rec.ReportedAt, &rec.Category, &rec.BillingType,
		); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.SourceKind = kind
		rec.PeriodYear = period.Year
		rec.PeriodMonth = int(period.Month)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	return records, nil
}
