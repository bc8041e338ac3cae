package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/dfarias/examload/internal/model"
	embedsql "github.com/dfarias/examload/internal/sql"
)

// Rollback removes every fact row tagged with the batch id, restoring the
// authoritative table to its pre-upload state. Deleting by batch tag is the
// only sanctioned bulk-delete path and is idempotent, so it is safe after a
// partial commit. Rejection records survive: the audit trail outlives the
// data it explains.
func Rollback(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID, reason string) (int64, error) {
	start := time.Now()

	tag, err := pool.Exec(ctx, embedsql.DeleteBatchRecords, batchID)
	if err != nil {
		return 0, fmt.Errorf("rollback delete: %w", err)
	}

	if err := SetFailure(ctx, pool, batchID, model.BatchRolledBack, reason); err != nil {
		return 0, fmt.Errorf("rollback status: %w", err)
	}

	log.Info().
		Str("batch_id", batchID.String()).
		Int64("rows_removed", tag.RowsAffected()).
		Str("reason", reason).
		Dur("duration", time.Since(start)).
		Msg("batch rolled back")

	return tag.RowsAffected(), nil
}
