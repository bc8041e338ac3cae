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

// ValidationReport is the Integrity Validator's verdict on one batch.
type ValidationReport struct {
	Ok           bool
	Score        int
	FailedChecks []string
}

// Validate runs the post-commit integrity checks against a batch: the
// committed row count must match the accepted counter, required derived
// fields must be populated, and the temporal windows must hold on what was
// actually committed (defense in depth against a rule bug). The score is
// the percentage of passing checks; below the threshold the batch is
// invalid and the caller is expected to roll it back.
func Validate(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID, threshold int) (*ValidationReport, error) {
	start := time.Now()

	b, err := GetBatch(ctx, pool, batchID)
	if err != nil {
		return nil, err
	}
	if err := UpdateStatus(ctx, pool, batchID, model.BatchValidating); err != nil {
		return nil, fmt.Errorf("validate status: %w", err)
	}

	var failed []string
	total := 0

	check := func(name string, fn func() (bool, error)) error {
		total++
		ok, err := fn()
		if err != nil {
			return fmt.Errorf("check %s: %w", name, err)
		}
		if !ok {
			failed = append(failed, name)
		}
		return nil
	}

	err = check("committed_count_matches_accepted", func() (bool, error) {
		var committed int64
		if err := pool.QueryRow(ctx, embedsql.CountCommitted, batchID).Scan(&committed); err != nil {
			return false, err
		}
		return committed == b.RowsAccepted, nil
	})
	if err != nil {
		return nil, err
	}

	err = check("required_derived_fields_present", func() (bool, error) {
		var missing int64
		if err := pool.QueryRow(ctx, embedsql.CountMissingRequired, batchID).Scan(&missing); err != nil {
			return false, err
		}
		return missing == 0, nil
	})
	if err != nil {
		return nil, err
	}

	err = check("temporal_window_conformity", func() (bool, error) {
		from, to := b.Period.ReportWindow()
		var violations int64
		if err := pool.QueryRow(ctx, embedsql.CountWindowViolations,
			batchID, from, to, b.SourceKind.Retroactive(), b.Period.Start(),
		).Scan(&violations); err != nil {
			return false, err
		}
		return violations == 0, nil
	})
	if err != nil {
		return nil, err
	}

	score := 100 * (total - len(failed)) / total
	report := &ValidationReport{
		Ok:           score >= threshold,
		Score:        score,
		FailedChecks: failed,
	}

	log.Info().
		Str("batch_id", batchID.String()).
		Int("score", report.Score).
		Strs("failed_checks", report.FailedChecks).
		Bool("ok", report.Ok).
		Dur("duration", time.Since(start)).
		Msg("integrity validation complete")

	return report, nil
}
