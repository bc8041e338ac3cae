package db

import (
	"github.com/jackc/pgx/v5"

	"github.com/dfarias/examload/internal/model"
)

// StagingSource implements pgx.CopyFromSource over a slice of staging rows,
// for COPY-loading one chunk into ingest.staging_rows.
type StagingSource struct {
	rows []*model.StagingRow
	idx  int
}

// NewStagingSource creates a CopyFromSource over the given rows.
func NewStagingSource(rows []*model.StagingRow) *StagingSource {
	return &StagingSource{rows: rows, idx: -1}
}

// Next advances to the next row.
func (s *StagingSource) Next() bool {
	s.idx++
	return s.idx < len(s.rows)
}

// Values returns the current row's values in COPY column order.
func (s *StagingSource) Values() ([]any, error) {
	return s.rows[s.idx].CopyValues(), nil
}

// Err returns any error encountered during iteration.
func (s *StagingSource) Err() error {
	return nil
}

// Compile-time check that StagingSource satisfies the interface.
var _ pgx.CopyFromSource = (*StagingSource)(nil)
