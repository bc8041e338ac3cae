package model

import "time"

// ChunkResult reports the outcome of one coordinator chunk call.
// NextStartRow is nil once every data row has been consumed.
type ChunkResult struct {
	Inserted        int64
	Rejected        int64
	MappingsApplied int64
	ProgressPercent float64
	NextStartRow    *int64
}

// BatchSummary captures metrics from a full batch run.
type BatchSummary struct {
	FilePath         string
	FileSHA256       string
	BatchID          string
	Chunks           int
	RowsRead         int64
	RowsAccepted     int64
	RowsRejected     int64
	ValidationScore  int
	RolledBack       bool
	DurationChunks   time.Duration
	DurationValidate time.Duration
	DurationTotal    time.Duration
}
