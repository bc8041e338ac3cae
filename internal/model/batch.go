package model

import (
	"time"

	"github.com/google/uuid"
)

// BatchStatus tracks an upload batch through the pipeline.
type BatchStatus string

const (
	BatchPending    BatchStatus = "pending"
	BatchStaging    BatchStatus = "staging"
	BatchCommitting BatchStatus = "committing"
	BatchValidating BatchStatus = "validating"
	BatchCommitted  BatchStatus = "committed"
	BatchRolledBack BatchStatus = "rolled_back"
	BatchFailed     BatchStatus = "failed"
)

// Terminal reports whether no further chunk processing is allowed.
func (s BatchStatus) Terminal() bool {
	return s == BatchCommitted || s == BatchRolledBack || s == BatchFailed
}

// UploadBatch is the durable record of one upload run. Batches are never
// deleted; they are the audit anchor for fact rows and rejections.
type UploadBatch struct {
	ID           uuid.UUID
	SourceKind   SourceKind
	Period       Period
	FilePath     string
	FileSHA256   string
	Status       BatchStatus
	RowsRead     int64
	RowsAccepted int64
	RowsRejected int64
	// NextStartRow is the resumable cursor: the zero-based data-row index
	// the next chunk starts at. Advanced only after a chunk commits.
	NextStartRow   int64
	TotalRows      int64
	AbortRequested bool
	FailureReason  *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
