package model

import (
	"time"

	"github.com/google/uuid"
)

// Rejection reason codes. Every discarded row carries exactly one of these;
// a rejection without a reason code is a pipeline defect.
const (
	ReasonSchemaInvalid         = "SCHEMA_INVALID"
	ReasonReportDateOutOfWindow = "REPORT_DATE_OUT_OF_WINDOW"
	ReasonPerformedDateTooLate  = "PERFORMED_DATE_TOO_LATE"
)

// RejectedRow is the append-only audit record for a row discarded by the
// rule engine. The raw payload is snapshotted so every exclusion is
// explainable from stored data alone.
type RejectedRow struct {
	BatchID   uuid.UUID
	RowNumber int64
	Reason    string
	Detail    string
	Payload   map[string]string
	CreatedAt time.Time
}
