package model

import (
	"time"

	"github.com/google/uuid"
)

// ExamRecord is one billing-ready fact row. Money is int64 cents.
// The lot key (sha256 over batch id, source row and child ordinal) is the
// idempotency and rollback key: inserts conflict on it, rollback deletes by
// batch id.
type ExamRecord struct {
	BatchID      uuid.UUID
	LotKey       []byte
	RowNumber    int64
	ChildOrdinal int
	SourceKind   SourceKind
	PeriodYear   int
	PeriodMonth  int

	ClientRaw        string
	Client           string
	Patient          string
	StudyDescription string
	Accession        string
	ModalityRaw      string
	Modality         string
	SpecialtyRaw     string
	Specialty        string
	PriorityRaw      string
	Priority         string
	Physician        string
	ValueCents       int64
	PerformedAt      *time.Time
	ReportedAt       *time.Time

	Category    string
	BillingType string
}

// Billing type tags, assigned first-match-wins by the classification rule.
const (
	BillingOncology       = "oncology"
	BillingUrgency        = "urgency"
	BillingHighComplexity = "high_complexity"
	BillingStandard       = "standard"
)
