package rules

import (
	"time"

	"github.com/google/uuid"

	"github.com/dfarias/examload/internal/model"
	"github.com/dfarias/examload/internal/normalize"
)

// Row is the rule engine's working representation of one exam. Raw fields
// are immutable inputs; derived fields are recomputed from raw fields by
// every rule pass, which is what makes the pipeline idempotent: a row's
// classification is computed, never migrated.
type Row struct {
	BatchID      uuid.UUID
	RowNumber    int64
	ChildOrdinal int

	// Raw inputs from the spreadsheet.
	ClientRaw        string
	Patient          string
	StudyDescription string
	Accession        string
	ModalityRaw      string
	SpecialtyRaw     string
	PriorityRaw      string
	Physician        string
	ValueRaw         string
	PerformedAt      *time.Time
	ReportedAt       *time.Time

	// Derived by the rule pipeline.
	Client      string
	Modality    string
	Specialty   string
	Priority    string
	ValueCents  int64
	Category    string
	BillingType string

	valueErr  error
	fromSplit bool
	payload   map[string]string
}

// FromStaging converts a raw staging row into a working row, parsing the
// value and date cells. Parse failures are carried on the row and surfaced
// by the required-field rule rather than thrown.
func FromStaging(s *model.StagingRow) *Row {
	r := &Row{
		BatchID:          s.BatchID,
		RowNumber:        s.RowNumber,
		ClientRaw:        s.Client,
		Patient:          s.Patient,
		StudyDescription: s.StudyDescription,
		Accession:        s.Accession,
		ModalityRaw:      s.Modality,
		SpecialtyRaw:     s.Specialty,
		PriorityRaw:      s.Priority,
		Physician:        s.Physician,
		ValueRaw:         s.Value,
		PerformedAt:      normalize.ParseDate(s.PerformedDate),
		ReportedAt:       normalize.ParseDate(s.ReportDate),
		payload:          s.PayloadMap(),
	}
	if s.Value != "" {
		r.ValueCents, r.valueErr = normalize.ParseCents(s.Value)
	}
	return r
}

// FromRecord rebuilds a working row from a committed fact record so the
// corrective reapply pipeline can recompute its derived fields from the
// preserved raw inputs.
func FromRecord(rec *model.ExamRecord) *Row {
	return &Row{
		BatchID:          rec.BatchID,
		RowNumber:        rec.RowNumber,
		ChildOrdinal:     rec.ChildOrdinal,
		ClientRaw:        rec.ClientRaw,
		Patient:          rec.Patient,
		StudyDescription: rec.StudyDescription,
		Accession:        rec.Accession,
		ModalityRaw:      rec.ModalityRaw,
		SpecialtyRaw:     rec.SpecialtyRaw,
		PriorityRaw:      rec.PriorityRaw,
		Physician:        rec.Physician,
		ValueRaw:         normalize.FormatCents(rec.ValueCents),
		ValueCents:       rec.ValueCents,
		PerformedAt:      rec.PerformedAt,
		ReportedAt:       rec.ReportedAt,
		fromSplit:        rec.ChildOrdinal > 0,
	}
}

// child clones the row for a quebra split, resetting every derived field so
// the child resolves its own classification on re-entry.
func (r *Row) child(ordinal int, description string, valueCents int64) *Row {
	c := *r
	c.ChildOrdinal = ordinal
	c.StudyDescription = description
	c.ValueRaw = normalize.FormatCents(valueCents)
	c.ValueCents = valueCents
	c.valueErr = nil
	c.Client = ""
	c.Modality = ""
	c.Specialty = ""
	c.Priority = ""
	c.Category = ""
	c.BillingType = ""
	c.fromSplit = true
	return &c
}

// Record materializes the fully-ruled row as a fact record for the given
// batch scope.
func (r *Row) Record(kind model.SourceKind, period model.Period) model.ExamRecord {
	return model.ExamRecord{
		BatchID:          r.BatchID,
		LotKey:           normalize.LotKey(r.BatchID, r.RowNumber, r.ChildOrdinal),
		RowNumber:        r.RowNumber,
		ChildOrdinal:     r.ChildOrdinal,
		SourceKind:       kind,
		PeriodYear:       period.Year,
		PeriodMonth:      int(period.Month),
		ClientRaw:        r.ClientRaw,
		Client:           r.Client,
		Patient:          r.Patient,
		StudyDescription: r.StudyDescription,
		Accession:        r.Accession,
		ModalityRaw:      r.ModalityRaw,
		Modality:         r.Modality,
		SpecialtyRaw:     r.SpecialtyRaw,
		Specialty:        r.Specialty,
		PriorityRaw:      r.PriorityRaw,
		Priority:         r.Priority,
		Physician:        r.Physician,
		ValueCents:       r.ValueCents,
		PerformedAt:      r.PerformedAt,
		ReportedAt:       r.ReportedAt,
		Category:         r.Category,
		BillingType:      r.BillingType,
	}
}
