package model

import (
	"github.com/google/uuid"
)

// StagingRow is the raw, untyped landing representation of one spreadsheet
// row. Fields keep the exact cell text; typing and normalization happen in
// the rule engine. Staging rows are ephemeral and cleared after commit.
type StagingRow struct {
	BatchID   uuid.UUID
	RowNumber int64

	Client           string
	Patient          string
	StudyDescription string
	Accession        string
	Modality         string
	Priority         string
	Value            string
	Specialty        string
	Physician        string
	PerformedDate    string
	PerformedTime    string
	ReportDate       string
	ReportTime       string
	DueDate          string
	ExamStatus       string
}

// StagingColumns returns the ordered column names for COPY into
// ingest.staging_rows.
func StagingColumns() []string {
	return []string{
		"batch_id",
		"row_number",
		"client_name",
		"patient_id",
		"study_description",
		"accession_number",
		"modality",
		"priority",
		"exam_value",
		"specialty",
		"physician",
		"performed_date",
		"performed_time",
		"report_date",
		"report_time",
		"due_date",
		"exam_status",
	}
}

// CopyValues returns the row values in the same order as StagingColumns(),
// suitable for pgx CopyFromSource.
func (r *StagingRow) CopyValues() []any {
	return []any{
		r.BatchID,
		r.RowNumber,
		r.Client,
		r.Patient,
		r.StudyDescription,
		r.Accession,
		r.Modality,
		r.Priority,
		r.Value,
		r.Specialty,
		r.Physician,
		r.PerformedDate,
		r.PerformedTime,
		r.ReportDate,
		r.ReportTime,
		r.DueDate,
		r.ExamStatus,
	}
}

// PayloadMap flattens the raw fields into a snapshot map for rejection
// records and audit exports.
func (r *StagingRow) PayloadMap() map[string]string {
	return map[string]string{
		"client":            r.Client,
		"patient":           r.Patient,
		"study_description": r.StudyDescription,
		"accession":         r.Accession,
		"modality":          r.Modality,
		"priority":          r.Priority,
		"value":             r.Value,
		"specialty":         r.Specialty,
		"physician":         r.Physician,
		"performed_date":    r.PerformedDate,
		"performed_time":    r.PerformedTime,
		"report_date":       r.ReportDate,
		"report_time":       r.ReportTime,
		"due_date":          r.DueDate,
		"exam_status":       r.ExamStatus,
	}
}
