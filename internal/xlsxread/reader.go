// Package xlsxread streams exam rows from the uploaded xlsx report. It
// validates the fixed column contract against the header row and exposes
// chunked reads keyed by data-row offset, which is what makes the batch
// coordinator's cursor resumable.
package xlsxread

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/dfarias/examload/internal/model"
)

// Reader reads staging rows from the first sheet of an xlsx file.
type Reader struct {
	file  *excelize.File
	sheet string
	cols  map[string]int
}

// Open opens the file and validates the header row against the required
// column contract.
func Open(path string) (*Reader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		f.Close()
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	sheet := sheets[0]

	it, err := f.Rows(sheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header: %w", err)
	}
	defer it.Close()

	if !it.Next() {
		f.Close()
		return nil, fmt.Errorf("xlsx sheet %q is empty", sheet)
	}
	header, err := it.Columns()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("read header row: %w", err)
	}

	cols, err := mapHeader(header)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &Reader{file: f, sheet: sheet, cols: cols}, nil
}

// RowCount returns the number of data rows (excluding the header).
func (r *Reader) RowCount() (int64, error) {
	it, err := r.file.Rows(r.sheet)
	if err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	defer it.Close()

	var n int64 = -1 // header
	for it.Next() {
		n++
	}
	if err := it.Error(); err != nil {
		return 0, fmt.Errorf("count rows: %w", err)
	}
	if n < 0 {
		n = 0
	}
	return n, nil
}

// ReadChunk reads up to size data rows starting at the zero-based offset
// start, tagging each with the batch id and its one-based source ordinal.
func (r *Reader) ReadChunk(batchID uuid.UUID, start, size int64) ([]*model.StagingRow, error) {
	it, err := r.file.Rows(r.sheet)
	if err != nil {
		return nil, fmt.Errorf("read chunk: %w", err)
	}
	defer it.Close()

	if !it.Next() {
		return nil, nil // no header, no data
	}
	for skipped := int64(0); skipped < start && it.Next(); skipped++ {
	}

	var rows []*model.StagingRow
	for int64(len(rows)) < size && it.Next() {
		cells, err := it.Columns()
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", start+int64(len(rows))+1, err)
		}
		rows = append(rows, r.toStagingRow(batchID, start+int64(len(rows))+1, cells))
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("read chunk at %d: %w", start, err)
	}
	return rows, nil
}

func (r *Reader) toStagingRow(batchID uuid.UUID, rowNumber int64, cells []string) *model.StagingRow {
	cell := func(name string) string {
		idx := r.cols[name]
		if idx >= len(cells) {
			return ""
		}
		return cells[idx]
	}
	return &model.StagingRow{
		BatchID:          batchID,
		RowNumber:        rowNumber,
		Client:           cell("client"),
		Patient:          cell("patient"),
		StudyDescription: cell("study_description"),
		Accession:        cell("accession"),
		Modality:         cell("modality"),
		Priority:         cell("priority"),
		Value:            cell("value"),
		Specialty:        cell("specialty"),
		Physician:        cell("physician"),
		PerformedDate:    cell("performed_date"),
		PerformedTime:    cell("performed_time"),
		ReportDate:       cell("report_date"),
		ReportTime:       cell("report_time"),
		DueDate:          cell("due_date"),
		ExamStatus:       cell("status"),
	}
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
