// Package export writes batch rejection reports for operator review.
// The output format follows the file extension: .xlsx for spreadsheets
// handed back to billing operators, .parquet for archival.
package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	goparquet "github.com/parquet-go/parquet-go"
	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"

	embedsql "github.com/dfarias/examload/internal/sql"
)

// RejectionRow is one exported rejection. The payload columns carry the
// raw spreadsheet fields as they arrived, so the operator can fix the
// source file without consulting the database.
type RejectionRow struct {
	BatchID       string `parquet:"batch_id"`
	RowNumber     int64  `parquet:"row_number"`
	ReasonCode    string `parquet:"reason_code"`
	Detail        string `parquet:"detail"`
	Client        string `parquet:"client_name"`
	Patient       string `parquet:"patient_id"`
	Study         string `parquet:"study_description"`
	Accession     string `parquet:"accession_number"`
	ExamValue     string `parquet:"exam_value"`
	PerformedDate string `parquet:"performed_date"`
	ReportDate    string `parquet:"report_date"`
	RejectedAt    string `parquet:"rejected_at"`
}

var headerRow = []string{
	"batch_id", "row_number", "reason_code", "detail",
	"client_name", "patient_id", "study_description", "accession_number",
	"exam_value", "performed_date", "report_date", "rejected_at",
}

// Rejections exports every rejection of a batch to outPath.
func Rejections(ctx context.Context, pool *pgxpool.Pool, log zerolog.Logger, batchID uuid.UUID, outPath string) (int, error) {
	start := time.Now()

	rows, err := fetch(ctx, pool, batchID)
	if err != nil {
		return 0, err
	}

	switch ext := strings.ToLower(filepath.Ext(outPath)); ext {
	case ".xlsx":
		err = writeXLSX(rows, outPath)
	case ".parquet":
		err = writeParquet(rows, outPath)
	default:
		return 0, fmt.Errorf("unsupported export format %q (want .xlsx or .parquet)", ext)
	}
	if err != nil {
		return 0, err
	}

	log.Info().
		Str("batch_id", batchID.String()).
		Str("path", outPath).
		Int("rows", len(rows)).
		Dur("duration", time.Since(start)).
		Msg("rejections exported")

	return len(rows), nil
}

func fetch(ctx context.Context, pool *pgxpool.Pool, batchID uuid.UUID) ([]RejectionRow, error) {
	dbRows, err := pool.Query(ctx, embedsql.ExportRejections, batchID)
	if err != nil {
		return nil, fmt.Errorf("query rejections: %w", err)
	}
	defer dbRows.Close()

	var out []RejectionRow
	for dbRows.Next() {
		var (
			id        uuid.UUID
			rowNum    int64
			reason    string
			detail    string
			payload   map[string]string
			createdAt time.Time
		)
		if err := dbRows.Scan(&id, &rowNum, &reason, &detail, &payload, &createdAt); err != nil {
			return nil, fmt.Errorf("scan rejection: %w", err)
		}
		out = append(out, RejectionRow{
			BatchID:       id.String(),
			RowNumber:     rowNum,
			ReasonCode:    reason,
			Detail:        detail,
			Client:        payload["client"],
			Patient:       payload["patient"],
			Study:         payload["study_description"],
			Accession:     payload["accession"],
			ExamValue:     payload["value"],
			PerformedDate: payload["performed_date"],
			ReportDate:    payload["report_date"],
			RejectedAt:    createdAt.UTC().Format(time.RFC3339),
		})
	}
	if err := dbRows.Err(); err != nil {
		return nil, fmt.Errorf("read rejections: %w", err)
	}
	return out, nil
}

func writeXLSX(rows []RejectionRow, outPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	header := make([]interface{}, len(headerRow))
	for i, h := range headerRow {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		values := []interface{}{
			r.BatchID, r.RowNumber, r.ReasonCode, r.Detail,
			r.Client, r.Patient, r.Study, r.Accession,
			r.ExamValue, r.PerformedDate, r.ReportDate, r.RejectedAt,
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(outPath); err != nil {
		return fmt.Errorf("save %s: %w", outPath, err)
	}
	return nil
}

func writeParquet(rows []RejectionRow, outPath string) error {
	outFile, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", outPath, err)
	}
	defer outFile.Close()

	writer := goparquet.NewGenericWriter[RejectionRow](outFile)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return fmt.Errorf("write parquet: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("close parquet writer: %w", err)
	}
	return nil
}
