package xlsxread

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

var testHeader = []string{
	"CLIENTE", "PACIENTE", "DESCRICAO", "ACCESSION", "MODALIDADE",
	"PRIORIDADE", "VALOR", "ESPECIALIDADE", "MEDICO",
	"DATA REALIZACAO", "HORA REALIZACAO", "DATA LAUDO", "HORA LAUDO",
	"PRAZO", "STATUS",
}

func writeXLSX(t *testing.T, header []string, dataRows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "volume.xlsx")

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &row); err != nil {
		t.Fatal(err)
	}
	for i, data := range dataRows {
		cells := make([]interface{}, len(data))
		for j, c := range data {
			cells[j] = c
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
			t.Fatal(err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func dataRow(client, value string) []string {
	return []string{
		client, "P0001", "RAIO X TORAX", "ACC1", "CR",
		"ROTINA", value, "", "DR SILVA",
		"15/05/2025", "08:00", "10/06/2025", "12:00",
		"10/06/2025", "LAUDADO",
	}
}

func TestOpen_HeaderValidation(t *testing.T) {
	path := writeXLSX(t, testHeader, [][]string{dataRow("CLINICA NORTE", "45,00")})
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	r.Close()
}

func TestOpen_EnglishAliases(t *testing.T) {
	header := []string{
		"CLIENT", "PATIENT", "STUDY DESCRIPTION", "ACCESSION NUMBER", "MODALITY",
		"PRIORITY", "VALUE", "SPECIALTY", "PHYSICIAN",
		"PERFORMED DATE", "PERFORMED TIME", "REPORT DATE", "REPORT TIME",
		"DUE DATE", "STATUS",
	}
	path := writeXLSX(t, header, [][]string{dataRow("CLINICA NORTE", "45,00")})
	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open with english header: %v", err)
	}
	r.Close()
}

func TestOpen_MissingColumn(t *testing.T) {
	header := append([]string{}, testHeader...)
	header[6] = "PRECO" // not an alias for the value column
	path := writeXLSX(t, header, nil)

	if _, err := Open(path); err == nil {
		t.Fatal("expected error for missing value column")
	}
}

func TestOpen_EmptySheet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	f := excelize.NewFile()
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	// A brand new sheet has no header row content.
	if _, err := Open(path); err == nil {
		t.Fatal("expected error for sheet without the required columns")
	}
}

func TestRowCount(t *testing.T) {
	rows := [][]string{
		dataRow("A", "1,00"),
		dataRow("B", "2,00"),
		dataRow("C", "3,00"),
	}
	path := writeXLSX(t, testHeader, rows)
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	n, err := r.RowCount()
	if err != nil {
		t.Fatalf("RowCount: %v", err)
	}
	if n != 3 {
		t.Errorf("RowCount = %d, want 3", n)
	}
}

func TestReadChunk(t *testing.T) {
	rows := [][]string{
		dataRow("CLIENTE UM", "1,00"),
		dataRow("CLIENTE DOIS", "2,00"),
		dataRow("CLIENTE TRES", "3,00"),
		dataRow("CLIENTE QUATRO", "4,00"),
		dataRow("CLIENTE CINCO", "5,00"),
	}
	path := writeXLSX(t, testHeader, rows)
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	batchID := uuid.New()

	first, err := r.ReadChunk(batchID, 0, 2)
	if err != nil {
		t.Fatalf("ReadChunk(0, 2): %v", err)
	}
	if len(first) != 2 {
		t.Fatalf("first chunk: got %d rows", len(first))
	}
	if first[0].Client != "CLIENTE UM" || first[1].Client != "CLIENTE DOIS" {
		t.Errorf("first chunk clients: %s, %s", first[0].Client, first[1].Client)
	}
	if first[0].RowNumber != 1 || first[1].RowNumber != 2 {
		t.Errorf("first chunk row numbers: %d, %d", first[0].RowNumber, first[1].RowNumber)
	}
	if first[0].BatchID != batchID {
		t.Error("rows not tagged with the batch id")
	}

	second, err := r.ReadChunk(batchID, 2, 2)
	if err != nil {
		t.Fatalf("ReadChunk(2, 2): %v", err)
	}
	if len(second) != 2 || second[0].Client != "CLIENTE TRES" {
		t.Fatalf("second chunk: %d rows, first client %s", len(second), second[0].Client)
	}
	if second[0].RowNumber != 3 {
		t.Errorf("second chunk starts at row %d, want 3", second[0].RowNumber)
	}

	// Final partial chunk and reading past the end.
	last, err := r.ReadChunk(batchID, 4, 2)
	if err != nil {
		t.Fatalf("ReadChunk(4, 2): %v", err)
	}
	if len(last) != 1 || last[0].Client != "CLIENTE CINCO" {
		t.Fatalf("last chunk: %d rows", len(last))
	}
	past, err := r.ReadChunk(batchID, 5, 2)
	if err != nil {
		t.Fatalf("ReadChunk(5, 2): %v", err)
	}
	if len(past) != 0 {
		t.Errorf("chunk past the end: got %d rows", len(past))
	}
}

func TestReadChunk_FieldMapping(t *testing.T) {
	path := writeXLSX(t, testHeader, [][]string{dataRow("CLINICA NORTE", "45,00")})
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	rows, err := r.ReadChunk(uuid.New(), 0, 10)
	if err != nil || len(rows) != 1 {
		t.Fatalf("ReadChunk: %v, %d rows", err, len(rows))
	}
	got := rows[0]
	if got.Patient != "P0001" || got.StudyDescription != "RAIO X TORAX" ||
		got.Modality != "CR" || got.Value != "45,00" ||
		got.PerformedDate != "15/05/2025" || got.ReportDate != "10/06/2025" ||
		got.ExamStatus != "LAUDADO" {
		t.Errorf("field mapping mismatch: %+v", got)
	}
}

func TestReadChunk_ShortRows(t *testing.T) {
	// A trailing row with fewer cells than the header must read as empty
	// strings, not panic.
	rows := [][]string{
		{"CLINICA NORTE", "P0001", "RAIO X TORAX"},
	}
	path := writeXLSX(t, testHeader, rows)
	r, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	out, err := r.ReadChunk(uuid.New(), 0, 10)
	if err != nil || len(out) != 1 {
		t.Fatalf("ReadChunk: %v, %d rows", err, len(out))
	}
	if out[0].Value != "" || out[0].ExamStatus != "" {
		t.Errorf("short row should yield empty cells: %+v", out[0])
	}
}
