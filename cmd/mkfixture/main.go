// mkfixture writes a small synthetic exam volume spreadsheet that touches
// every rule path: modality de-para, mammography reroute, specialty
// inference, urgency and high-complexity grouping, out-of-window report
// dates, retroactive cutoff candidates, and rows with missing required
// fields. Dates are anchored on a --period so the same fixture works for
// any billing month.
// Usage: go run ./cmd/mkfixture --out testdata/volume-small.xlsx --period 2025-06
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dfarias/examload/internal/model"
)

var header = []string{
	"CLIENTE", "PACIENTE", "DESCRICAO", "ACCESSION", "MODALIDADE",
	"PRIORIDADE", "VALOR", "ESPECIALIDADE", "MEDICO",
	"DATA REALIZACAO", "HORA REALIZACAO", "DATA LAUDO", "HORA LAUDO",
	"PRAZO", "STATUS",
}

func main() {
	out := flag.String("out", "testdata/volume-small.xlsx", "output xlsx")
	periodArg := flag.String("period", "2025-06", "billing period (YYYY-MM) the dates are anchored on")
	flag.Parse()

	period, err := model.ParsePeriod(*periodArg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "period: %v\n", err)
		os.Exit(1)
	}

	from, to := period.ReportWindow()
	inWindow := from.AddDate(0, 0, 3).Format("02/01/2006")
	windowFrom := from.Format("02/01/2006")
	windowTo := to.Format("02/01/2006")
	beforeWindow := from.AddDate(0, 0, -1).Format("02/01/2006")
	afterWindow := to.AddDate(0, 0, 1).Format("02/01/2006")
	prevMonth := period.Start().AddDate(0, -1, 15).Format("02/01/2006")
	inMonth := period.Start().AddDate(0, 0, 9).Format("02/01/2006")

	rows := [][]interface{}{
		// Plain accepted row, CR → DX de-para.
		{"CLINICA NORTE", "P0001", "RAIO X TORAX PA", "ACC1001", "CR",
			"ROTINA", "45,00", "", "DR SILVA", prevMonth, "08:15", inWindow, "10:00", inWindow, "LAUDADO"},
		// TC → CT, drives high-complexity billing and the IMAGEM SUL group.
		{"CLINICA IMAGEM SUL", "P0002", "TC CRANIO SEM CONTRASTE", "ACC1002", "TC",
			"ROTINA", "320,00", "", "DR SOUZA", prevMonth, "09:30", inWindow, "14:00", inWindow, "LAUDADO"},
		// RM keeps MR, high complexity.
		{"CLINICA IMAGEM SUL", "P0003", "RM COLUNA LOMBAR", "ACC1003", "RM",
			"ROTINA", "580,00", "NEURO", "DR SOUZA", prevMonth, "11:00", inWindow, "16:30", inWindow, "LAUDADO"},
		// DX + mammography keyword reroutes to MG and the MAMA group.
		{"HOSPITAL SANTA CLARA", "P0004", "MAMOGRAFIA BILATERAL", "ACC1004", "DX",
			"ROTINA", "95,50", "", "DRA LIMA", prevMonth, "13:45", inWindow, "17:00", inWindow, "LAUDADO"},
		// Urgency priority sends SANTA CLARA to the PLANTAO group.
		{"HOSPITAL SANTA CLARA", "P0005", "RAIO X ABDOME AGUDO", "ACC1005", "RX",
			"URGENTE", "60,00", "", "DR SILVA", inMonth, "02:10", inWindow, "03:00", inWindow, "LAUDADO"},
		// Ultrasound de-para (USG → US) with explicit specialty kept.
		{"CLINICA NORTE", "P0006", "USG ABDOME TOTAL", "ACC1006", "USG",
			"ROTINA", "110,00", "GERAL", "DRA LIMA", prevMonth, "15:20", inWindow, "18:00", inWindow, "LAUDADO"},
		// Oncology keyword in the description, candidate for ONCO category.
		{"ONCO CENTRO", "P0007", "PET CT ONCOLOGICO", "ACC1007", "NM",
			"ROTINA", "1.250,00", "", "DR TAVARES", prevMonth, "10:00", inWindow, "12:00", inWindow, "LAUDADO"},
		// Report date on each inclusive window edge: both accepted.
		{"CLINICA NORTE", "P0008", "RAIO X JOELHO", "ACC1008", "CR",
			"ROTINA", "40,00", "", "DR SILVA", prevMonth, "09:00", windowFrom, "11:00", windowFrom, "LAUDADO"},
		{"CLINICA NORTE", "P0009", "RAIO X PUNHO", "ACC1009", "CR",
			"ROTINA", "40,00", "", "DR SILVA", prevMonth, "09:30", windowTo, "11:30", windowTo, "LAUDADO"},
		// Report date outside the window on both sides: rejected.
		{"CLINICA NORTE", "P0010", "RAIO X OMBRO", "ACC1010", "CR",
			"ROTINA", "40,00", "", "DR SILVA", prevMonth, "10:00", beforeWindow, "12:00", beforeWindow, "LAUDADO"},
		{"CLINICA NORTE", "P0011", "RAIO X PE", "ACC1011", "CR",
			"ROTINA", "40,00", "", "DR SILVA", prevMonth, "10:30", afterWindow, "12:30", afterWindow, "LAUDADO"},
		// Performed inside the billing month: rejected for retro kinds only.
		{"CLINICA NORTE", "P0012", "TC TORAX", "ACC1012", "TC",
			"ROTINA", "300,00", "", "DR SOUZA", inMonth, "08:00", inWindow, "10:00", inWindow, "LAUDADO"},
		// Missing client and missing value: schema rejections.
		{"", "P0013", "RAIO X TORAX", "ACC1013", "CR",
			"ROTINA", "45,00", "", "DR SILVA", prevMonth, "08:00", inWindow, "09:00", inWindow, "LAUDADO"},
		{"CLINICA NORTE", "P0014", "RAIO X TORAX", "ACC1014", "CR",
			"ROTINA", "", "", "DR SILVA", prevMonth, "08:00", inWindow, "09:00", inWindow, "LAUDADO"},
		// Unparseable value: schema rejection.
		{"CLINICA NORTE", "P0015", "RAIO X TORAX", "ACC1015", "CR",
			"ROTINA", "N/A", "", "DR SILVA", prevMonth, "08:00", inWindow, "09:00", inWindow, "LAUDADO"},
		// Quebra candidate when a split mapping for this description exists.
		{"CLINICA NORTE", "P0016", "ANGIOTOMOGRAFIA CORONARIAS", "ACC1016", "TC",
			"ROTINA", "900,00", "", "DR SOUZA", prevMonth, "07:45", inWindow, "13:00", inWindow, "LAUDADO"},
	}

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	headerRow := make([]interface{}, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &headerRow); err != nil {
		fmt.Fprintf(os.Stderr, "write header: %v\n", err)
		os.Exit(1)
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			fmt.Fprintf(os.Stderr, "write row %d: %v\n", i+2, err)
			os.Exit(1)
		}
	}

	if err := f.SaveAs(*out); err != nil {
		fmt.Fprintf(os.Stderr, "save: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Wrote %d data rows to %s (period %s, report window %s..%s)\n",
		len(rows), *out, period,
		from.Format(time.DateOnly), to.Format(time.DateOnly))
}
