package xlsxread

import (
	"fmt"
	"strings"

	"github.com/dfarias/examload/internal/normalize"
)

// column describes one required spreadsheet column and the header labels
// the operations team's exporters use for it.
type column struct {
	name    string
	aliases []string
}

// The fixed input contract. Extra columns are ignored; a missing required
// column aborts ingestion before any staging write.
var requiredColumns = []column{
	{"client", []string{"CLIENTE", "CLIENT", "UNIDADE"}},
	{"patient", []string{"PACIENTE", "PATIENT"}},
	{"study_description", []string{"DESCRICAO", "DESCRICAO DO ESTUDO", "STUDY DESCRIPTION"}},
	{"accession", []string{"ACCESSION", "ACCESSION NUMBER"}},
	{"modality", []string{"MODALIDADE", "MODALITY"}},
	{"priority", []string{"PRIORIDADE", "PRIORITY"}},
	{"value", []string{"VALOR", "VALUE"}},
	{"specialty", []string{"ESPECIALIDADE", "SPECIALTY"}},
	{"physician", []string{"MEDICO", "PHYSICIAN", "RADIOLOGISTA"}},
	{"performed_date", []string{"DATA REALIZACAO", "DATA DO EXAME", "PERFORMED DATE"}},
	{"performed_time", []string{"HORA REALIZACAO", "PERFORMED TIME"}},
	{"report_date", []string{"DATA LAUDO", "REPORT DATE"}},
	{"report_time", []string{"HORA LAUDO", "REPORT TIME"}},
	{"due_date", []string{"PRAZO", "DATA LIMITE", "DUE DATE"}},
	{"status", []string{"STATUS", "SITUACAO"}},
}

// mapHeader resolves each required column to its index in the header row.
func mapHeader(header []string) (map[string]int, error) {
	byLabel := make(map[string]int, len(header))
	for i, cell := range header {
		byLabel[normalize.Key(cell)] = i
	}

	cols := make(map[string]int, len(requiredColumns))
	var missing []string
	for _, c := range requiredColumns {
		found := false
		for _, alias := range c.aliases {
			if idx, ok := byLabel[alias]; ok {
				cols[c.name] = idx
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, c.name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}
