package rules

import (
	"strings"

	"github.com/dfarias/examload/internal/normalize"
)

// SpecialtyGeneral is the fallback specialty for rows nothing else matches.
const SpecialtyGeneral = "GERAL"

var specialtyByModality = map[string]string{
	ModalityCT: "TOMOGRAFIA",
	ModalityMR: "RESSONANCIA",
	ModalityUS: "ULTRASSONOGRAFIA",
	ModalityMG: "MAMOGRAFIA",
	ModalityDX: "RADIOLOGIA GERAL",
	ModalityNM: "MEDICINA NUCLEAR",
}

// Description keywords refine the modality-derived specialty. Entries are
// ordered longest keyword first, alphabetical within a length, and the
// first match wins, so "ANGIOTOMOGRAFIA" beats "TOMOGRAFIA" and a
// description containing two equal-length keywords always resolves the
// same way.
var specialtyKeywords = []struct {
	keyword   string
	specialty string
}{
	{"ANGIORESSONANCIA", "RESSONANCIA VASCULAR"},
	{"ANGIOTOMOGRAFIA", "TOMOGRAFIA VASCULAR"},
	{"DENSITOMETRIA", "DENSITOMETRIA"},
	{"TOMOSSINTESE", "MAMOGRAFIA"},
	{"MAMOGRAFIA", "MAMOGRAFIA"},
	{"BIOPSIA", "INTERVENCAO"},
	{"DOPPLER", "ULTRASSONOGRAFIA VASCULAR"},
	{"PUNCAO", "INTERVENCAO"},
}

// specialtyInference fills blank specialties: modality default first, then
// description keywords, then the generic fallback. Rows with a specialty
// already filled in by the operations team keep it (normalized).
type specialtyInference struct{}

func (specialtyInference) Name() string { return "specialty_inference" }

func (specialtyInference) Apply(row *Row, _ *Context) Outcome {
	if s := normalize.Key(row.SpecialtyRaw); s != "" {
		row.Specialty = s
		return Accept()
	}

	specialty := specialtyByModality[row.Modality]

	desc := normalize.Key(row.StudyDescription)
	for _, e := range specialtyKeywords {
		if strings.Contains(desc, e.keyword) {
			specialty = e.specialty
			break
		}
	}

	if specialty == "" {
		specialty = SpecialtyGeneral
	}
	row.Specialty = specialty
	return Accept()
}
