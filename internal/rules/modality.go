package rules

import (
	"strings"

	"github.com/dfarias/examload/internal/normalize"
)

// Canonical modality codes used downstream.
const (
	ModalityCT = "CT"
	ModalityMR = "MR"
	ModalityDX = "DX"
	ModalityMG = "MG"
	ModalityUS = "US"
	ModalityNM = "NM"
)

// Deprecated or ambiguous codes still emitted by older RIS exports.
var modalityDePara = map[string]string{
	"CR":  ModalityDX,
	"DR":  ModalityDX,
	"RX":  ModalityDX,
	"TC":  ModalityCT,
	"RM":  ModalityMR,
	"USG": ModalityUS,
	"ECO": ModalityUS,
}

var mammographyKeywords = []string{"MAMOGRAF", "TOMOSSINTESE"}

func describesMammography(description string) bool {
	d := normalize.Key(description)
	for _, kw := range mammographyKeywords {
		if strings.Contains(d, kw) {
			return true
		}
	}
	return false
}

// modalityCorrection maps legacy modality codes to canonical ones. The one
// exception: exams whose description indicates mammography go to MG even
// when the legacy code would map to the generic radiography default.
type modalityCorrection struct{}

func (modalityCorrection) Name() string { return "modality_correction" }

func (modalityCorrection) Apply(row *Row, _ *Context) Outcome {
	m := normalize.Code(row.ModalityRaw)
	if canonical, ok := modalityDePara[m]; ok {
		m = canonical
	}
	if m == ModalityDX && describesMammography(row.StudyDescription) {
		m = ModalityMG
	}
	row.Modality = m
	return Accept()
}
