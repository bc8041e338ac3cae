package rules

// CategoryFallback is assigned when neither the exam registry nor the
// modality defaults know the exam.
const CategoryFallback = "NAO CLASSIFICADO"

var categoryByModality = map[string]string{
	ModalityCT: "TOMOGRAFIA",
	ModalityMR: "RESSONANCIA",
	ModalityMG: "MAMOGRAFIA",
	ModalityUS: "ULTRASSONOGRAFIA",
	ModalityDX: "RADIOGRAFIA",
	ModalityNM: "MEDICINA NUCLEAR",
}

// categoryAssignment resolves the billing category: exact study-description
// match in the exam registry, then a modality-based default, then the fixed
// fallback.
type categoryAssignment struct{}

func (categoryAssignment) Name() string { return "category_assignment" }

func (categoryAssignment) Apply(row *Row, rc *Context) Outcome {
	if category, ok := rc.Tables.Category(row.StudyDescription); ok {
		row.Category = category
		rc.mappingsApplied++
		return Accept()
	}
	if category, ok := categoryByModality[row.Modality]; ok {
		row.Category = category
		return Accept()
	}
	row.Category = CategoryFallback
	return Accept()
}
