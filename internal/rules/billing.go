package rules

import (
	"strings"

	"github.com/dfarias/examload/internal/model"
	"github.com/dfarias/examload/internal/normalize"
)

// billingClassification assigns the billing-type tag, first match wins:
// oncology category, urgent priority, high-complexity modality, default.
type billingClassification struct{}

func (billingClassification) Name() string { return "billing_classification" }

func (billingClassification) Apply(row *Row, _ *Context) Outcome {
	switch {
	case strings.Contains(normalize.Key(row.Category), "ONCO"):
		row.BillingType = model.BillingOncology
	case strings.Contains(row.Priority, "URG"):
		row.BillingType = model.BillingUrgency
	case row.Modality == ModalityCT || row.Modality == ModalityMR:
		row.BillingType = model.BillingHighComplexity
	default:
		row.BillingType = model.BillingStandard
	}
	return Accept()
}
