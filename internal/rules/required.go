package rules

import (
	"fmt"
	"strings"

	"github.com/dfarias/examload/internal/model"
)

// requiredFields rejects rows missing the fields billing cannot work
// without: client name, study description, and a parseable value.
type requiredFields struct{}

func (requiredFields) Name() string { return "required_fields" }

func (requiredFields) Apply(row *Row, _ *Context) Outcome {
	if strings.TrimSpace(row.ClientRaw) == "" {
		return Reject(model.ReasonSchemaInvalid, "client name is empty")
	}
	if strings.TrimSpace(row.StudyDescription) == "" {
		return Reject(model.ReasonSchemaInvalid, "study description is empty")
	}
	if strings.TrimSpace(row.ValueRaw) == "" {
		return Reject(model.ReasonSchemaInvalid, "exam value is empty")
	}
	if row.valueErr != nil {
		return Reject(model.ReasonSchemaInvalid,
			fmt.Sprintf("exam value %q is not a number", row.ValueRaw))
	}
	return Accept()
}
