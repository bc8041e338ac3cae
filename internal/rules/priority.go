package rules

import (
	"github.com/dfarias/examload/internal/normalize"
)

// priorityDePara replaces raw priority labels with canonical ones per the
// active mapping table. Unmapped labels pass through unchanged.
type priorityDePara struct{}

func (priorityDePara) Name() string { return "priority_depara" }

func (priorityDePara) Apply(row *Row, rc *Context) Outcome {
	if canonical, ok := rc.Tables.Priority(row.PriorityRaw); ok {
		row.Priority = normalize.Key(canonical)
		rc.mappingsApplied++
		return Accept()
	}
	row.Priority = normalize.Key(row.PriorityRaw)
	return Accept()
}
