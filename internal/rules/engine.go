// Package rules implements the ordered business-rule pipeline that turns
// raw staged exam rows into billing-ready fact rows. The order of the rules
// is a correctness contract: category assignment must precede quebra
// splitting, and the temporal filters must see the final client and
// priority values.
package rules

import (
	"time"

	"github.com/dfarias/examload/internal/mapping"
	"github.com/dfarias/examload/internal/model"
)

// Engine runs rows through a fixed, ordered rule list.
type Engine struct {
	rules []Rule
}

// New returns the full ingest pipeline in its contractual order.
func New() *Engine {
	return &Engine{rules: []Rule{
		requiredFields{},
		modalityCorrection{},
		specialtyInference{},
		clientCanonicalization{},
		priorityDePara{},
		categoryAssignment{},
		temporalExclusion{},
		quebraSplit{},
		billingClassification{},
	}}
}

// NewReapply returns the corrective subset used to recompute derived fields
// on already-committed records. It carries no filters and no splitting:
// reprocessing reclassifies rows, it never removes or multiplies them.
func NewReapply() *Engine {
	return &Engine{rules: []Rule{
		modalityCorrection{},
		specialtyInference{},
		clientCanonicalization{},
		priorityDePara{},
		categoryAssignment{},
		billingClassification{},
	}}
}

// RuleNames returns the rule names in execution order.
func (e *Engine) RuleNames() []string {
	names := make([]string, len(e.rules))
	for i, r := range e.rules {
		names[i] = r.Name()
	}
	return names
}

// Result is the outcome of applying the pipeline to a set of rows.
type Result struct {
	Accepted        []*Row
	Rejected        []model.RejectedRow
	MappingsApplied int64
}

// Apply runs every staging row through the pipeline. Rows are never
// silently dropped: each input row ends up in Accepted (possibly as
// several split children) or in Rejected with a reason code.
func (e *Engine) Apply(rows []*model.StagingRow, kind model.SourceKind, period model.Period, tables *mapping.Tables) *Result {
	rc := &Context{Kind: kind, Period: period, Tables: tables}
	res := &Result{}
	for _, s := range rows {
		e.run(FromStaging(s), rc, res)
	}
	res.MappingsApplied = rc.mappingsApplied
	return res
}

// ApplyRows runs pre-built working rows through the pipeline; used by the
// corrective reapply path.
func (e *Engine) ApplyRows(rows []*Row, kind model.SourceKind, period model.Period, tables *mapping.Tables) *Result {
	rc := &Context{Kind: kind, Period: period, Tables: tables}
	res := &Result{}
	for _, r := range rows {
		e.run(r, rc, res)
	}
	res.MappingsApplied = rc.mappingsApplied
	return res
}

func (e *Engine) run(row *Row, rc *Context, res *Result) {
	for _, rule := range e.rules {
		oc := rule.Apply(row, rc)
		switch oc.kind {
		case outcomeReject:
			res.Rejected = append(res.Rejected, model.RejectedRow{
				BatchID:   row.BatchID,
				RowNumber: row.RowNumber,
				Reason:    oc.Reason,
				Detail:    oc.Detail,
				Payload:   row.payload,
				CreatedAt: time.Now().UTC(),
			})
			return
		case outcomeSplit:
			for _, child := range oc.Children {
				e.run(child, rc, res)
			}
			return
		}
	}
	res.Accepted = append(res.Accepted, row)
}
