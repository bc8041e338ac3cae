package rules

import (
	"github.com/dfarias/examload/internal/mapping"
	"github.com/dfarias/examload/internal/model"
)

// Context carries the batch-scoped inputs shared by every rule: the source
// kind, the billing period, and the mapping-table snapshot.
type Context struct {
	Kind   model.SourceKind
	Period model.Period
	Tables *mapping.Tables

	mappingsApplied int64
}

type outcomeKind int

const (
	outcomeAccept outcomeKind = iota
	outcomeReject
	outcomeSplit
)

// Outcome is the result of one rule application: accept the (possibly
// mutated) row, reject it with a reason code, or replace it with children.
type Outcome struct {
	kind     outcomeKind
	Reason   string
	Detail   string
	Children []*Row
}

// Accept passes the row to the next rule.
func Accept() Outcome { return Outcome{kind: outcomeAccept} }

// Reject discards the row with a machine-readable reason code and detail.
func Reject(reason, detail string) Outcome {
	return Outcome{kind: outcomeReject, Reason: reason, Detail: detail}
}

// Split replaces the row with child rows that re-enter the pipeline from
// the first rule.
func Split(children []*Row) Outcome {
	return Outcome{kind: outcomeSplit, Children: children}
}

// Rule is one named step of the pipeline. Apply must be a pure function of
// the row and context: no I/O, no panics for data errors.
type Rule interface {
	Name() string
	Apply(row *Row, rc *Context) Outcome
}
