package rules

import (
	"github.com/dfarias/examload/internal/normalize"
)

// quebraSplit replaces a row whose study description has configured split
// targets with one child per target, dividing the value into cents that sum
// exactly to the original. Children re-enter the pipeline from the first
// rule and resolve their own category and specialty; a child never splits
// again.
type quebraSplit struct{}

func (quebraSplit) Name() string { return "quebra_split" }

func (quebraSplit) Apply(row *Row, rc *Context) Outcome {
	if row.fromSplit {
		return Accept()
	}
	targets, ok := rc.Tables.QuebraTargets(row.StudyDescription)
	if !ok {
		return Accept()
	}

	parts := normalize.SplitCents(row.ValueCents, len(targets))
	children := make([]*Row, len(targets))
	for i, target := range targets {
		children[i] = row.child(i+1, target, parts[i])
	}
	rc.mappingsApplied++
	return Split(children)
}
