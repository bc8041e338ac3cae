package rules

import (
	"strings"

	"github.com/dfarias/examload/internal/normalize"
)

// clientGroupRule fans one base client out into a billing sub-client when
// its predicate matches. Rules are ordered and mutually exclusive per base
// client: the first match wins, no match leaves the row on the base client.
type clientGroupRule struct {
	base   string
	target string
	match  func(row *Row) bool
}

// Grouping is computed fresh on every run from raw fields, so a corrective
// reprocess returns a row to the base client the moment it stops matching.
var clientGroups = []clientGroupRule{
	{
		base:   "HOSPITAL SANTA CLARA",
		target: "HOSPITAL SANTA CLARA - MAMA",
		match:  func(row *Row) bool { return row.Modality == ModalityMG },
	},
	{
		base:   "HOSPITAL SANTA CLARA",
		target: "HOSPITAL SANTA CLARA - PLANTAO",
		match: func(row *Row) bool {
			return strings.Contains(normalize.Key(row.PriorityRaw), "URG")
		},
	},
	{
		base:   "CLINICA IMAGEM SUL",
		target: "CLINICA IMAGEM SUL - ALTA COMPLEXIDADE",
		match: func(row *Row) bool {
			return row.Modality == ModalityCT || row.Modality == ModalityMR
		},
	},
}

// clientCanonicalization maps raw client names through the de-para table
// and then applies the group classification.
type clientCanonicalization struct{}

func (clientCanonicalization) Name() string { return "client_canonicalization" }

func (clientCanonicalization) Apply(row *Row, rc *Context) Outcome {
	client := normalize.Key(row.ClientRaw)
	if canonical, ok := rc.Tables.CanonicalClient(row.ClientRaw); ok {
		client = normalize.Key(canonical)
		rc.mappingsApplied++
	}

	// A mapped name may already be a sub-client; reduce to the base so the
	// predicates below are the only thing deciding the group.
	for _, g := range clientGroups {
		if client == g.target {
			client = g.base
			break
		}
	}

	for _, g := range clientGroups {
		if client == g.base && g.match(row) {
			client = g.target
			break
		}
	}

	row.Client = client
	return Accept()
}
