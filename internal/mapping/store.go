// Package mapping loads the data-driven de-para tables consumed by the rule
// engine: client canonicalization, priority mapping, the exam category
// registry, and quebra (exam splitting) targets. The tables are reference
// data edited out-of-band by operators and are read-only to the pipeline.
package mapping

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dfarias/examload/internal/model"
	"github.com/dfarias/examload/internal/normalize"
)

// Mapping table kinds as stored in ref.mapping_entries.kind.
const (
	KindClientDePara   = "client_depara"
	KindPriorityDePara = "priority_depara"
	KindCategory       = "category"
	KindQuebra         = "quebra"
)

// Querier is the subset of pgx used by Load; satisfied by pools and
// transactions alike.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Tables is an in-memory snapshot of the active mapping entries for one
// source kind. Lookups are keyed on normalize.Key of the source value.
type Tables struct {
	clients    map[string]string
	priorities map[string]string
	categories map[string]string
	quebra     map[string][]string
}

// NewTables builds a snapshot from literal maps; used by tests and by
// callers that already hold the entries.
func NewTables(clients, priorities, categories map[string]string, quebra map[string][]string) *Tables {
	t := emptyTables()
	for k, v := range clients {
		t.clients[normalize.Key(k)] = v
	}
	for k, v := range priorities {
		t.priorities[normalize.Key(k)] = v
	}
	for k, v := range categories {
		t.categories[normalize.Key(k)] = v
	}
	for k, v := range quebra {
		t.quebra[normalize.Key(k)] = v
	}
	return t
}

func emptyTables() *Tables {
	return &Tables{
		clients:    make(map[string]string),
		priorities: make(map[string]string),
		categories: make(map[string]string),
		quebra:     make(map[string][]string),
	}
}

// Load reads every active mapping entry scoped to the given source kind
// (entries with an empty scope apply to all kinds). Quebra targets keep
// their configured ordinal order.
func Load(ctx context.Context, q Querier, kind model.SourceKind) (*Tables, error) {
	rows, err := q.Query(ctx, `
		SELECT kind, source_value, target_value
		FROM ref.mapping_entries
		WHERE active AND (scope = '' OR scope = $1)
		ORDER BY kind, source_value, ordinal`,
		string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("load mapping entries: %w", err)
	}
	defer rows.Close()

	t := emptyTables()
	for rows.Next() {
		var entryKind, source, target string
		if err := rows.Scan(&entryKind, &source, &target); err != nil {
			return nil, fmt.Errorf("scan mapping entry: %w", err)
		}
		key := normalize.Key(source)
		switch entryKind {
		case KindClientDePara:
			t.clients[key] = target
		case KindPriorityDePara:
			t.priorities[key] = target
		case KindCategory:
			t.categories[key] = target
		case KindQuebra:
			t.quebra[key] = append(t.quebra[key], target)
		default:
			return nil, fmt.Errorf("unknown mapping kind %q", entryKind)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read mapping entries: %w", err)
	}
	return t, nil
}

// CanonicalClient resolves a raw client name through the client de-para.
func (t *Tables) CanonicalClient(raw string) (string, bool) {
	v, ok := t.clients[normalize.Key(raw)]
	return v, ok
}

// Priority resolves a raw priority label through the priority de-para.
func (t *Tables) Priority(raw string) (string, bool) {
	v, ok := t.priorities[normalize.Key(raw)]
	return v, ok
}

// Category looks up the category registered for an exact study description.
func (t *Tables) Category(description string) (string, bool) {
	v, ok := t.categories[normalize.Key(description)]
	return v, ok
}

// QuebraTargets returns the configured child descriptions for a study
// description, or ok=false when the description is not split.
func (t *Tables) QuebraTargets(description string) ([]string, bool) {
	v, ok := t.quebra[normalize.Key(description)]
	return v, ok && len(v) > 0
}
