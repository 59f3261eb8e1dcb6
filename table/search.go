package table

import (
	"strings"

	"golang.org/x/text/cases"
)

// containsFold returns a matcher for case-insensitive containment of needle.
// The matcher holds its own caser and is not safe for concurrent use.
func containsFold(needle string) func(string) bool {
	caser := cases.Fold()
	folded := caser.String(needle)
	return func(s string) bool {
		return strings.Contains(caser.String(s), folded)
	}
}

// Search keeps rows where any cell contains query, ignoring case.
// An empty query keeps every row.
func (t *Table) Search(query string) *Table {
	if query == "" {
		return t.Where(func(int) bool { return true })
	}

	match := containsFold(query)
	return t.Where(func(row int) bool {
		for _, col := range t.cols {
			if match(col.String(row)) {
				return true
			}
		}
		return false
	})
}

// Query is one search and filter interaction.
type Query struct {
	Search  string
	Filters Spec
}

// IsEmpty reports whether the query narrows nothing.
func (q Query) IsEmpty() bool {
	return q.Search == "" && len(q.Filters) == 0
}

// Apply runs the search, then the filters on its result.
func (t *Table) Apply(q Query) (*Table, error) {
	return t.Search(q.Search).Filter(q.Filters)
}
