// Package query holds the parts of a query being authored and renders them to SQL.
//
// The builder is a plain string template: identifiers and predicates are
// inserted as typed, without quoting or validation. Callers own the safety
// of the resulting statement.
package query

import (
	"errors"
	"strings"
)

// PlaceholderTable is the table picker prompt. It never counts as a table.
const PlaceholderTable = "Select a table"

// ErrNoTable is returned when a spec has no source table selected.
var ErrNoTable = errors.New("no table selected")

// Spec is the in-memory form of a query. Text fields keep their internal newlines.
type Spec struct {
	// Fields is the raw column-list text; empty renders as *.
	Fields string
	// Table is the source table; empty or PlaceholderTable means none.
	Table   string
	Where   string
	GroupBy string
	OrderBy string
	Format  Format
	// DisplayName is the basename used as the default file name on the next save.
	DisplayName string
}

// SourceTable returns the selected table, or "" when none is selected.
func (s Spec) SourceTable() string {
	t := strings.TrimSpace(s.Table)
	if t == PlaceholderTable {
		return ""
	}
	return t
}

// HasTable reports whether a real table is selected.
func (s Spec) HasTable() bool {
	return s.SourceTable() != ""
}

// Columns splits Fields on commas and returns the trimmed non-empty entries.
// Returns nil when Fields is blank (SELECT *).
func (s Spec) Columns() []string {
	if strings.TrimSpace(s.Fields) == "" {
		return nil
	}
	var cols []string
	for _, c := range strings.Split(s.Fields, ",") {
		if c = strings.TrimSpace(c); c != "" {
			cols = append(cols, c)
		}
	}
	return cols
}

// IsEmpty reports whether no part of the query has been entered.
func (s Spec) IsEmpty() bool {
	return strings.TrimSpace(s.Fields) == "" &&
		!s.HasTable() &&
		strings.TrimSpace(s.Where) == "" &&
		strings.TrimSpace(s.GroupBy) == "" &&
		strings.TrimSpace(s.OrderBy) == ""
}

// Validate checks that the spec can be turned into an executable statement.
func (s Spec) Validate() error {
	if !s.HasTable() {
		return ErrNoTable
	}
	return nil
}

// ToSQL renders the spec as one SELECT statement:
//
//	SELECT <fields-or-*> FROM <table> [WHERE ...] [GROUP BY ...] [ORDER BY ...]
//
// Optional clauses are appended only when their trimmed text is non-empty.
// Without a table the FROM clause is left out.
func (s Spec) ToSQL() string {
	fields := strings.TrimSpace(s.Fields)
	if fields == "" {
		fields = "*"
	}

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(fields)

	if table := s.SourceTable(); table != "" {
		b.WriteString(" FROM ")
		b.WriteString(table)
	}

	appendClause(&b, "WHERE", s.Where)
	appendClause(&b, "GROUP BY", s.GroupBy)
	appendClause(&b, "ORDER BY", s.OrderBy)

	return b.String()
}

func appendClause(b *strings.Builder, keyword, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.WriteByte(' ')
	b.WriteString(keyword)
	b.WriteByte(' ')
	b.WriteString(text)
}
