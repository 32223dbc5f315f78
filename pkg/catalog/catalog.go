// Package catalog lists the tables and columns offered in the query editor.
package catalog

import (
	"context"
	"strings"

	"github.com/ruslano69/dataselector/pkg/database"
	"github.com/ruslano69/dataselector/pkg/namefilter"
)

// HiddenColumns are geometry and style columns never offered for selection.
var HiddenColumns = []string{"shape", "sp_geometry", "mi_style"}

// Catalog feeds the table and column pickers.
//
// Database failures are reported to OnError and surface as empty lists,
// so an empty result means "nothing available", not necessarily "nothing matched".
type Catalog struct {
	db database.Database

	// OnError receives failures swallowed by the list methods. May be nil.
	OnError func(op string, err error)
}

// New creates a catalog over db. A nil db yields empty lists.
func New(db database.Database) *Catalog {
	return &Catalog{db: db}
}

// ListTables reads object names from objectsTable and applies the include and
// exclude wildcard patterns for schema. Never returns nil.
func (c *Catalog) ListTables(ctx context.Context, objectsTable, include, exclude, schema string) []string {
	if c == nil || c.db == nil {
		return []string{}
	}

	names, err := c.db.ListTableNames(ctx, objectsTable)
	if err != nil {
		c.report("list_tables", err)
		return []string{}
	}

	return namefilter.FilterNames(names, include, exclude, schema)
}

// ListColumns returns the selectable columns of table in database order.
// Never returns nil.
func (c *Catalog) ListColumns(ctx context.Context, table string) []string {
	if c == nil || c.db == nil || strings.TrimSpace(table) == "" {
		return []string{}
	}

	columns, err := c.db.ListColumns(ctx, table)
	if err != nil {
		c.report("list_columns", err)
		return []string{}
	}

	result := make([]string, 0, len(columns))
	for _, col := range columns {
		if !IsHidden(col) {
			result = append(result, col)
		}
	}
	return result
}

// IsHidden reports whether column is one of HiddenColumns, ignoring case.
func IsHidden(column string) bool {
	for _, h := range HiddenColumns {
		if strings.EqualFold(column, h) {
			return true
		}
	}
	return false
}

// JoinColumns renders columns for the Fields box: one per line when vertical.
func JoinColumns(columns []string, vertical bool) string {
	if vertical {
		return strings.Join(columns, ",\n")
	}
	return strings.Join(columns, ", ")
}

func (c *Catalog) report(op string, err error) {
	if c.OnError != nil {
		c.OnError(op, err)
	}
}
