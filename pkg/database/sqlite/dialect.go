// Package sqlite registers the SQLite dialect (pure Go driver).
//
// Syntax validation prepends EXPLAIN, which compiles the statement into a
// program listing without running it.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/ruslano69/dataselector/pkg/database"
)

// AdapterType is the registered type name.
const AdapterType = "sqlite"

const driverSqlite = "sqlite"

// Compile-time check
var _ database.Dialect = Dialect{}

func init() {
	database.Register(AdapterType, Dialect{})
}

// Dialect implements database.Dialect for SQLite.
type Dialect struct{}

// DriverName implements database.Dialect.
func (Dialect) DriverName() string {
	return driverSqlite
}

// ColumnsQuery implements database.Dialect.
func (Dialect) ColumnsQuery() string {
	return "SELECT name FROM pragma_table_info(?) ORDER BY cid"
}

// ValidateStatement implements database.Dialect.
func (Dialect) ValidateStatement(ctx context.Context, conn *sql.Conn, statement string) error {
	rows, err := conn.QueryContext(ctx, "EXPLAIN "+statement)
	if err != nil {
		return fmt.Errorf("invalid SQL: %w", err)
	}
	return rows.Close()
}

// ProcedureStatement implements database.Dialect. SQLite has no stored procedures.
func (Dialect) ProcedureStatement(name string) (string, error) {
	return "", fmt.Errorf("%w: stored procedure %s", database.ErrUnsupported, name)
}
