// Package mysql registers the MySQL dialect.
package mysql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // MySQL driver

	"github.com/ruslano69/dataselector/pkg/database"
)

// AdapterType is the registered type name.
const AdapterType = "mysql"

// Compile-time check
var _ database.Dialect = Dialect{}

func init() {
	database.Register(AdapterType, Dialect{})
}

// Dialect implements database.Dialect for MySQL.
type Dialect struct{}

// DriverName implements database.Dialect.
func (Dialect) DriverName() string {
	return "mysql"
}

// ColumnsQuery implements database.Dialect.
func (Dialect) ColumnsQuery() string {
	return `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
}

// ValidateStatement implements database.Dialect.
func (Dialect) ValidateStatement(ctx context.Context, conn *sql.Conn, statement string) error {
	rows, err := conn.QueryContext(ctx, "EXPLAIN "+statement)
	if err != nil {
		return fmt.Errorf("invalid SQL: %w", err)
	}
	return rows.Close()
}

// ProcedureStatement implements database.Dialect.
func (Dialect) ProcedureStatement(name string) (string, error) {
	return "CALL " + name + "()", nil
}
