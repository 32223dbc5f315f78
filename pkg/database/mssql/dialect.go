// Package mssql registers the Microsoft SQL Server dialect.
//
// Syntax validation uses SET NOEXEC ON, which makes the server parse and
// compile the batch without running it.
package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/denisenkom/go-mssqldb" // MS SQL Server driver

	"github.com/ruslano69/dataselector/pkg/database"
)

// AdapterType is the registered type name.
const AdapterType = "mssql"

// Compile-time check
var _ database.Dialect = Dialect{}

func init() {
	database.Register(AdapterType, NewDialect("mssql"))
	database.Register("sqlserver", NewDialect("mssql"))
}

// Dialect implements database.Dialect with T-SQL statements.
// It is shared by every driver that talks to SQL Server.
type Dialect struct {
	driver string
}

// NewDialect returns a T-SQL dialect bound to a database/sql driver name.
func NewDialect(driver string) Dialect {
	return Dialect{driver: driver}
}

// DriverName implements database.Dialect.
func (d Dialect) DriverName() string {
	return d.driver
}

// ColumnsQuery implements database.Dialect.
func (d Dialect) ColumnsQuery() string {
	return `
		SELECT COLUMN_NAME
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`
}

// ValidateStatement implements database.Dialect.
// NOEXEC is switched off again on every exit path so the pooled
// connection is never left in compile-only mode.
func (d Dialect) ValidateStatement(ctx context.Context, conn *sql.Conn, statement string) (err error) {
	if _, err := conn.ExecContext(ctx, "SET NOEXEC ON"); err != nil {
		return fmt.Errorf("failed to enable NOEXEC: %w", err)
	}

	defer func() {
		if _, offErr := conn.ExecContext(context.Background(), "SET NOEXEC OFF"); offErr != nil && err == nil {
			err = fmt.Errorf("failed to disable NOEXEC: %w", offErr)
		}
	}()

	if _, err := conn.ExecContext(ctx, statement); err != nil {
		return fmt.Errorf("invalid SQL: %w", err)
	}

	return nil
}

// ProcedureStatement implements database.Dialect.
func (d Dialect) ProcedureStatement(name string) (string, error) {
	return "EXEC " + name, nil
}
