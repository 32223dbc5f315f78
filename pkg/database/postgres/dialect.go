// Package postgres registers the PostgreSQL dialect through pgx's database/sql driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"

	"github.com/ruslano69/dataselector/pkg/database"
)

// AdapterType is the registered type name.
const AdapterType = "postgres"

// Compile-time check
var _ database.Dialect = Dialect{}

func init() {
	database.Register(AdapterType, Dialect{})
	database.Register("postgresql", Dialect{})
}

// Dialect implements database.Dialect for PostgreSQL.
type Dialect struct{}

// DriverName implements database.Dialect.
func (Dialect) DriverName() string {
	return "pgx"
}

// ColumnsQuery implements database.Dialect.
func (Dialect) ColumnsQuery() string {
	return `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = $1
		ORDER BY ordinal_position
	`
}

// ValidateStatement implements database.Dialect. EXPLAIN without ANALYZE only plans.
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
