package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// Compile-time check
var _ Database = (*DB)(nil)

// DB implements Database on top of database/sql and a Dialect.
type DB struct {
	db      *sql.DB
	dialect Dialect
	dbType  string
}

// NewDB wraps an already opened *sql.DB. The caller keeps ownership of the
// pool settings.
func NewDB(db *sql.DB, dbType string, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect, dbType: dbType}
}

// SQL returns the underlying *sql.DB for direct access (helper method).
func (d *DB) SQL() *sql.DB {
	return d.db
}

// Type returns the registered dialect name.
func (d *DB) Type() string {
	return d.dbType
}

// Ping tests the connection.
func (d *DB) Ping(ctx context.Context) error {
	if d == nil || d.db == nil {
		return ErrNotConnected
	}
	return d.db.PingContext(ctx)
}

// Close closes the connection.
func (d *DB) Close() error {
	if d == nil || d.db == nil {
		return nil
	}
	return d.db.Close()
}

// ListTableNames reads ObjectName from objectsTable. NULL names are skipped.
func (d *DB) ListTableNames(ctx context.Context, objectsTable string) ([]string, error) {
	if d == nil || d.db == nil {
		return nil, ErrNotConnected
	}
	if strings.TrimSpace(objectsTable) == "" {
		return nil, fmt.Errorf("objects table is not configured")
	}

	rows, err := d.db.QueryContext(ctx, "SELECT ObjectName FROM "+objectsTable)
	if err != nil {
		return nil, fmt.Errorf("failed to query object names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name sql.NullString
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan object name: %w", err)
		}
		if name.Valid {
			names = append(names, name.String)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating object names: %w", err)
	}

	return names, nil
}

// ListColumns returns the column names of table.
func (d *DB) ListColumns(ctx context.Context, table string) ([]string, error) {
	if d == nil || d.db == nil {
		return nil, ErrNotConnected
	}

	rows, err := d.db.QueryContext(ctx, d.dialect.ColumnsQuery(), table)
	if err != nil {
		return nil, fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var column string
		if err := rows.Scan(&column); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, column)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating columns: %w", err)
	}

	return columns, nil
}

// Execute runs statement and reads every row into memory.
func (d *DB) Execute(ctx context.Context, statement string) (*Result, error) {
	if d == nil || d.db == nil {
		return nil, ErrNotConnected
	}

	rows, err := d.db.QueryContext(ctx, statement)
	if err != nil {
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	headers, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to get columns: %w", err)
	}

	result := &Result{Headers: headers}

	values := make([]any, len(headers))
	scanArgs := make([]any, len(headers))
	for i := range values {
		scanArgs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make([]any, len(values))
		for i, v := range values {
			row[i] = normalizeValue(v)
		}
		result.Rows = append(result.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading rows: %w", err)
	}

	return result, nil
}

// normalizeValue copies driver-owned byte slices into strings.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return string(val)
	default:
		return val
	}
}

// RunProcedure executes a stored procedure inside a transaction and commits it.
func (d *DB) RunProcedure(ctx context.Context, name string) error {
	if d == nil || d.db == nil {
		return ErrNotConnected
	}
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("procedure name is empty")
	}

	statement, err := d.dialect.ProcedureStatement(name)
	if err != nil {
		return err
	}

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, statement); err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to run procedure %s: %w", name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit procedure %s: %w", name, err)
	}

	return nil
}

// ValidateSyntax pins a connection and lets the dialect check statement.
func (d *DB) ValidateSyntax(ctx context.Context, statement string, timeout time.Duration) error {
	if d == nil || d.db == nil {
		return ErrNotConnected
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	conn, err := d.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()

	return d.dialect.ValidateStatement(ctx, conn, statement)
}
