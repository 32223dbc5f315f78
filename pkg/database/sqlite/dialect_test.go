package sqlite

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/ruslano69/dataselector/pkg/database"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Config{Type: AdapterType, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	setup := []string{
		`CREATE TABLE SelectableObjects (ObjectName TEXT)`,
		`INSERT INTO SelectableObjects VALUES ('dbo.Parcels'), ('dbo.Roads'), (NULL)`,
		`CREATE TABLE Parcels (Name TEXT, Area REAL, Shape TEXT, MI_STYLE TEXT, Code INTEGER)`,
		`INSERT INTO Parcels VALUES ('A', 150.5, 'POINT(1 2)', NULL, 7)`,
		`INSERT INTO Parcels VALUES ('B', 50, NULL, NULL, NULL)`,
	}
	for _, stmt := range setup {
		if _, err := db.SQL().ExecContext(ctx, stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}
	return db
}

func TestListTableNames(t *testing.T) {
	db := openTestDB(t)

	got, err := db.ListTableNames(context.Background(), "SelectableObjects")
	if err != nil {
		t.Fatalf("ListTableNames() error = %v", err)
	}
	want := []string{"dbo.Parcels", "dbo.Roads"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListTableNames() = %v, want %v", got, want)
	}
}

func TestListTableNames_MissingObjectsTable(t *testing.T) {
	db := openTestDB(t)
	if _, err := db.ListTableNames(context.Background(), "NoSuchView"); err == nil {
		t.Error("ListTableNames() on missing view should fail")
	}
	if _, err := db.ListTableNames(context.Background(), ""); err == nil {
		t.Error("ListTableNames() without objects table should fail")
	}
}

func TestListColumns(t *testing.T) {
	db := openTestDB(t)

	got, err := db.ListColumns(context.Background(), "Parcels")
	if err != nil {
		t.Fatalf("ListColumns() error = %v", err)
	}
	want := []string{"Name", "Area", "Shape", "MI_STYLE", "Code"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListColumns() = %v, want %v", got, want)
	}
}

func TestExecute(t *testing.T) {
	db := openTestDB(t)

	res, err := db.Execute(context.Background(), "SELECT Name, Area, Shape, Code FROM Parcels ORDER BY Name")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !reflect.DeepEqual(res.Headers, []string{"Name", "Area", "Shape", "Code"}) {
		t.Errorf("Headers = %v", res.Headers)
	}
	if res.RowCount() != 2 {
		t.Fatalf("RowCount() = %d, want 2", res.RowCount())
	}

	first := res.Rows[0]
	if first[0] != "A" || first[1] != 150.5 || first[2] != "POINT(1 2)" || first[3] != int64(7) {
		t.Errorf("first row = %#v", first)
	}
	second := res.Rows[1]
	if second[2] != nil || second[3] != nil {
		t.Errorf("NULLs not preserved: %#v", second)
	}
}

func TestExecute_DuplicateHeaders(t *testing.T) {
	db := openTestDB(t)

	res, err := db.Execute(context.Background(), "SELECT Name, Name FROM Parcels")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Headers) != 2 || res.Headers[0] != res.Headers[1] {
		t.Errorf("duplicate headers not passed through: %v", res.Headers)
	}
}

func TestValidateSyntax(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		sql     string
		wantErr bool
	}{
		{"valid select", "SELECT Name FROM Parcels WHERE Area > 100", false},
		{"syntax error", "SELEC Name FROM Parcels", true},
		{"unknown table", "SELECT * FROM Rivers", true},
		{"unknown column", "SELECT Nope FROM Parcels", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.ValidateSyntax(ctx, tt.sql, 5*time.Second)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSyntax(%q) error = %v, wantErr %v", tt.sql, err, tt.wantErr)
			}
		})
	}
}

func TestValidateSyntax_DoesNotExecute(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.ValidateSyntax(ctx, "DELETE FROM Parcels", 0); err != nil {
		t.Fatalf("ValidateSyntax() error = %v", err)
	}

	res, err := db.Execute(ctx, "SELECT COUNT(*) FROM Parcels")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if res.Rows[0][0] != int64(2) {
		t.Errorf("rows after validation = %v, want 2", res.Rows[0][0])
	}
}

func TestRunProcedure_Unsupported(t *testing.T) {
	db := openTestDB(t)

	err := db.RunProcedure(context.Background(), "usp_Select")
	if !errors.Is(err, database.ErrUnsupported) {
		t.Errorf("RunProcedure() error = %v, want ErrUnsupported", err)
	}
}
