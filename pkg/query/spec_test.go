package query

import (
	"errors"
	"reflect"
	"testing"
)

func TestSpec_ToSQL(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
		want string
	}{
		{
			name: "fields table where",
			spec: Spec{Fields: "Name, Shape", Table: "Parcels", Where: "Area > 100"},
			want: "SELECT Name, Shape FROM Parcels WHERE Area > 100",
		},
		{
			name: "empty fields render star",
			spec: Spec{Table: "Roads"},
			want: "SELECT * FROM Roads",
		},
		{
			name: "blank fields render star",
			spec: Spec{Fields: "  \n ", Table: "Roads"},
			want: "SELECT * FROM Roads",
		},
		{
			name: "all clauses in fixed order",
			spec: Spec{Fields: "Type, COUNT(*)", Table: "Roads", Where: "Len > 1", GroupBy: "Type", OrderBy: "Type DESC"},
			want: "SELECT Type, COUNT(*) FROM Roads WHERE Len > 1 GROUP BY Type ORDER BY Type DESC",
		},
		{
			name: "order without where",
			spec: Spec{Table: "Roads", OrderBy: " Name "},
			want: "SELECT * FROM Roads ORDER BY Name",
		},
		{
			name: "multi-line predicate kept",
			spec: Spec{Table: "Roads", Where: "A = 1\nAND B = 2"},
			want: "SELECT * FROM Roads WHERE A = 1\nAND B = 2",
		},
		{
			name: "no escaping performed",
			spec: Spec{Table: "Roads", Where: "Name = 'O''Brien'; --"},
			want: "SELECT * FROM Roads WHERE Name = 'O''Brien'; --",
		},
		{
			name: "placeholder table is no table",
			spec: Spec{Table: PlaceholderTable, Where: "A = 1"},
			want: "SELECT * WHERE A = 1",
		},
		{
			name: "no table",
			spec: Spec{Fields: "1"},
			want: "SELECT 1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.spec.ToSQL(); got != tt.want {
				t.Errorf("ToSQL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestSpec_ToSQLIdempotent(t *testing.T) {
	s := Spec{Fields: "a,\nb", Table: "T", Where: "x=1", GroupBy: "a", OrderBy: "b"}
	first := s.ToSQL()
	if second := s.ToSQL(); first != second {
		t.Errorf("ToSQL() not idempotent: %q != %q", first, second)
	}
}

func TestSpec_Validate(t *testing.T) {
	if err := (Spec{Table: "Roads"}).Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
	for _, table := range []string{"", "  ", PlaceholderTable} {
		if err := (Spec{Table: table}).Validate(); !errors.Is(err, ErrNoTable) {
			t.Errorf("Validate() with table %q = %v, want ErrNoTable", table, err)
		}
	}
}

func TestSpec_Columns(t *testing.T) {
	tests := []struct {
		fields string
		want   []string
	}{
		{"", nil},
		{"Name, Shape", []string{"Name", "Shape"}},
		{"Name,\nShape,\n", []string{"Name", "Shape"}},
	}
	for _, tt := range tests {
		if got := (Spec{Fields: tt.fields}).Columns(); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Columns(%q) = %v, want %v", tt.fields, got, tt.want)
		}
	}
}

func TestSpec_IsEmpty(t *testing.T) {
	if !(Spec{Table: PlaceholderTable, Format: FormatCSV}).IsEmpty() {
		t.Error("placeholder-only spec should be empty")
	}
	if (Spec{Where: "a=1"}).IsEmpty() {
		t.Error("spec with predicate should not be empty")
	}
}
