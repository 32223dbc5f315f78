package qsf

import (
	"bytes"
	"strings"
	"testing"

	"github.com/ruslano69/dataselector/pkg/query"
)

func TestSave_Layout(t *testing.T) {
	spec := query.Spec{
		Fields: "Name,\nShape",
		Table:  "Parcels",
		Where:  "Area > 100",
		Format: query.FormatSHP,
	}

	var buf bytes.Buffer
	if err := Save(&buf, spec); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	want := "Fields {Name,$$Shape}\r\n" +
		"From {Parcels}\r\n" +
		"Where {Area > 100}\r\n" +
		"Group By {}\r\n" +
		"Order By {}\r\n" +
		"Format {SHP}\r\n"
	if got := buf.String(); got != want {
		t.Errorf("Save() =\n%q\nwant\n%q", got, want)
	}
}

func TestSave_PlaceholderTableNotPersisted(t *testing.T) {
	var buf bytes.Buffer
	if err := Save(&buf, query.Spec{Table: query.PlaceholderTable}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if strings.Contains(buf.String(), query.PlaceholderTable) {
		t.Errorf("placeholder leaked into file: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "From {}\r\n") {
		t.Errorf("expected empty From line, got %q", buf.String())
	}
}

func TestRoundTrip(t *testing.T) {
	specs := []query.Spec{
		{Fields: "Name, Shape", Table: "Parcels", Where: "Area > 100", Format: query.FormatCSV},
		{Fields: "a,\nb,\nc", Table: "Roads", Where: "x = 1\nAND y = 2\n", GroupBy: "a", OrderBy: "b DESC", Format: query.FormatTXT},
		{Fields: "  padded  ", Table: "dbo.T", Where: "Name LIKE '%$%'", Format: query.FormatXLSX},
		{Table: "OnlyTable", Format: query.FormatSHP},
	}

	for _, want := range specs {
		var buf bytes.Buffer
		if err := Save(&buf, want); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
		got, err := Load(&buf, Options{})
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got != want {
			t.Errorf("round trip mismatch:\n got %#v\nwant %#v", got, want)
		}
	}
}

func TestLoad_Lenient(t *testing.T) {
	input := strings.Join([]string{
		"# saved by hand",
		"",
		"FORMAT {csv}",
		"where {A = 1$$AND B = 2}",
		"Unknown {value}",
		"Fields {Name}",
		"From {Roads",
		"Group By {}",
		"order by {Name}",
	}, "\n")

	got, err := Load(strings.NewReader(input), Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := query.Spec{
		Fields:  "Name",
		Where:   "A = 1\nAND B = 2",
		OrderBy: "Name",
		Format:  query.FormatCSV,
	}
	if got != want {
		t.Errorf("Load() =\n%#v\nwant\n%#v", got, want)
	}
}

func TestLoad_ValueBetweenFirstAndLastBrace(t *testing.T) {
	got, err := Load(strings.NewReader("Where {Code IN ({1},{2})}\n"), Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Where != "Code IN ({1},{2})" {
		t.Errorf("Where = %q", got.Where)
	}
}

func TestDecodeInto_EmptyValueKeepsPrior(t *testing.T) {
	spec := query.Spec{Table: "Parcels", Where: "old", Fields: "old"}
	input := "Fields {new}\r\nFrom {}\r\nWhere {}\r\n"

	if err := DecodeInto(strings.NewReader(input), &spec, Options{}); err != nil {
		t.Fatalf("DecodeInto() error = %v", err)
	}

	if spec.Table != "Parcels" {
		t.Errorf("Table = %q, want prior value Parcels", spec.Table)
	}
	if spec.Where != "old" {
		t.Errorf("Where = %q, want prior value", spec.Where)
	}
	if spec.Fields != "new" {
		t.Errorf("Fields = %q, want new", spec.Fields)
	}
}

func TestDecodeInto_Resolution(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		opts      Options
		wantTable string
		wantFmt   query.Format
	}{
		{
			name:      "known table canonical spelling",
			input:     "From {parcels}\nFormat {shp}",
			opts:      Options{ResolveTable: MatchTables([]string{"Parcels", "Roads"})},
			wantTable: "Parcels",
			wantFmt:   query.FormatSHP,
		},
		{
			name:      "unknown table dropped",
			input:     "From {Rivers}",
			opts:      Options{ResolveTable: MatchTables([]string{"Parcels"})},
			wantTable: "prior",
		},
		{
			name:      "placeholder table dropped",
			input:     "From {Select a table}",
			wantTable: "prior",
		},
		{
			name:      "unknown format dropped",
			input:     "Format {PDF}",
			wantTable: "prior",
		},
		{
			name:      "disallowed format dropped",
			input:     "Format {XLSX}",
			opts:      Options{Formats: []query.Format{query.FormatCSV}},
			wantTable: "prior",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := query.Spec{Table: "prior"}
			if err := DecodeInto(strings.NewReader(tt.input), &spec, tt.opts); err != nil {
				t.Fatalf("DecodeInto() error = %v", err)
			}
			if spec.Table != tt.wantTable {
				t.Errorf("Table = %q, want %q", spec.Table, tt.wantTable)
			}
			if spec.Format != tt.wantFmt {
				t.Errorf("Format = %v, want %v", spec.Format, tt.wantFmt)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	tests := []struct {
		raw     string
		encoded string
	}{
		{"a\nb", "a$$b"},
		{"a\r\nb", "a$$b"},
		{"plain", "plain"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Encode(tt.raw); got != tt.encoded {
			t.Errorf("Encode(%q) = %q, want %q", tt.raw, got, tt.encoded)
		}
	}
	if got := Decode("x$$y$$z"); got != "x\ny\nz" {
		t.Errorf("Decode() = %q", got)
	}
}
