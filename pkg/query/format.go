package query

import (
	"fmt"
	"strings"
)

// Format is the output format of a query run.
type Format int

const (
	// FormatUnset means no format has been chosen.
	FormatUnset Format = iota
	// FormatCSV is comma delimited text.
	FormatCSV
	// FormatTXT is tab delimited text.
	FormatTXT
	// FormatSHP is an ESRI shapefile with WKT geometry.
	FormatSHP
	// FormatXLSX is an Excel workbook.
	FormatXLSX
)

type formatInfo struct {
	label     string
	extension string
}

// formats is the single mapping between formats and their UI labels.
var formats = map[Format]formatInfo{
	FormatCSV:  {label: "CSV", extension: ".csv"},
	FormatTXT:  {label: "TXT", extension: ".txt"},
	FormatSHP:  {label: "SHP", extension: ".shp"},
	FormatXLSX: {label: "XLSX", extension: ".xlsx"},
}

// Formats returns all selectable formats in display order.
func Formats() []Format {
	return []Format{FormatCSV, FormatTXT, FormatSHP, FormatXLSX}
}

// Labels returns the display labels of all selectable formats in display order.
func Labels() []string {
	all := Formats()
	labels := make([]string, len(all))
	for i, f := range all {
		labels[i] = f.Label()
	}
	return labels
}

// Label returns the display label, or "" for FormatUnset and unknown values.
func (f Format) Label() string {
	return formats[f].label
}

// Extension returns the file extension including the leading dot.
func (f Format) Extension() string {
	return formats[f].extension
}

// IsValid reports whether f is one of the selectable formats.
func (f Format) IsValid() bool {
	_, ok := formats[f]
	return ok
}

// String implements fmt.Stringer.
func (f Format) String() string {
	if l := f.Label(); l != "" {
		return l
	}
	if f == FormatUnset {
		return "unset"
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// ParseFormat resolves a display label case-insensitively.
// Surrounding whitespace and a leading dot ("csv", ".CSV") are accepted.
func ParseFormat(label string) (Format, bool) {
	label = strings.TrimPrefix(strings.TrimSpace(label), ".")
	for _, f := range Formats() {
		if strings.EqualFold(f.Label(), label) {
			return f, true
		}
	}
	return FormatUnset, false
}

// MarshalText implements encoding.TextMarshaler so formats read naturally in config files.
func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.Label()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*f = FormatUnset
		return nil
	}
	parsed, ok := ParseFormat(string(text))
	if !ok {
		return fmt.Errorf("unknown output format: %q (expected one of %v)", string(text), Labels())
	}
	*f = parsed
	return nil
}
