// Package qsf reads and writes query specification files.
//
// A .qsf file holds up to six labeled lines, one per query part:
//
//	Fields {Name,$$Shape}
//	From {Parcels}
//	Where {Area > 100}
//	Group By {}
//	Order By {}
//	Format {SHP}
//
// Newlines inside a value are stored as the sentinel "$$". Braces inside a
// value are not escaped. Labels are matched case-insensitively and may appear
// in any order. Unknown lines and empty values ("Label {}") are skipped, so a
// field absent from the file keeps whatever value the target spec already had.
package qsf

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/ruslano69/dataselector/pkg/query"
)

// NewlineSentinel replaces "\n" inside stored values.
const NewlineSentinel = "$$"

// Field labels in file order.
const (
	LabelFields  = "Fields"
	LabelFrom    = "From"
	LabelWhere   = "Where"
	LabelGroupBy = "Group By"
	LabelOrderBy = "Order By"
	LabelFormat  = "Format"
)

// Labels lists the six labels in the order Save writes them.
var Labels = []string{LabelFields, LabelFrom, LabelWhere, LabelGroupBy, LabelOrderBy, LabelFormat}

const lineEnding = "\r\n"

// maxLineSize bounds a single stored line.
const maxLineSize = 16 * 1024 * 1024

// Options controls how names read from a file are resolved.
type Options struct {
	// ResolveTable maps a stored table name to a currently valid one.
	// A nil func accepts any non-placeholder name as is.
	ResolveTable func(name string) (string, bool)

	// Formats restricts which formats can be restored. Nil allows all.
	Formats []query.Format
}

// MatchTables returns a resolver accepting names from tables, compared case-insensitively.
// The canonical spelling from tables is returned.
func MatchTables(tables []string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		for _, t := range tables {
			if strings.EqualFold(t, name) {
				return t, true
			}
		}
		return "", false
	}
}

// Encode returns the stored form of a single value.
func Encode(value string) string {
	value = strings.ReplaceAll(value, "\r\n", "\n")
	return strings.ReplaceAll(value, "\n", NewlineSentinel)
}

// Decode reverses Encode.
func Decode(value string) string {
	return strings.ReplaceAll(value, NewlineSentinel, "\n")
}

// Save writes spec as exactly six labeled lines.
// The placeholder table and an unset format are written as empty values.
func Save(w io.Writer, spec query.Spec) error {
	values := map[string]string{
		LabelFields:  spec.Fields,
		LabelFrom:    spec.SourceTable(),
		LabelWhere:   spec.Where,
		LabelGroupBy: spec.GroupBy,
		LabelOrderBy: spec.OrderBy,
		LabelFormat:  spec.Format.Label(),
	}

	bw := bufio.NewWriter(w)
	for _, label := range Labels {
		if _, err := fmt.Fprintf(bw, "%s {%s}%s", label, Encode(values[label]), lineEnding); err != nil {
			return fmt.Errorf("failed to write %s: %w", label, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush query file: %w", err)
	}
	return nil
}

// Load parses r into a fresh spec. Fields missing from the file stay empty.
func Load(r io.Reader, opts Options) (query.Spec, error) {
	var spec query.Spec
	if err := DecodeInto(r, &spec, opts); err != nil {
		return query.Spec{}, err
	}
	return spec, nil
}

// DecodeInto parses r and assigns every recognized non-empty value to spec.
// Fields that are absent, empty or unresolvable keep their current value.
func DecodeInto(r io.Reader, spec *query.Spec, opts Options) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		label, value, ok := parseLine(line)
		if !ok {
			continue
		}
		assign(spec, label, value, opts)
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read query file: %w", err)
	}
	return nil
}

// parseLine matches line against the known labels. It reports false for
// unknown lines, lines without a closing brace and the empty form "Label {}".
func parseLine(line string) (label, value string, ok bool) {
	for _, l := range Labels {
		prefix := l + " {"
		if len(line) < len(prefix) || !strings.EqualFold(line[:len(prefix)], prefix) {
			continue
		}

		end := strings.LastIndex(line, "}")
		if end < len(prefix) {
			return "", "", false
		}

		raw := line[len(prefix):end]
		if raw == "" {
			return "", "", false
		}
		return l, Decode(raw), true
	}
	return "", "", false
}

func assign(spec *query.Spec, label, value string, opts Options) {
	switch label {
	case LabelFields:
		spec.Fields = value
	case LabelFrom:
		if table, ok := resolveTable(value, opts); ok {
			spec.Table = table
		}
	case LabelWhere:
		spec.Where = value
	case LabelGroupBy:
		spec.GroupBy = value
	case LabelOrderBy:
		spec.OrderBy = value
	case LabelFormat:
		if f, ok := resolveFormat(value, opts); ok {
			spec.Format = f
		}
	}
}

func resolveTable(name string, opts Options) (string, bool) {
	name = strings.TrimSpace(name)
	if name == "" || name == query.PlaceholderTable {
		return "", false
	}
	if opts.ResolveTable == nil {
		return name, true
	}
	return opts.ResolveTable(name)
}

func resolveFormat(label string, opts Options) (query.Format, bool) {
	f, ok := query.ParseFormat(label)
	if !ok {
		return query.FormatUnset, false
	}
	if opts.Formats == nil {
		return f, true
	}
	for _, allowed := range opts.Formats {
		if allowed == f {
			return f, true
		}
	}
	return query.FormatUnset, false
}
