package main

import (
	"fmt"
	"strings"

	"github.com/ruslano69/dataselector/pkg/query"
)

// ApplyQueryFlags overrides the parts of spec given on the command line.
// A flag set to an empty string clears that part. A table name must be known
// to resolve, which returns its catalog spelling.
func ApplyQueryFlags(spec query.Spec, flags *Flags, resolve func(string) (string, bool)) (query.Spec, error) {
	if flags.IsSet("fields") {
		spec.Fields = *flags.Fields
	}
	if flags.IsSet("table") {
		name := strings.TrimSpace(*flags.Table)
		if name == "" || name == query.PlaceholderTable {
			spec.Table = ""
		} else {
			table, ok := resolve(name)
			if !ok {
				return spec, fmt.Errorf("unknown table %q (use -list to see the selectable tables)", name)
			}
			spec.Table = table
		}
	}
	if flags.IsSet("where") {
		spec.Where = *flags.Where
	}
	if flags.IsSet("group-by") {
		spec.GroupBy = *flags.GroupBy
	}
	if flags.IsSet("order-by") {
		spec.OrderBy = *flags.OrderBy
	}
	if flags.IsSet("format") {
		f, ok := query.ParseFormat(*flags.Format)
		if !ok {
			return spec, fmt.Errorf("unknown format %q (expected one of %v)", *flags.Format, query.Labels())
		}
		spec.Format = f
	}
	return spec, nil
}
