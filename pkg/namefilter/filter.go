// Package namefilter matches database object names against wildcard patterns.
//
// A pattern is a '|' separated list of glob alternatives where '*' matches any
// run of characters and '?' matches exactly one. Every other character is
// taken literally, so any pattern compiles. Matching is anchored and
// case-insensitive.
//
// Example:
//
//	m := namefilter.Compile("TMP_*|BAK_*", "dbo")
//	m.Matches("dbo.TMP_Parcels") // true
//	m.Matches("dbo.Parcels")     // false
package namefilter

import (
	"regexp"
	"sort"
	"strings"
)

// Separator splits a pattern into alternatives.
const Separator = "|"

// Matcher is a compiled pattern. The zero value and a nil *Matcher accept every name.
type Matcher struct {
	pattern string
	schema  string
	re      *regexp.Regexp
}

// Compile builds a Matcher for pattern. When schema is non-empty every
// alternative is prefixed with the literal "schema." before the glob part.
// An empty pattern yields a Matcher that accepts everything.
func Compile(pattern, schema string) *Matcher {
	m := &Matcher{pattern: pattern, schema: schema}
	if pattern == "" {
		return m
	}

	m.re = regexp.MustCompile(Translate(pattern, schema))
	return m
}

// Translate returns the regular expression source used for pattern.
// The result is always a valid expression because non-wildcard characters are quoted.
func Translate(pattern, schema string) string {
	alternatives := strings.Split(pattern, Separator)
	parts := make([]string, len(alternatives))

	for i, alt := range alternatives {
		var b strings.Builder
		if schema != "" {
			b.WriteString(regexp.QuoteMeta(schema))
			b.WriteString(`\.`)
		}
		b.WriteString(globToRegex(alt))
		parts[i] = b.String()
	}

	return `(?i)^(?:` + strings.Join(parts, "|") + `)$`
}

// globToRegex converts a single glob alternative into regex source.
func globToRegex(glob string) string {
	var b strings.Builder
	for _, r := range glob {
		switch r {
		case '*':
			b.WriteString(".*")
		case '?':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// Matches reports whether name satisfies the pattern.
func (m *Matcher) Matches(name string) bool {
	if m == nil || m.re == nil {
		return true
	}
	return m.re.MatchString(name)
}

// IsEmpty reports whether the Matcher was compiled from an empty pattern.
func (m *Matcher) IsEmpty() bool {
	return m == nil || m.re == nil
}

// String returns the source pattern.
func (m *Matcher) String() string {
	if m == nil {
		return ""
	}
	return m.pattern
}

// FilterNames keeps the names matching include, drops the ones matching
// exclude, strips a leading "schema." and sorts the result ordinally.
// Empty include keeps everything; empty exclude drops nothing.
// Exclude always wins over include.
func FilterNames(names []string, include, exclude, schema string) []string {
	inc := Compile(include, schema)
	var exc *Matcher
	if exclude != "" {
		exc = Compile(exclude, schema)
	}

	prefix := ""
	if schema != "" {
		prefix = schema + "."
	}

	result := make([]string, 0, len(names))
	for _, name := range names {
		if !inc.Matches(name) {
			continue
		}
		if exc != nil && exc.Matches(name) {
			continue
		}
		if prefix != "" {
			name = strings.TrimPrefix(name, prefix)
		}
		result = append(result, name)
	}

	sort.Strings(result)
	return result
}
