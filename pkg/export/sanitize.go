package export

import "strings"

// illegalNameChars are replaced when a query name becomes a file name.
const illegalNameChars = `\%$:*/?<>|~£.`

// SanitizeName replaces characters that are not allowed in export file names with '_'.
func SanitizeName(name string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(illegalNameChars, r) {
			return '_'
		}
		return r
	}, name)
}
