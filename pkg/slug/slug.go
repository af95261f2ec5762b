// Package slug derives URL-safe ASCII identifiers from human names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	tableSlugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	fieldSlugPattern = regexp.MustCompile(`^[a-z0-9_]+$`)

	nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
)

// stripMarks removes combining diacritical marks after NFD decomposition
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases the input and strips combining diacritics, so "Détails"
// becomes "détails" then "details".
func Fold(name string) string {
	lowered := strings.ToLower(name)
	folded, _, err := transform.String(stripMarks, lowered)
	if err != nil {
		return lowered
	}
	return folded
}

// Derive builds a table slug from a human name: lowercase, diacritics
// stripped, runs of non-alphanumerics collapsed to a single hyphen, leading
// and trailing hyphens trimmed. A name with no alphanumerics yields "table".
func Derive(name string) string {
	s := nonAlphanumeric.ReplaceAllString(Fold(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "table"
	}
	return s
}

// IsValidTableSlug reports whether s is a well-formed table slug
func IsValidTableSlug(s string) bool {
	return tableSlugPattern.MatchString(s) &&
		!strings.HasPrefix(s, "-") && !strings.HasSuffix(s, "-")
}

// IsValidFieldSlug reports whether s is a well-formed field slug
func IsValidFieldSlug(s string) bool {
	return fieldSlugPattern.MatchString(s)
}
