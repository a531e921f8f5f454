// Package slug derives URL-safe identifiers from display names.
package slug

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonLatin   = regexp.MustCompile(`[^\w-]`)
	whitespace = regexp.MustCompile(`\s+`)
	edgeDashes = regexp.MustCompile(`(^-+|-+$)`)
	multiDash  = regexp.MustCompile(`-{2,}`)
)

// Make converts a name into a lowercase dash-separated slug. Diacritics are
// stripped via NFD decomposition. When nothing usable remains, a timestamped
// fallback keeps the slug non-empty and unique enough for a retry.
func Make(input string) string {
	if input == "" {
		return fallback()
	}

	dashed := whitespace.ReplaceAllString(strings.TrimSpace(input), "-")

	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	normalized, _, err := transform.String(stripMarks, dashed)
	if err != nil {
		normalized = dashed
	}

	s := nonLatin.ReplaceAllString(normalized, "")
	s = multiDash.ReplaceAllString(s, "-")
	s = edgeDashes.ReplaceAllString(s, "")
	s = strings.ToLower(s)

	if s == "" {
		return fallback()
	}

	return s
}

func fallback() string {
	return fmt.Sprintf("product-%d", time.Now().UnixMilli())
}
