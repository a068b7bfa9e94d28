package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeAddress returns the cache key for an address: surrounding
// whitespace trimmed, inner whitespace runs collapsed to one space, and the
// text lowercased. All-whitespace input normalizes to "".
func NormalizeAddress(input string) string {
	collapsed := strings.Join(strings.Fields(input), " ")
	if collapsed == "" {
		return ""
	}
	// A Caser is stateful and must not be shared across goroutines.
	return cases.Lower(language.Und).String(collapsed)
}
