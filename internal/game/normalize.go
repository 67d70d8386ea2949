package game

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// NormalizeWord trims, composes and lowercases a word so that equal guesses
// compare equal regardless of how the client typed or encoded them.
func NormalizeWord(input string) string {
	// A Caser is stateful, so each call gets its own.
	return cases.Lower(language.Russian).String(norm.NFC.String(strings.TrimSpace(input)))
}
