package matcher

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldMarks strips combining diacritical marks so analyst-entered text
// like "Résumé Management" compares equal to "Resume Management".
var foldMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName standardizes a function or domain name for comparison by:
//  1. Trimming whitespace
//  2. Folding diacritics
//  3. Converting to lowercase
//  4. Collapsing internal runs of whitespace into single spaces
func NormalizeName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}

	if folded, _, err := transform.String(foldMarks, name); err == nil {
		name = folded
	}
	name = strings.ToLower(name)

	return strings.Join(strings.Fields(name), " ")
}

// tokenize splits a name into normalized tokens, discarding tokens of a
// single character (articles, initials, stray punctuation).
func tokenize(name string) []string {
	var tokens []string
	for _, f := range strings.Fields(NormalizeName(name)) {
		if len(f) > 1 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
