package braille

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// foldDiacritics decomposes accented characters and drops the combining marks
// so letters like "é" resolve through the cell table. Falls back to the input
// unchanged when the transform fails.
func foldDiacritics(text string) string {
	folded, _, err := transform.String(foldTransformer, text)
	if err != nil {
		return text
	}
	return folded
}

// boilerplatePrefixes are conversational lead-ins LLM responses tend to carry;
// they are stripped from optimized-mode output.
var boilerplatePrefixes = []string{
	"here is the simplified text:",
	"here is the simplified version:",
	"here's the simplified text:",
	"here is the text:",
	"here you go:",
	"sure,",
	"certainly,",
}

// normalizeOptimized cleans free-form transform output: known boilerplate
// prefixes are removed and whitespace is collapsed.
func normalizeOptimized(text string) string {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)
	for _, prefix := range boilerplatePrefixes {
		if strings.HasPrefix(lower, prefix) {
			trimmed = strings.TrimSpace(trimmed[len(prefix):])
			break
		}
	}
	return strings.Join(strings.Fields(trimmed), " ")
}
