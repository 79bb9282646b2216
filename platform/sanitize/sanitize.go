// Package sanitize cleans user-provided text before it is stored or sent to
// an external model.
package sanitize

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	htmlTagRegex    = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

var entityReplacer = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", "\"",
	"&#39;", "'",
	"&nbsp;", " ",
)

// StripHTML removes HTML tags, including tags hidden behind encoded entities.
func StripHTML(s string) string {
	result := htmlTagRegex.ReplaceAllString(s, "")
	result = entityReplacer.Replace(result)
	result = htmlTagRegex.ReplaceAllString(result, "")
	return strings.TrimSpace(result)
}

// Text strips HTML from free-text fields such as lead notes.
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr is Text for optional fields.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// PromptLine prepares a value for a single line of a model prompt. HTML is
// stripped, the text is NFC-normalized, runs of whitespace collapse to one
// space and the result is cut to at most maxRunes runes. maxRunes <= 0
// disables the limit.
func PromptLine(s string, maxRunes int) string {
	result := whitespaceRegex.ReplaceAllString(norm.NFC.String(StripHTML(s)), " ")
	result = strings.TrimSpace(result)
	if maxRunes <= 0 || utf8.RuneCountInString(result) <= maxRunes {
		return result
	}
	runes := []rune(result)
	return strings.TrimSpace(string(runes[:maxRunes]))
}
