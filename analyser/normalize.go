package analyser

import (
	"regexp"
	"strings"
)

// marginRegex matches the leading "*" margin of a doc comment line, including
// the whitespace on both sides of the asterisk.
var marginRegex = regexp.MustCompile(`(?m)^[\t ]*\*[\t ]+`)

// Normalize replaces tabs with single spaces inside the leading "*" margin of
// every line in comment. Content after the margin is left alone, so the
// result has the same length, line count and non-whitespace text as comment.
//
// Parsers measuring offsets in characters disagree about tab widths; with
// the margin free of tabs, offsets stay comparable with the original text.
func Normalize(comment string) string {
	return marginRegex.ReplaceAllStringFunc(comment, func(margin string) string {
		return strings.ReplaceAll(margin, "\t", " ")
	})
}
