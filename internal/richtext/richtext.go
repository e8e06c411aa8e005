package richtext

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const DefaultExcerptLength = 100

var (
	ugcPolicy   = bluemonday.UGCPolicy()
	stripPolicy = bluemonday.StrictPolicy()
)

// Sanitize keeps the formatting tags a rich-text editor produces and drops
// scripts, handlers and unsafe URLs.
func Sanitize(fragment string) string {
	return strings.TrimSpace(ugcPolicy.Sanitize(fragment))
}

// PlainText strips all markup and collapses whitespace.
func PlainText(fragment string) string {
	text := html.UnescapeString(stripPolicy.Sanitize(fragment))
	return strings.Join(strings.Fields(text), " ")
}

// Excerpt returns at most maxLength runes of plain text, suffixed with "..."
// when truncated.
func Excerpt(fragment string, maxLength int) string {
	if maxLength <= 0 {
		maxLength = DefaultExcerptLength
	}
	text := []rune(PlainText(fragment))
	if len(text) <= maxLength {
		return string(text)
	}
	return strings.TrimSpace(string(text[:maxLength])) + "..."
}
