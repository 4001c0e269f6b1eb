package provider

import (
	"regexp"
	"strings"
)

var (
	brPattern    = regexp.MustCompile(`(?i)<br\s*/?>`)
	blockPattern = regexp.MustCompile(`(?i)</(p|div|h[1-6]|li|tr)>`)
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`[ \t]+`)
	linePattern  = regexp.MustCompile(`\n{3,}`)
)

// StripTags derives a plain-text body from HTML. Block-level closings become
// line breaks so receipts keep a readable shape in text-only clients.
func StripTags(html string) string {
	text := brPattern.ReplaceAllString(html, "\n")
	text = blockPattern.ReplaceAllString(text, "\n")
	text = tagPattern.ReplaceAllString(text, "")

	text = strings.ReplaceAll(text, "&nbsp;", " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")

	text = spacePattern.ReplaceAllString(text, " ")
	text = linePattern.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}
