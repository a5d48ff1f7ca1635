package mods

import (
	"regexp"
	"strings"
)

var (
	// ```diff fences carry a "+ " marker on the highlighted line; both go.
	diffFenceRe = regexp.MustCompile("```diff[\\s\\S]*?\\+ ")
	fenceRe     = regexp.MustCompile("```")
	mdLinkRe    = regexp.MustCompile(`\[(.+?)\]\(.+?\)`)
	newlinesRe  = regexp.MustCompile(`\n+`)
)

// Normalize strips Discord markup artifacts from a free-form text field so
// it can be treated as structured data: diff code fences (including the
// leading "+ " marker), residual fence markers, markdown links reduced to
// their label, surrounding whitespace, and newline runs collapsed to a
// single space. Normalize is idempotent.
func Normalize(s string) string {
	if s == "" {
		return ""
	}
	s = diffFenceRe.ReplaceAllString(s, "")
	s = fenceRe.ReplaceAllString(s, "")
	s = mdLinkRe.ReplaceAllString(s, "$1")
	s = strings.TrimSpace(s)
	s = newlinesRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
