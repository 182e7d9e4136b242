package router

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

const previewWidth = 60

// Preview collapses whitespace and truncates s to a fixed display width for logs.
func Preview(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return runewidth.Truncate(s, previewWidth, "…")
}
