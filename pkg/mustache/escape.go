package mustache

import "strings"

// EscapeFunc converts an interpolated value's text before it is written.
type EscapeFunc func(string) string

var htmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
	"/", "&#x2F;",
	"=", "&#x3D;",
	"`", "&#x60;",
)

// EscapeHTML is the default escaper. It replaces & < > " ' / = and ` with
// HTML entities.
func EscapeHTML(s string) string {
	return htmlReplacer.Replace(s)
}

// NoEscape returns s unchanged.
func NoEscape(s string) string { return s }
