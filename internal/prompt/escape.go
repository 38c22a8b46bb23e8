package prompt

import "strings"

// maxFieldRunes bounds any single interpolated field.
const maxFieldRunes = 600

var directiveReplacer = strings.NewReplacer(
	"{{", "{ {",
	"}}", "} }",
	"{%", "{ %",
	"%}", "% }",
	"${", "$ {",
)

// EscapeDirectives rewrites directive-like syntax so a free-text field renders
// as literal text instead of being re-interpreted as a template directive.
func EscapeDirectives(s string) string {
	return directiveReplacer.Replace(s)
}

// SanitizeField escapes one free-text field for interpolation. A fragment that
// still looks like a directive after escaping is dropped from that one field;
// the surrounding render continues.
func SanitizeField(s string) string {
	escaped := EscapeDirectives(s)
	if strings.Contains(escaped, "{{") || strings.Contains(escaped, "}}") {
		recordInjectionRejected()
		return ""
	}
	runes := []rune(escaped)
	if len(runes) > maxFieldRunes {
		escaped = string(runes[:maxFieldRunes])
	}
	return escaped
}
