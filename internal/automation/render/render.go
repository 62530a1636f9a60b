// Package render substitutes {{key}} placeholders in rule templates.
//
// The syntax is a wire contract visible to tenant admins: literal
// double-brace tokens, case-sensitive, exact key match. Rendering must
// never fail — a malformed template degrades to its literal text rather
// than blocking the business action that triggered it.
package render

import "regexp"

var placeholderPattern = regexp.MustCompile(`\{\{([A-Za-z0-9_]+)\}\}`)

// Render replaces every {{key}} occurrence with its value from vars.
// Keys without a mapped value render as empty strings; text outside
// well-formed tokens is returned unchanged.
func Render(template string, vars map[string]string) string {
	if template == "" {
		return template
	}

	return placeholderPattern.ReplaceAllStringFunc(template, func(token string) string {
		key := token[2 : len(token)-2]
		return vars[key]
	})
}
