package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UpperCamelCase converts snake_case or kebab-case to UpperCamelCase.
// Example: "midi_input" -> "MidiInput". Used for deriving logger names
// from module names.
func UpperCamelCase(s string) string {
	s = strings.ReplaceAll(s, "_", " ")
	s = strings.ReplaceAll(s, "-", " ")
	c := cases.Title(language.English)
	s = c.String(s)
	return strings.ReplaceAll(s, " ", "")
}

// LowerCamelCase converts snake_case or kebab-case to lowerCamelCase.
// Example: "created_by_id" -> "createdById"
func LowerCamelCase(s string) string {
	upper := UpperCamelCase(s)
	if len(upper) == 0 {
		return upper
	}
	return strings.ToLower(upper[:1]) + upper[1:]
}
