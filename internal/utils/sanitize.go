package utils

import "strings"

// SanitizeName normalizes romancist names and book titles before they are
// stored or compared: lowercase, trimmed, inner whitespace collapsed to a
// single space.
func SanitizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}
