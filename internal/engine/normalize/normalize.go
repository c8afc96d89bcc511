// Package normalize implements the named string normalizer registry
// applied to field values before casting.
package normalize

import "strings"

// Func is a single named string->string transform.
type Func func(string) string

// registry is the mandatory normalizer set. Unknown names are
// silently ignored by Apply.
var registry = map[string]Func{
	"trim":         strings.TrimSpace,
	"toUpper":      strings.ToUpper,
	"toLower":      strings.ToLower,
	"removeSpaces": removeSpaces,
	"keepDigits":   keepDigits,
}

func removeSpaces(s string) string {
	return strings.ReplaceAll(s, " ", "")
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Apply runs the named normalizers over s, left to right, skipping
// any name not in the registry.
func Apply(s string, names []string) string {
	for _, name := range names {
		if fn, ok := registry[name]; ok {
			s = fn(s)
		}
	}
	return s
}
