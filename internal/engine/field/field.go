// Package field evaluates a template field's value from its box's
// assembled text: regex capture, normalization, numeric cast, and the
// required check.
package field

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pdftpl/templateengine/internal/engine/normalize"
	"github.com/pdftpl/templateengine/internal/template"
)

// Result is one field's evaluated value plus whether it satisfied a
// required constraint.
type Result struct {
	Value   any
	Present bool
}

// Evaluate computes a field's value from its box's raw text. A
// malformed regex or a cast failure never raises; they fall back to
// an empty string or the normalized string respectively, per
// spec.md §7.
func Evaluate(f template.Field, rawText string) Result {
	value := extractValue(f.Regex, rawText)
	value = normalize.Apply(value, f.Normalizers)

	cast := castValue(value, f.Cast)

	present := isPresent(cast)
	return Result{Value: cast, Present: present}
}

// extractValue searches rawText with the field's regex (multiline +
// dotall). The first non-empty capture group wins; absent a capture
// group, the full match is used. No regex means the raw text passes
// through unchanged. No match, or an invalid pattern, yields "".
func extractValue(pattern, rawText string) string {
	if pattern == "" {
		return rawText
	}

	re, err := regexp.Compile("(?s)(?m)" + pattern)
	if err != nil {
		return ""
	}

	match := re.FindStringSubmatch(rawText)
	if match == nil {
		return ""
	}
	if len(match) > 1 {
		for _, g := range match[1:] {
			if g != "" {
				return g
			}
		}
	}
	return match[0]
}

// castValue applies the field's numeric cast, if any. "int" strips
// "," and "." before parsing; "float"/"decimal" strip "," only. A
// cast failure retains the normalized string rather than raising.
func castValue(value, cast string) any {
	if value == "" || cast == "" {
		return value
	}

	switch cast {
	case "int":
		stripped := strings.NewReplacer(",", "", ".", "").Replace(value)
		if n, err := strconv.ParseInt(stripped, 10, 64); err == nil {
			return n
		}
	case "float", "decimal":
		stripped := strings.ReplaceAll(value, ",", "")
		if f, err := strconv.ParseFloat(stripped, 64); err == nil {
			return f
		}
	}
	return value
}

// isPresent implements the fixed required rule from spec.md §9: only
// an empty string (or an absent match that produced one) counts as
// missing. A successful cast to 0 is present.
func isPresent(value any) bool {
	if s, ok := value.(string); ok {
		return s != ""
	}
	return true
}
