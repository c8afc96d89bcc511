// Package totals implements a template-free heuristic for locating
// labeled monetary amounts ("Total", "Subtotal", "IVA", ...) in raw
// page text, for documents no template has been registered for yet.
package totals

import (
	"regexp"
	"strconv"
	"strings"
)

var amountPattern = regexp.MustCompile(`([0-9][\d.,]*[0-9])`)

// DefaultLabels are the label patterns tried, in order, by Find. Each
// is matched case-insensitively against a line of text.
var DefaultLabels = []string{
	`(?i)total\s*a\s*pagar`,
	`(?i)gran\s*total`,
	`(?i)\btotal\b`,
	`(?i)subtotal`,
	`(?i)\biva\b`,
}

// Match is one labeled amount found in a document's text.
type Match struct {
	Label string
	Value string
	// Numeric is the parsed value, or nil if the matched text could
	// not be parsed as a number.
	Numeric *float64
}

// Find scans text for the first of labels (falling back to
// DefaultLabels if nil) that appears on a line, and returns the
// nearest amount: first tried on the same line after the label, then
// on up to the next three lines, mirroring the original label-search
// heuristic this module was distilled from.
func Find(text string, labels []string) *Match {
	if labels == nil {
		labels = DefaultLabels
	}
	lines := strings.Split(text, "\n")

	for _, labelPattern := range labels {
		labelRe, err := regexp.Compile(labelPattern)
		if err != nil {
			continue
		}
		for i, line := range lines {
			loc := labelRe.FindStringIndex(line)
			if loc == nil {
				continue
			}
			if amount := amountPattern.FindString(line[loc[1]:]); amount != "" {
				return newMatch(labelPattern, amount)
			}
			for j := i + 1; j < len(lines) && j <= i+3; j++ {
				if amount := amountPattern.FindString(strings.TrimSpace(lines[j])); amount != "" {
					return newMatch(labelPattern, amount)
				}
			}
		}
	}
	return nil
}

func newMatch(label, raw string) *Match {
	m := &Match{Label: label, Value: raw}
	if v, ok := parseAmount(raw); ok {
		m.Numeric = &v
	}
	return m
}

// parseAmount handles both comma-decimal ("1.234,56") and
// dot-decimal ("1,234.56") formats: the rightmost separator, if
// followed by exactly two digits, is treated as the decimal point;
// every other separator is a thousands grouping and is stripped.
func parseAmount(raw string) (float64, bool) {
	lastComma := strings.LastIndex(raw, ",")
	lastDot := strings.LastIndex(raw, ".")

	var decimalAt int = -1
	if lastComma > lastDot && len(raw)-lastComma-1 == 2 {
		decimalAt = lastComma
	} else if lastDot > lastComma && len(raw)-lastDot-1 == 2 {
		decimalAt = lastDot
	}

	var b strings.Builder
	for i, r := range raw {
		if r == '.' || r == ',' {
			if i == decimalAt {
				b.WriteByte('.')
			}
			continue
		}
		b.WriteRune(r)
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// Stats accumulates page-level extraction metrics across a document:
// how many pages were handled natively versus by a fallback strategy,
// and the total characters produced.
type Stats struct {
	nativePages int
	otherPages  int
	totalChars  int
}

// Add records one processed page's strategy and character count.
func (s *Stats) Add(strategyUsed string, characterCount int) {
	if strategyUsed == "native" {
		s.nativePages++
	} else {
		s.otherPages++
	}
	if characterCount > 0 {
		s.totalChars += characterCount
	}
}

// Snapshot is the accumulated metrics at a point in time.
type Snapshot struct {
	NativePages     int `json:"native_pages"`
	OtherPages      int `json:"other_pages"`
	TotalCharacters int `json:"total_characters"`
}

// Snapshot returns the current accumulated metrics.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		NativePages:     s.nativePages,
		OtherPages:      s.otherPages,
		TotalCharacters: s.totalChars,
	}
}
