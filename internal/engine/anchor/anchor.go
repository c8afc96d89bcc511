// Package anchor matches a template's anchors against a page's text
// blocks to derive template->PDF point correspondences.
package anchor

import (
	"regexp"

	"github.com/pdftpl/templateengine/internal/block"
	"github.com/pdftpl/templateengine/internal/engine/geometry"
	"github.com/pdftpl/templateengine/internal/engine/transform"
	"github.com/pdftpl/templateengine/internal/template"
)

// Match is the outcome of matching one anchor on one page.
type Match struct {
	ID       string
	Matched  bool
	Expected transform.Point
	Found    transform.Point
	Block    *block.Block
}

// Compile builds the regexp for an anchor: text anchors are
// regex-escaped, regex anchors are used verbatim; multiline+dotall is
// always on, case-insensitive unless CaseSensitive is set.
func Compile(a template.Anchor) (*regexp.Regexp, error) {
	pat := a.Pattern
	if a.Kind == "text" {
		pat = regexp.QuoteMeta(pat)
	}

	flags := "(?s)(?m)"
	if !a.CaseSensitive {
		flags += "(?i)"
	}
	return regexp.Compile(flags + pat)
}

// Find locates the correspondence for one anchor among a page's
// blocks. It returns Matched=false (not an error) when no candidate
// block intersects the scaled search box and matches the pattern.
func Find(a template.Anchor, pageBlocks []block.Block, scale float64) Match {
	m := Match{ID: a.ID}

	if a.Pattern == "" {
		return m
	}

	sb := a.Resolved()
	searchRect := geometry.Rect{
		X0: sb.X * scale,
		Y0: sb.Y * scale,
		X1: (sb.X + sb.W) * scale,
		Y1: (sb.Y + sb.H) * scale,
	}

	pattern, err := Compile(a)
	if err != nil {
		return m
	}

	m.Expected = transform.Point{X: a.X * scale, Y: a.Y * scale}

	var best *block.Block
	bestDist := -1.0

	for i := range pageBlocks {
		b := pageBlocks[i]
		bRect := geometry.Rect{X0: b.X0(), Y0: b.Y0(), X1: b.X1(), Y1: b.Y1()}
		if !geometry.Intersects(searchRect, bRect, geometry.AnchorTolerance) {
			continue
		}
		if !pattern.MatchString(b.Text) {
			continue
		}

		dx := b.X0() - m.Expected.X
		dy := b.Y0() - m.Expected.Y
		dist := dx*dx + dy*dy

		if best == nil || dist < bestDist {
			best = &pageBlocks[i]
			bestDist = dist
		}
	}

	if best == nil {
		return m
	}

	m.Matched = true
	m.Found = transform.Point{X: best.X0(), Y: best.Y0()}
	m.Block = best
	return m
}
