// Package assembler reprojects a template box through a page's fitted
// transform and concatenates the text blocks that fall inside it in
// reading order.
package assembler

import (
	"strings"

	"github.com/pdftpl/templateengine/internal/block"
	"github.com/pdftpl/templateengine/internal/engine/geometry"
	"github.com/pdftpl/templateengine/internal/engine/transform"
)

// Assemble selects the blocks intersecting rect (at
// geometry.DefaultTolerance), clusters them into reading order, and
// joins the result: rows with newlines, blocks within a row with a
// single space. Returns "" if no block intersects.
func Assemble(rect geometry.Rect, pageBlocks []block.Block) string {
	var located []geometry.Located[block.Block]

	for _, b := range pageBlocks {
		bRect := geometry.Rect{X0: b.X0(), Y0: b.Y0(), X1: b.X1(), Y1: b.Y1()}
		if geometry.Intersects(rect, bRect, geometry.DefaultTolerance) {
			located = append(located, geometry.Located[block.Block]{Rect: bRect, Item: b})
		}
	}

	if len(located) == 0 {
		return ""
	}

	rows := geometry.Rows(located, geometry.DefaultRowTolerance)
	return joinRows(rows)
}

// joinRows concatenates block texts within a row with a space and
// joins rows with a newline. Reading order (top-to-bottom,
// left-to-right) is already established by geometry.Rows.
func joinRows(rows [][]geometry.Located[block.Block]) string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		texts := make([]string, len(row))
		for j, it := range row {
			texts[j] = it.Item.Text
		}
		lines[i] = strings.Join(texts, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// TransformBox is re-exported for callers that only need box
// reprojection without a full assembler round trip (debug rendering).
func TransformBox(t transform.Matrix, box transform.Box) geometry.Rect {
	return transform.TransformBox(t, box)
}
