// Package geometry provides the axis-aligned rectangle operations and
// row-clustering logic shared by anchor matching and box text
// assembly.
package geometry

import "sort"

// DefaultTolerance is the inflation tolerance applied to rectangle
// intersection tests in most of the engine (box reprojection).
const DefaultTolerance = 0.75

// AnchorTolerance is the tolerance used when matching an anchor's
// search box against candidate blocks.
const AnchorTolerance = 0.5

// DefaultRowTolerance is the default vertical jitter, in PDF points,
// tolerated within one visual row during clustering.
const DefaultRowTolerance = 14.0

// Rect is an axis-aligned rectangle: (X0, Y0) top-left, (X1, Y1)
// bottom-right, in PDF points.
type Rect struct {
	X0, Y0, X1, Y1 float64
}

// Intersects reports whether a and b overlap once a is inflated by
// tol on every side.
func Intersects(a, b Rect, tol float64) bool {
	ax0, ay0, ax1, ay1 := a.X0-tol, a.Y0-tol, a.X1+tol, a.Y1+tol
	bx0, by0, bx1, by1 := b.X0, b.Y0, b.X1, b.Y1
	return !(ax1 <= bx0 || bx1 <= ax0 || ay1 <= by0 || by1 <= ay0)
}

// Located is the minimal shape row clustering needs from a caller's
// item: its bounding box. Generic over T so callers (blocks, anchor
// candidates) don't have to convert to an intermediate type.
type Located[T any] struct {
	Rect Rect
	Item T
}

// ClusterRows sorts items into reading order: ascending by Y0 to walk
// rows, grouping items whose Y0 falls within rowTol of the row's
// base Y0, then sorting each row ascending by X0 and the rows
// themselves ascending by their first item's Y0. The result is a flat,
// deterministic reading order robust to minor vertical jitter within
// one visual line.
func ClusterRows[T any](items []Located[T], rowTol float64) []Located[T] {
	if len(items) == 0 {
		return nil
	}
	rows := Rows(items, rowTol)
	out := make([]Located[T], 0, len(items))
	for _, row := range rows {
		out = append(out, row...)
	}
	return out
}

// Rows groups items into reading-order rows without flattening them,
// for callers (the box text assembler) that need the row boundaries
// to join within-row and between-row text differently.
func Rows[T any](items []Located[T], rowTol float64) [][]Located[T] {
	if len(items) == 0 {
		return nil
	}

	sorted := make([]Located[T], len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Rect.Y0 < sorted[j].Rect.Y0 })

	var rows [][]Located[T]
	current := []Located[T]{sorted[0]}
	baseY := sorted[0].Rect.Y0

	for _, it := range sorted[1:] {
		if abs(it.Rect.Y0-baseY) <= rowTol {
			current = append(current, it)
			continue
		}
		sortByX(current)
		rows = append(rows, current)
		current = []Located[T]{it}
		baseY = it.Rect.Y0
	}
	sortByX(current)
	rows = append(rows, current)

	sort.SliceStable(rows, func(i, j int) bool { return rows[i][0].Rect.Y0 < rows[j][0].Rect.Y0 })
	return rows
}

func sortByX[T any](row []Located[T]) {
	sort.SliceStable(row, func(i, j int) bool { return row[i].Rect.X0 < row[j].Rect.X0 })
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
