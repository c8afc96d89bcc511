// Package transform fits and applies the affine transform mapping
// template coordinates to PDF coordinates.
package transform

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/pdftpl/templateengine/internal/engine/geometry"
)

// Matrix is a 2x3 affine transform: [[A,B,C],[D,E,F]], mapping
// (x, y, 1) -> (u, v).
type Matrix struct {
	A, B, C float64
	D, E, F float64
}

// Point is a 2D coordinate.
type Point struct{ X, Y float64 }

// Apply maps a template point to its PDF-space image under T.
func (t Matrix) Apply(x, y float64) Point {
	return Point{
		X: t.A*x + t.B*y + t.C,
		Y: t.D*x + t.E*y + t.F,
	}
}

// Identity returns the identity affine transform.
func Identity() Matrix {
	return Matrix{A: 1, D: 0, B: 0, E: 1, C: 0, F: 0}
}

// Diagonal returns the metadata-only fallback transform: a diagonal
// scale with no rotation or translation (spec.md §4.2, n=0).
func Diagonal(sx, sy float64) Matrix {
	return Matrix{A: sx, B: 0, C: 0, D: 0, E: sy, F: 0}
}

// ScaledTranslation builds the n=1 fallback transform: uniform
// meta-scale plus a translation recovered from the single
// correspondence.
func ScaledTranslation(scale float64, p, q Point) Matrix {
	du := q.X - scale*p.X
	dv := q.Y - scale*p.Y
	return Matrix{A: scale, B: 0, C: du, D: 0, E: scale, F: dv}
}

// FitSimilarity fits a uniform scale + rotation + translation from
// exactly two correspondences (spec.md §4.2, n=2).
func FitSimilarity(p1, p2, q1, q2 Point) Matrix {
	vxP, vyP := p2.X-p1.X, p2.Y-p1.Y
	vxQ, vyQ := q2.X-q1.X, q2.Y-q1.Y

	normP := math.Hypot(vxP, vyP)
	if normP == 0 {
		normP = 1.0
	}
	normQ := math.Hypot(vxQ, vyQ)
	s := normQ / normP

	theta := math.Atan2(vyQ, vxQ) - math.Atan2(vyP, vxP)
	cosT, sinT := math.Cos(theta), math.Sin(theta)

	a := s * cosT
	b := s * -sinT
	d := s * sinT
	e := s * cosT
	c := q1.X - (a*p1.X + b*p1.Y)
	f := q1.Y - (d*p1.X + e*p1.Y)

	return Matrix{A: a, B: b, C: c, D: d, E: e, F: f}
}

// FitAffine fits a full 2x3 affine transform from n>=3 correspondences
// by linear least squares: stacks a 2n x 6 design matrix and solves
// for the 6 unknown coefficients with gonum (QR-backed), matching the
// spec's required 1e-9 precision on identity/exact inputs.
func FitAffine(src, dst []Point) Matrix {
	n := len(src)
	a := mat.NewDense(2*n, 6, nil)
	b := mat.NewDense(2*n, 1, nil)

	for i := 0; i < n; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		a.SetRow(2*i, []float64{x, y, 1, 0, 0, 0})
		a.SetRow(2*i+1, []float64{0, 0, 0, x, y, 1})
		b.Set(2*i, 0, u)
		b.Set(2*i+1, 0, v)
	}

	var theta mat.Dense
	if err := theta.Solve(a, b); err != nil {
		// Degenerate design matrix (e.g. collinear anchors): fall back
		// to the least-squares solution via the normal equations,
		// which tolerates rank deficiency better than a direct solve.
		var at, ata, atb mat.Dense
		at.CloneFrom(a.T())
		ata.Mul(&at, a)
		atb.Mul(&at, b)
		_ = theta.Solve(&ata, &atb)
	}

	return Matrix{
		A: theta.At(0, 0), B: theta.At(1, 0), C: theta.At(2, 0),
		D: theta.At(3, 0), E: theta.At(4, 0), F: theta.At(5, 0),
	}
}

// ScaleFromMeta computes s = pdfWidthBase / renderWidth, the factor
// converting template coordinates to PDF points.
func ScaleFromMeta(pdfWidthBase, renderWidth float64) float64 {
	if renderWidth == 0 {
		renderWidth = 600.0
	}
	if pdfWidthBase == 0 {
		pdfWidthBase = renderWidth
	}
	return pdfWidthBase / renderWidth
}

// Box is the minimal shape TransformBox needs from a template box.
type Box struct {
	X, Y, W, H float64
}

// TransformBox maps a box's four corners through T and returns the
// axis-aligned bounding box of their images. This tolerates moderate
// rotation while keeping the downstream spatial query axis-aligned.
func TransformBox(t Matrix, box Box) geometry.Rect {
	corners := [4]Point{
		{box.X, box.Y},
		{box.X + box.W, box.Y},
		{box.X + box.W, box.Y + box.H},
		{box.X, box.Y + box.H},
	}

	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range corners {
		p := t.Apply(c.X, c.Y)
		minX = math.Min(minX, p.X)
		maxX = math.Max(maxX, p.X)
		minY = math.Min(minY, p.Y)
		maxY = math.Max(maxY, p.Y)
	}

	return geometry.Rect{X0: minX, Y0: minY, X1: maxX, Y1: maxY}
}

// AsRows returns T in the [[a,b,c],[d,e,f]] form used by the debug
// envelope.
func (t Matrix) AsRows() [2][3]float64 {
	return [2][3]float64{{t.A, t.B, t.C}, {t.D, t.E, t.F}}
}
