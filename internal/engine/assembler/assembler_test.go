package assembler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pdftpl/templateengine/internal/block"
	"github.com/pdftpl/templateengine/internal/engine/geometry"
	"github.com/pdftpl/templateengine/internal/engine/transform"
)

func mkBlock(x0, y0, x1, y1 float64, text string) block.Block {
	return block.Block{Coordinates: [4]float64{x0, y0, x1, y1}, Text: text}
}

func TestAssemble_SingleRow(t *testing.T) {
	rect := geometry.Rect{X0: 0, Y0: 0, X1: 200, Y1: 20}
	blocks := []block.Block{
		mkBlock(100, 5, 150, 15, "World"),
		mkBlock(10, 5, 90, 15, "Hello"),
	}

	got := Assemble(rect, blocks)
	assert.Equal(t, "Hello World", got)
}

func TestAssemble_MultipleRowsJoinedWithNewline(t *testing.T) {
	rect := geometry.Rect{X0: 0, Y0: 0, X1: 200, Y1: 40}
	blocks := []block.Block{
		mkBlock(10, 25, 90, 35, "Second"),
		mkBlock(10, 5, 90, 15, "First"),
	}

	got := Assemble(rect, blocks)
	assert.Equal(t, "First\nSecond", got)
}

func TestAssemble_NoIntersectionIsEmpty(t *testing.T) {
	rect := geometry.Rect{X0: 0, Y0: 0, X1: 20, Y1: 20}
	blocks := []block.Block{mkBlock(500, 500, 560, 520, "far away")}

	got := Assemble(rect, blocks)
	assert.Equal(t, "", got)
}

func TestAssemble_WithinToleranceIncluded(t *testing.T) {
	rect := geometry.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}
	// block starts just past rect edge, within DefaultTolerance (0.75)
	blocks := []block.Block{mkBlock(10.5, 1, 30, 9, "close")}

	got := Assemble(rect, blocks)
	assert.Equal(t, "close", got)
}

func TestAssemble_BeyondToleranceExcluded(t *testing.T) {
	rect := geometry.Rect{X0: 0, Y0: 0, X1: 10, Y1: 10}
	blocks := []block.Block{mkBlock(15, 1, 30, 9, "too far")}

	got := Assemble(rect, blocks)
	assert.Equal(t, "", got)
}

func TestTransformBox_DelegatesToTransform(t *testing.T) {
	m := transform.Diagonal(2, 2)
	box := transform.Box{X: 10, Y: 10, W: 5, H: 5}

	rect := TransformBox(m, box)
	assert.InDelta(t, 20.0, rect.X0, 1e-9)
	assert.InDelta(t, 20.0, rect.Y0, 1e-9)
	assert.InDelta(t, 30.0, rect.X1, 1e-9)
	assert.InDelta(t, 30.0, rect.Y1, 1e-9)
}
