// Package block defines the text-block type produced by the PDF/OCR
// layer and consumed by the template engine.
package block

import "context"

// Block is one text token/line emitted by the PDF/OCR layer together
// with its bounding rectangle in PDF points (top-left origin).
type Block struct {
	Page        int        `json:"page"`
	Coordinates [4]float64 `json:"coordinates"` // x0, y0, x1, y1
	Text        string     `json:"text"`
	PageWidth   *float64   `json:"page_width,omitempty"`
	PageHeight  *float64   `json:"page_height,omitempty"`
	Source      string     `json:"source,omitempty"` // "native"|"ocr"
	Kind        string     `json:"kind,omitempty"`   // "line"|"word"|"block"
	Conf        *int       `json:"conf,omitempty"`
}

// X0 returns the left edge of the block's bounding box.
func (b Block) X0() float64 { return b.Coordinates[0] }

// Y0 returns the top edge of the block's bounding box.
func (b Block) Y0() float64 { return b.Coordinates[1] }

// X1 returns the right edge of the block's bounding box.
func (b Block) X1() float64 { return b.Coordinates[2] }

// Y1 returns the bottom edge of the block's bounding box.
func (b Block) Y1() float64 { return b.Coordinates[3] }

// PageExtractor produces the text and Block stream for one page of a
// PDF file. Implementations are the core's external collaborator:
// native-text readers, OCR readers, or a strategy chain over both.
type PageExtractor interface {
	Extract(ctx context.Context, path string, pageNum int) (text string, blocks []Block, err error)
}

// FlipBottomLeftOrigin converts a block whose coordinates were emitted
// with a bottom-left origin (PDF's native convention) to the top-left
// origin the engine requires, given the page height.
func FlipBottomLeftOrigin(b Block, pageHeight float64) Block {
	out := b
	y0, y1 := b.Coordinates[1], b.Coordinates[3]
	out.Coordinates[1] = pageHeight - y1
	out.Coordinates[3] = pageHeight - y0
	return out
}
