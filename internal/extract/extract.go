// Package extract adapts the PDF library wrappers into
// block.PageExtractor implementations usable by the template engine.
package extract

import (
	"context"
	"fmt"

	"github.com/pdftpl/templateengine/internal/block"
	"github.com/pdftpl/templateengine/internal/pdf/wrapper"
)

// Native extracts text blocks using ledongthuc/pdf, the only backend
// this module has for a document's native text layer.
type Native struct{}

// NewNative builds a Native extractor.
func NewNative() *Native {
	return &Native{}
}

// Extract implements block.PageExtractor.
func (n *Native) Extract(_ context.Context, path string, pageNum int) (string, []block.Block, error) {
	reader, err := wrapper.OpenLedongthuc(path)
	if err != nil {
		return "", nil, fmt.Errorf("extract: open: %w", err)
	}
	defer reader.Close()

	lines, size, err := reader.PageText(pageNum)
	if err != nil {
		return "", nil, fmt.Errorf("extract: page %d: %w", pageNum, err)
	}

	blocks := make([]block.Block, 0, len(lines))
	var text string
	pw, ph := size.Width, size.Height

	for _, line := range lines {
		b := block.Block{
			Page:        pageNum,
			Coordinates: [4]float64{line.X0, line.Y0, line.X1, line.Y1},
			Text:        line.Text,
			PageWidth:   &pw,
			PageHeight:  &ph,
			Source:      "native",
			Kind:        "line",
		}
		blocks = append(blocks, block.FlipBottomLeftOrigin(b, ph))
		if text != "" {
			text += "\n"
		}
		text += line.Text
	}

	return text, blocks, nil
}

// Forms extracts AcroForm field values using pdfcpu. Form fields are
// document-scoped rather than page-scoped, so Extract returns every
// field that carries a value as a "name: value" line regardless of
// pageNum; fields without a value are skipped.
type Forms struct{}

// NewForms builds a Forms extractor backed by pdfcpu.
func NewForms() *Forms {
	return &Forms{}
}

// Extract implements block.PageExtractor. It returns no blocks —
// callers wanting form data as positioned blocks should match fields
// against a template's declared boxes by name instead.
func (f *Forms) Extract(_ context.Context, path string, _ int) (string, []block.Block, error) {
	fields, err := wrapper.OpenPDFCPUForms(path).ExtractForms()
	if err != nil {
		return "", nil, fmt.Errorf("extract: forms: %w", err)
	}

	var text string
	for _, fd := range fields {
		if fd.Value == nil {
			continue
		}
		if text != "" {
			text += "\n"
		}
		text += fmt.Sprintf("%s: %v", fd.Name, fd.Value)
	}
	return text, nil, nil
}

// Chain runs extractors in order and returns the first result
// carrying a non-empty block set, falling back to the next strategy
// otherwise (spec.md's "native text, fall back when empty" rule).
type Chain struct {
	Strategies []block.PageExtractor
}

// NewChain builds a Chain. NewDefaultChain is the common case: native
// text extraction only, since this module carries no OCR dependency.
func NewChain(strategies ...block.PageExtractor) *Chain {
	return &Chain{Strategies: strategies}
}

// NewDefaultChain returns the native-only chain.
func NewDefaultChain() *Chain {
	return NewChain(NewNative())
}

// Extract implements block.PageExtractor.
func (c *Chain) Extract(ctx context.Context, path string, pageNum int) (string, []block.Block, error) {
	var lastErr error
	for _, strategy := range c.Strategies {
		text, blocks, err := strategy.Extract(ctx, path, pageNum)
		if err != nil {
			lastErr = err
			continue
		}
		if len(blocks) > 0 {
			return text, blocks, nil
		}
	}
	if lastErr != nil {
		return "", nil, lastErr
	}
	return "", nil, nil
}
