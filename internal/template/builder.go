package template

import (
	"strings"

	"github.com/google/uuid"

	"github.com/pdftpl/templateengine/internal/block"
)

// FieldSelection is one user-drawn box/field pair, as collected by a
// template-authoring UI: a page, a rectangle, and the extraction rule
// to apply to whatever text lands inside it.
type FieldSelection struct {
	Name        string
	Page        int
	X, Y, W, H  float64
	Required    bool
	Normalizers []string
	Regex       string
	Cast        string
}

// NewFromSelections builds a Template directly from a set of
// user-drawn selections, one box per field. Meta.Pages is left empty,
// so the result does not pass schema validation (and Engine.Apply
// rejects it) until the caller adds page metadata with anchors.
func NewFromSelections(id, name string, selections []FieldSelection) *Template {
	tpl := &Template{ID: id, Name: name, Meta: Meta{Pages: map[int]PageMeta{}}}

	for _, s := range selections {
		boxID := uuid.NewString()
		tpl.Boxes = append(tpl.Boxes, Box{
			ID: boxID, Page: s.Page, X: s.X, Y: s.Y, W: s.W, H: s.H, Name: s.Name,
		})
		tpl.Fields = append(tpl.Fields, Field{
			Key: s.Name, BoxID: boxID, Required: s.Required,
			Normalizers: s.Normalizers, Regex: s.Regex, Cast: s.Cast,
		})
	}
	return tpl
}

// AnchorSeed describes a field whose box is positioned relative to an
// anchor block found by text search, rather than drawn directly: the
// box sits at an (dx, dy) offset from the matched anchor's top-right
// corner, sized (w, h).
type AnchorSeed struct {
	Name       string
	Page       int
	AnchorText string
	DX, DY     float64
	W, H       float64
	Required   bool
	Cast       string
}

// NewFromAnchors builds a Template by locating each seed's anchor text
// among the supplied blocks (first case-insensitive substring match on
// that page) and placing the field's box at the declared offset from
// it. A seed whose anchor text is not found in blocks is skipped.
func NewFromAnchors(id, name string, seeds []AnchorSeed, blocks []block.Block) *Template {
	tpl := &Template{ID: id, Name: name, Meta: Meta{Pages: map[int]PageMeta{}}}

	for _, seed := range seeds {
		match := findAnchorBlock(seed, blocks)
		if match == nil {
			continue
		}

		boxID := uuid.NewString()
		tpl.Boxes = append(tpl.Boxes, Box{
			ID:   boxID,
			Page: seed.Page,
			X:    match.X1() + seed.DX,
			Y:    match.Y0() + seed.DY,
			W:    seed.W,
			H:    seed.H,
			Name: seed.Name,
		})
		tpl.Fields = append(tpl.Fields, Field{
			Key: seed.Name, BoxID: boxID, Required: seed.Required, Cast: seed.Cast,
		})
	}
	return tpl
}

func findAnchorBlock(seed AnchorSeed, blocks []block.Block) *block.Block {
	needle := strings.ToLower(seed.AnchorText)
	for i := range blocks {
		b := &blocks[i]
		if b.Page != seed.Page {
			continue
		}
		if strings.Contains(strings.ToLower(b.Text), needle) {
			return b
		}
	}
	return nil
}
