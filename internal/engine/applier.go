// Package engine implements the template-application orchestrator:
// per-page transform fitting, box reprojection and text assembly, and
// field evaluation, tying together the C1-C8 components.
package engine

import (
	"log/slog"
	"sort"

	"github.com/pdftpl/templateengine/internal/block"
	"github.com/pdftpl/templateengine/internal/engine/anchor"
	"github.com/pdftpl/templateengine/internal/engine/assembler"
	"github.com/pdftpl/templateengine/internal/engine/field"
	"github.com/pdftpl/templateengine/internal/engine/schema"
	"github.com/pdftpl/templateengine/internal/engine/transform"
	"github.com/pdftpl/templateengine/internal/template"
)

// Options controls how Apply runs.
type Options struct {
	IncludeDebug bool
}

// Result is the template-application output: typed field values, the
// keys of required fields that ended up missing, and (optionally) the
// diagnostics envelope.
type Result struct {
	Values          map[string]any `json:"values"`
	MissingRequired []string       `json:"missing_required"`
	Debug           *Debug         `json:"debug,omitempty"`
}

// Debug holds the anchor, transform, and box diagnostics attached
// when Options.IncludeDebug is set.
type Debug struct {
	Anchors    map[int]PageAnchorDebug `json:"anchors"`
	Transforms map[int][2][3]float64  `json:"transforms"`
	Boxes      map[string]BoxDebug    `json:"boxes"`
}

// PageAnchorDebug reports, for one page, which anchors matched and
// the transform fitted from the correspondences found.
type PageAnchorDebug struct {
	Found []AnchorDebug         `json:"found"`
	T     [2][3]float64         `json:"T"`
}

// AnchorDebug is one anchor's match outcome.
type AnchorDebug struct {
	ID       string           `json:"id"`
	Matched  bool             `json:"matched"`
	Expected *transform.Point `json:"expected,omitempty"`
	Found    *transform.Point `json:"found,omitempty"`
}

// BoxDebug reports a single box's reprojected rectangle and a text
// preview.
type BoxDebug struct {
	BoxName     string     `json:"box_name,omitempty"`
	Page        int        `json:"page"`
	RectPDF     [4]float64 `json:"rect_pdf"`
	TextPreview string     `json:"text_preview"`
}

const textPreviewLimit = 300

// Applier is anything that can apply a template to a block stream.
// Satisfied by *Engine; named as an interface so httpapi/mcpapi can
// depend on the capability rather than the concrete type.
type Applier interface {
	Apply(tpl *template.Template, blocks []block.Block, opts Options) (*Result, error)
}

// Engine applies templates to block streams. It is stateless and
// safe for concurrent use across distinct inputs; per-request caches
// live only inside one Apply call.
type Engine struct {
	logger *slog.Logger
}

// New builds an Engine. A nil logger defaults to slog.Default().
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// Apply registers tpl against blocks and evaluates its fields,
// returning a best-effort Result. The only error path is a structural
// schema violation (spec.md §4.6); anchor misses, missing box
// references, and cast failures never cause Apply to return an error.
func (a *Engine) Apply(tpl *template.Template, blocks []block.Block, opts Options) (*Result, error) {
	if err := schema.Validate(tpl); err != nil {
		return nil, err
	}

	byPage, pageSize := groupBlocksByPage(blocks)

	transforms := make(map[int]transform.Matrix)
	anchorDebug := make(map[int]PageAnchorDebug)

	pages := pagesToProcess(tpl, byPage)
	for _, page := range pages {
		pm, hasMeta := tpl.Meta.Pages[page]
		pageBlocks := byPage[page]

		if !hasMeta {
			transforms[page] = fallbackTransform(tpl, page, pageSize)
			continue
		}

		t, dbg := fitPageTransform(pm, pageBlocks)
		transforms[page] = t
		if opts.IncludeDebug {
			anchorDebug[page] = dbg
		}
	}

	boxTextCache := make(map[string]string, len(tpl.Boxes))
	boxDebug := make(map[string]BoxDebug, len(tpl.Boxes))

	for _, box := range tpl.Boxes {
		t, ok := transforms[box.Page]
		if !ok {
			t = fallbackTransform(tpl, box.Page, pageSize)
			transforms[box.Page] = t
		}

		rect := transform.TransformBox(t, transform.Box{X: box.X, Y: box.Y, W: box.W, H: box.H})
		text := assembler.Assemble(rect, byPage[box.Page])
		boxTextCache[box.ID] = text

		if opts.IncludeDebug {
			boxDebug[box.ID] = BoxDebug{
				BoxName:     box.Name,
				Page:        box.Page,
				RectPDF:     [4]float64{rect.X0, rect.Y0, rect.X1, rect.Y1},
				TextPreview: preview(text, textPreviewLimit),
			}
		}
	}

	values := make(map[string]any, len(tpl.Fields))
	var missingRequired []string

	for _, f := range tpl.Fields {
		raw := boxTextCache[f.BoxID]
		res := func() (r field.Result) {
			defer func() {
				if rec := recover(); rec != nil {
					a.logger.Warn("field evaluation panicked, using empty value",
						"field_key", f.Key, "box_id", f.BoxID, "panic", rec)
					r = field.Result{Value: "", Present: false}
				}
			}()
			return field.Evaluate(f, raw)
		}()

		values[f.Key] = res.Value
		if f.Required && !res.Present {
			missingRequired = append(missingRequired, f.Key)
		}
	}
	if missingRequired == nil {
		missingRequired = []string{}
	}

	result := &Result{Values: values, MissingRequired: missingRequired}

	if opts.IncludeDebug {
		transformRows := make(map[int][2][3]float64, len(transforms))
		for p, t := range transforms {
			transformRows[p] = t.AsRows()
		}
		result.Debug = &Debug{
			Anchors:    anchorDebug,
			Transforms: transformRows,
			Boxes:      boxDebug,
		}
	}

	return result, nil
}

// groupBlocksByPage buckets blocks by page and derives each page's
// (width, height): from the first block declaring page_width/height,
// else the max x1/y1 seen on that page.
func groupBlocksByPage(blocks []block.Block) (map[int][]block.Block, map[int][2]float64) {
	byPage := make(map[int][]block.Block)
	pageSize := make(map[int][2]float64)

	for _, b := range blocks {
		page := b.Page
		byPage[page] = append(byPage[page], b)
		if b.PageWidth != nil && b.PageHeight != nil {
			if _, ok := pageSize[page]; !ok {
				pageSize[page] = [2]float64{*b.PageWidth, *b.PageHeight}
			}
		}
	}

	for page, pageBlocks := range byPage {
		if _, ok := pageSize[page]; ok {
			continue
		}
		maxX, maxY := 0.0, 0.0
		for _, b := range pageBlocks {
			if b.X1() > maxX {
				maxX = b.X1()
			}
			if b.Y1() > maxY {
				maxY = b.Y1()
			}
		}
		pageSize[page] = [2]float64{maxX, maxY}
	}

	return byPage, pageSize
}

// pagesToProcess is the union of pages present in the blocks and
// pages declared in the template's meta, sorted for deterministic
// debug output.
func pagesToProcess(tpl *template.Template, byPage map[int][]block.Block) []int {
	set := make(map[int]bool)
	for p := range byPage {
		set[p] = true
	}
	for p := range tpl.Meta.Pages {
		set[p] = true
	}

	pages := make([]int, 0, len(set))
	for p := range set {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// fitPageTransform matches a page's anchors and fits the transform
// mode appropriate to how many correspondences were found
// (spec.md §4.2).
func fitPageTransform(pm template.PageMeta, pageBlocks []block.Block) (transform.Matrix, PageAnchorDebug) {
	scale := transform.ScaleFromMeta(pm.PDFWidthBase, pm.RenderWidth)

	var src, dst []transform.Point
	var found []AnchorDebug

	for _, a := range pm.Anchors {
		m := anchor.Find(a, pageBlocks, scale)
		if !m.Matched {
			found = append(found, AnchorDebug{ID: a.ID, Matched: false})
			continue
		}

		src = append(src, transform.Point{X: a.X, Y: a.Y})
		dst = append(dst, m.Found)

		expected := m.Expected
		fnd := m.Found
		found = append(found, AnchorDebug{ID: a.ID, Matched: true, Expected: &expected, Found: &fnd})
	}

	var t transform.Matrix
	switch len(src) {
	case 0:
		t = transform.Diagonal(scale, scale)
	case 1:
		t = transform.ScaledTranslation(scale, src[0], dst[0])
	case 2:
		t = transform.FitSimilarity(src[0], src[1], dst[0], dst[1])
	default:
		t = transform.FitAffine(src, dst)
	}

	return t, PageAnchorDebug{Found: found, T: t.AsRows()}
}

// fallbackTransform is used for a page that has blocks but no
// declared meta: a diagonal scale derived from the page's inferred
// size and the template's nominal render size.
func fallbackTransform(tpl *template.Template, page int, pageSize map[int][2]float64) transform.Matrix {
	size, ok := pageSize[page]
	if !ok {
		size = [2]float64{600.0, 800.0}
	}
	pw, ph := size[0], size[1]

	rw, rh := 600.0, 800.0
	for _, pm := range tpl.Meta.Pages {
		rw, rh = pm.RenderWidth, pm.RenderHeight
		break
	}
	if rw == 0 {
		rw = 600.0
	}
	if rh == 0 {
		rh = 800.0
	}

	return transform.Diagonal(pw/rw, ph/rh)
}

func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}
