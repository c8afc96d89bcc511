// Package schema validates a Template's shape before it is applied:
// anchor counts, searchBox geometry, and page-meta completeness.
package schema

import (
	"fmt"

	apperrors "github.com/pdftpl/templateengine/internal/engine/errors"
	"github.com/pdftpl/templateengine/internal/template"
)

// Validate checks the invariants spec.md §4.8 requires at template
// submission time and returns a KindValidation error naming the
// offending path on the first violation found.
func Validate(t *template.Template) error {
	if t.ID == "" {
		return apperrors.Validation("id", "template id is required")
	}

	if len(t.Meta.Pages) == 0 {
		return apperrors.Validation("meta.pages", "meta.pages must be a non-empty mapping")
	}

	pagesWithBoxes := map[int]bool{}
	for _, b := range t.Boxes {
		pagesWithBoxes[b.Page] = true
	}

	for page, pm := range t.Meta.Pages {
		path := fmt.Sprintf("meta.pages[%d]", page)

		if pm.PDFWidthBase == 0 || pm.PDFHeightBase == 0 || pm.RenderWidth == 0 || pm.RenderHeight == 0 {
			return apperrors.Validation(path, "pdfWidthBase, pdfHeightBase, renderWidth and renderHeight are required")
		}
		// ViewportScale is part of the required five numeric fields
		// (spec.md §3); it may legitimately be 1.0 but must be present,
		// which a zero-value struct cannot distinguish from "absent" —
		// treated as present since a template builder always sets it
		// from real viewport state.

		if pagesWithBoxes[page] && len(pm.Anchors) < 3 {
			return apperrors.Validation(path+".anchors", "a page with boxes must declare at least 3 anchors")
		}

		for i, a := range pm.Anchors {
			apath := fmt.Sprintf("%s.anchors[%d]", path, i)
			if a.ID == "" {
				return apperrors.Validation(apath+".id", "anchor id is required")
			}
			if a.Pattern == "" {
				return apperrors.Validation(apath+".pattern", "anchor pattern is required")
			}
			if a.Kind != "" && a.Kind != "text" && a.Kind != "regex" {
				return apperrors.Validation(apath+".kind", "anchor kind must be \"text\" or \"regex\"")
			}
			if a.SearchBox != nil && (a.SearchBox.W <= 0 || a.SearchBox.H <= 0) {
				return apperrors.Validation(apath+".searchBox", "searchBox must have positive w and h")
			}
		}
	}

	for i, b := range t.Boxes {
		bpath := fmt.Sprintf("boxes[%d]", i)
		if b.ID == "" {
			return apperrors.Validation(bpath+".id", "box id is required")
		}
		if b.W <= 0 || b.H <= 0 {
			return apperrors.Validation(bpath, "box w and h must be positive")
		}
	}

	// A field's boxId referencing no declared box is deliberately NOT a
	// schema violation: spec.md §4.6 treats it as a non-fatal, empty-text
	// outcome at apply time, not a structural error at submission time.
	for i, f := range t.Fields {
		fpath := fmt.Sprintf("fields[%d]", i)
		if f.Key == "" {
			return apperrors.Validation(fpath+".key", "field key is required")
		}
		if f.Cast != "" && f.Cast != "int" && f.Cast != "float" && f.Cast != "decimal" {
			return apperrors.Validation(fpath+".cast", "cast must be \"int\", \"float\" or \"decimal\"")
		}
	}

	return nil
}
