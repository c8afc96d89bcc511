package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/pdftpl/templateengine/internal/engine/errors"
	"github.com/pdftpl/templateengine/internal/template"
)

func validTemplate() *template.Template {
	return &template.Template{
		ID:   "t1",
		Name: "Invoice",
		Boxes: []template.Box{
			{ID: "b1", Page: 1, X: 100, Y: 100, W: 80, H: 20},
		},
		Fields: []template.Field{
			{Key: "num", BoxID: "b1", Regex: `(\d+)`},
		},
		Meta: template.Meta{
			Pages: map[int]template.PageMeta{
				1: {
					PDFWidthBase: 600, PDFHeightBase: 800,
					RenderWidth: 600, RenderHeight: 800, ViewportScale: 1,
					Anchors: []template.Anchor{
						{ID: "a1", X: 10, Y: 10, Pattern: "A"},
						{ID: "a2", X: 500, Y: 10, Pattern: "B"},
						{ID: "a3", X: 10, Y: 700, Pattern: "C"},
					},
				},
			},
		},
	}
}

func TestValidate_OK(t *testing.T) {
	require.NoError(t, Validate(validTemplate()))
}

func TestValidate_MissingID(t *testing.T) {
	tpl := validTemplate()
	tpl.ID = ""
	assertValidationErr(t, Validate(tpl))
}

func TestValidate_EmptyPagesMeta(t *testing.T) {
	tpl := validTemplate()
	tpl.Meta.Pages = nil
	assertValidationErr(t, Validate(tpl))
}

func TestValidate_PageWithBoxNeedsThreeAnchors(t *testing.T) {
	tpl := validTemplate()
	pm := tpl.Meta.Pages[1]
	pm.Anchors = pm.Anchors[:2]
	tpl.Meta.Pages[1] = pm

	assertValidationErr(t, Validate(tpl))
}

func TestValidate_AnchorMissingPattern(t *testing.T) {
	tpl := validTemplate()
	pm := tpl.Meta.Pages[1]
	pm.Anchors[0].Pattern = ""
	tpl.Meta.Pages[1] = pm

	assertValidationErr(t, Validate(tpl))
}

func TestValidate_SearchBoxMustBePositive(t *testing.T) {
	tpl := validTemplate()
	pm := tpl.Meta.Pages[1]
	pm.Anchors[0].SearchBox = &template.SearchBox{X: 0, Y: 0, W: -1, H: 10}
	tpl.Meta.Pages[1] = pm

	assertValidationErr(t, Validate(tpl))
}

func TestValidate_IncompletePageMeta(t *testing.T) {
	tpl := validTemplate()
	pm := tpl.Meta.Pages[1]
	pm.RenderWidth = 0
	tpl.Meta.Pages[1] = pm

	assertValidationErr(t, Validate(tpl))
}

func TestValidate_MissingFieldKey(t *testing.T) {
	tpl := validTemplate()
	tpl.Fields[0].Key = ""
	assertValidationErr(t, Validate(tpl))
}

func TestValidate_FieldBoxIDMismatchIsNotAnError(t *testing.T) {
	tpl := validTemplate()
	tpl.Fields[0].BoxID = "does-not-exist"
	assert.NoError(t, Validate(tpl))
}

func assertValidationErr(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	var e *apperrors.Error
	require.True(t, apperrors.As(err, &e))
	assert.Equal(t, apperrors.KindValidation, e.Kind)
}
