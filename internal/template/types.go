// Package template defines the spatial-template data model: boxes,
// fields, anchors, and per-page metadata used to register a template
// against an actual PDF.
package template

// Template is a user-authored spatial template, persisted by an
// external repository and treated as an immutable value by the
// engine.
type Template struct {
	ID     string          `json:"id"`
	Name   string          `json:"name"`
	Boxes  []Box           `json:"boxes"`
	Fields []Field         `json:"fields"`
	Meta   Meta            `json:"meta"`
}

// Box is a rectangle in template/render coordinates identifying a
// region of interest.
type Box struct {
	ID   string  `json:"id"`
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	W    float64 `json:"w"`
	H    float64 `json:"h"`
	Name string  `json:"name,omitempty"`
}

// Field is an extraction rule producing one key/value from a box's
// assembled text.
type Field struct {
	Key         string   `json:"key"`
	BoxID       string   `json:"boxId"`
	Required    bool     `json:"required,omitempty"`
	Normalizers []string `json:"normalizers,omitempty"`
	Regex       string   `json:"regex,omitempty"`
	Cast        string   `json:"cast,omitempty"` // "int"|"float"|"decimal"
}

// Meta holds per-page metadata, keyed by page number.
type Meta struct {
	Pages map[int]PageMeta `json:"pages"`
}

// PageMeta describes the render-to-PDF coordinate relationship and
// the anchors used to register this page.
type PageMeta struct {
	PDFWidthBase  float64  `json:"pdfWidthBase"`
	PDFHeightBase float64  `json:"pdfHeightBase"`
	RenderWidth   float64  `json:"renderWidth"`
	RenderHeight  float64  `json:"renderHeight"`
	ViewportScale float64  `json:"viewportScale"`
	Rotation      float64  `json:"rotation,omitempty"`
	Anchors       []Anchor `json:"anchors"`
}

// Anchor is a named regex/text probe with an expected location used
// to register a template against a page.
type Anchor struct {
	ID            string     `json:"id"`
	Name          string     `json:"name,omitempty"`
	X             float64    `json:"x"`
	Y             float64    `json:"y"`
	Kind          string     `json:"kind"` // "text"|"regex"
	Pattern       string     `json:"pattern"`
	CaseSensitive bool       `json:"caseSensitive,omitempty"`
	SearchBox     *SearchBox `json:"searchBox,omitempty"`
}

// SearchBox bounds where an anchor's match may be found, in template
// coordinates. DefaultSearchBox mirrors the spec's default of
// {x-50, y-20, 100, 40} around the anchor's expected point.
type SearchBox struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// DefaultSearchBox returns the default search box for an anchor
// expected at (x, y).
func DefaultSearchBox(x, y float64) SearchBox {
	return SearchBox{X: x - 50, Y: y - 20, W: 100, H: 40}
}

// Resolved returns the anchor's search box, falling back to the
// default centered on its expected point when none was declared.
func (a Anchor) Resolved() SearchBox {
	if a.SearchBox != nil {
		return *a.SearchBox
	}
	return DefaultSearchBox(a.X, a.Y)
}

// BoxByID returns the box with the given id, or nil if absent.
func (t *Template) BoxByID(id string) *Box {
	for i := range t.Boxes {
		if t.Boxes[i].ID == id {
			return &t.Boxes[i]
		}
	}
	return nil
}
