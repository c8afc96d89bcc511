package wrapper

import (
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"
)

// LedongthucReader opens a PDF with ledongthuc/pdf, the fast path for
// documents carrying a native text layer.
type LedongthucReader struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenLedongthuc opens path for reading. Callers must Close the
// returned reader.
func OpenLedongthuc(path string) (*LedongthucReader, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, &Error{Op: "open", Err: err}
	}
	return &LedongthucReader{file: f, reader: r}, nil
}

// Close releases the underlying file handle.
func (r *LedongthucReader) Close() error {
	return r.file.Close()
}

// PageCount returns the number of pages in the document.
func (r *LedongthucReader) PageCount() int {
	return r.reader.NumPage()
}

// PageText returns the text lines on pageNum and the page's size.
// ledongthuc/pdf doesn't expose a page's MediaBox, so the size is
// reported as US Letter; callers needing the document's real page
// dimensions should prefer a template's declared page size over this.
func (r *LedongthucReader) PageText(pageNum int) ([]TextLine, PageSize, error) {
	count := r.reader.NumPage()
	if pageNum < 1 || pageNum > count {
		return nil, PageSize{}, &Error{Op: "page_text", Err: fmt.Errorf("invalid page number %d (document has %d pages)", pageNum, count)}
	}

	content := r.reader.Page(pageNum).Content()
	lines := make([]TextLine, 0, len(content.Text))
	for _, t := range content.Text {
		height := t.FontSize
		if height == 0 {
			height = 12.0
		}
		lines = append(lines, TextLine{
			Text: t.S,
			X0:   t.X,
			Y0:   t.Y,
			X1:   t.X + t.W,
			Y1:   t.Y + height,
		})
	}

	return lines, PageSize{Width: 612.0, Height: 792.0}, nil
}
