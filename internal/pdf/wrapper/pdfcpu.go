package wrapper

import (
	"fmt"
	"os"

	"github.com/pdftpl/templateengine/internal/pdf/extraction"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// PDFCPUForms opens a PDF with pdfcpu for AcroForm field extraction.
// pdfcpu is the only backend in this module that can walk the form
// field tree; ledongthuc/pdf has no equivalent.
type PDFCPUForms struct {
	path string
}

// OpenPDFCPUForms prepares a forms reader for path.
func OpenPDFCPUForms(path string) *PDFCPUForms {
	return &PDFCPUForms{path: path}
}

// ExtractForms returns every AcroForm field in the document.
func (f *PDFCPUForms) ExtractForms() ([]extraction.FormField, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, &Error{Op: "extract_forms", Err: err}
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	ctx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, &Error{Op: "extract_forms", Err: fmt.Errorf("read pdf context: %w", err)}
	}
	if err := ctx.EnsurePageCount(); err != nil {
		return nil, &Error{Op: "extract_forms", Err: fmt.Errorf("ensure page count: %w", err)}
	}

	fields, err := extraction.ExtractForms(ctx)
	if err != nil {
		return nil, &Error{Op: "extract_forms", Err: err}
	}
	return fields, nil
}
