package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdftpl/templateengine/internal/block"
	"github.com/pdftpl/templateengine/internal/config"
	"github.com/pdftpl/templateengine/internal/engine"
	apperrors "github.com/pdftpl/templateengine/internal/engine/errors"
	"github.com/pdftpl/templateengine/internal/template"
)

type fakeRepo struct {
	templates map[string]*template.Template
}

func newFakeRepo() *fakeRepo { return &fakeRepo{templates: map[string]*template.Template{}} }

func (r *fakeRepo) Get(_ context.Context, id string) (*template.Template, error) {
	t, ok := r.templates[id]
	if !ok {
		return nil, apperrors.NotFound(id)
	}
	return t, nil
}

func (r *fakeRepo) ListAll(_ context.Context) ([]*template.Template, error) {
	var out []*template.Template
	for _, t := range r.templates {
		out = append(out, t)
	}
	return out, nil
}

func (r *fakeRepo) Upsert(_ context.Context, t *template.Template) error {
	if t.ID == "" {
		return apperrors.Validation("id", "template id is required")
	}
	r.templates[t.ID] = t
	return nil
}

func (r *fakeRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.templates[id]; !ok {
		return apperrors.NotFound(id)
	}
	delete(r.templates, id)
	return nil
}

type fakeExtractor struct{}

func (fakeExtractor) Extract(_ context.Context, _ string, pageNum int) (string, []block.Block, error) {
	return "hello", []block.Block{
		{Page: pageNum, Coordinates: [4]float64{0, 0, 10, 10}, Text: "hello"},
	}, nil
}

type fakeApplier struct {
	result *engine.Result
	err    error
}

func (f fakeApplier) Apply(_ *template.Template, _ []block.Block, _ engine.Options) (*engine.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func newTestHandler(repo template.Repository, extractor block.PageExtractor, applier engine.Applier) *Handler {
	cfg := config.DefaultConfig()
	cfg.MaxUploadSize = 1024 * 1024
	return New(cfg, repo, extractor, applier, nil)
}

func TestListTemplates(t *testing.T) {
	repo := newFakeRepo()
	repo.templates["t1"] = &template.Template{ID: "t1", Name: "Invoice"}
	h := newTestHandler(repo, fakeExtractor{}, fakeApplier{})

	req := httptest.NewRequest(http.MethodGet, "/templates", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got []template.Template
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func TestGetTemplate_NotFound(t *testing.T) {
	h := newTestHandler(newFakeRepo(), fakeExtractor{}, fakeApplier{})

	req := httptest.NewRequest(http.MethodGet, "/templates/missing", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpsertTemplate(t *testing.T) {
	h := newTestHandler(newFakeRepo(), fakeExtractor{}, fakeApplier{})

	body, _ := json.Marshal(&template.Template{ID: "t1", Name: "Invoice"})
	req := httptest.NewRequest(http.MethodPost, "/templates", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpsertTemplate_MalformedJSON(t *testing.T) {
	h := newTestHandler(newFakeRepo(), fakeExtractor{}, fakeApplier{})

	req := httptest.NewRequest(http.MethodPost, "/templates", bytes.NewReader([]byte("not json")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTemplate(t *testing.T) {
	repo := newFakeRepo()
	repo.templates["t1"] = &template.Template{ID: "t1"}
	h := newTestHandler(repo, fakeExtractor{}, fakeApplier{})

	req := httptest.NewRequest(http.MethodDelete, "/templates/t1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	_, ok := repo.templates["t1"]
	assert.False(t, ok)
}

func multipartUpload(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestApplyTemplate_Success(t *testing.T) {
	repo := newFakeRepo()
	repo.templates["t1"] = &template.Template{ID: "t1"}
	applier := fakeApplier{result: &engine.Result{Values: map[string]any{"invoice_number": "123"}}}
	h := newTestHandler(repo, fakeExtractor{}, applier)

	body, contentType := multipartUpload(t, "doc.pdf", []byte("%PDF-1.4 fake"))
	req := httptest.NewRequest(http.MethodPost, "/apply/t1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var result engine.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "123", result.Values["invoice_number"])
}

func TestApplyTemplate_UnknownTemplate(t *testing.T) {
	h := newTestHandler(newFakeRepo(), fakeExtractor{}, fakeApplier{})

	body, contentType := multipartUpload(t, "doc.pdf", []byte("%PDF-1.4"))
	req := httptest.NewRequest(http.MethodPost, "/apply/missing", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestApplyTemplate_RejectsNonPDFUpload(t *testing.T) {
	repo := newFakeRepo()
	repo.templates["t1"] = &template.Template{ID: "t1"}
	h := newTestHandler(repo, fakeExtractor{}, fakeApplier{})

	body, contentType := multipartUpload(t, "doc.txt", []byte("hello"))
	req := httptest.NewRequest(http.MethodPost, "/apply/t1", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFindTotals_Found(t *testing.T) {
	h := newTestHandler(newFakeRepo(), fakeExtractor{}, fakeApplier{})

	req := httptest.NewRequest(http.MethodPost, "/totals", bytes.NewReader([]byte("Total: 123.45\nthanks")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, true, got["found"])
}

func TestFindTotals_NotFound(t *testing.T) {
	h := newTestHandler(newFakeRepo(), fakeExtractor{}, fakeApplier{})

	req := httptest.NewRequest(http.MethodPost, "/totals", bytes.NewReader([]byte("nothing interesting here")))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, false, got["found"])
}
