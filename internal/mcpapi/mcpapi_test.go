package mcpapi

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
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

func newTestServer(repo template.Repository, extractor block.PageExtractor, applier engine.Applier) *Server {
	return New(config.DefaultConfig(), repo, extractor, applier, nil)
}

func callRequest(name string, args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
}

func TestHandleApplyTemplate_Success(t *testing.T) {
	repo := newFakeRepo()
	repo.templates["t1"] = &template.Template{ID: "t1"}
	applier := fakeApplier{result: &engine.Result{Values: map[string]any{"invoice_number": "42"}}}
	s := newTestServer(repo, fakeExtractor{}, applier)

	res, err := s.handleApplyTemplate(context.Background(), callRequest("apply_template", map[string]any{
		"template_id": "t1",
		"path":        "/tmp/doc.pdf",
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)

	text := textContent(t, res)
	var result engine.Result
	require.NoError(t, json.Unmarshal([]byte(text), &result))
	assert.Equal(t, "42", result.Values["invoice_number"])
}

func TestHandleApplyTemplate_UnknownTemplateIsToolError(t *testing.T) {
	s := newTestServer(newFakeRepo(), fakeExtractor{}, fakeApplier{})

	res, err := s.handleApplyTemplate(context.Background(), callRequest("apply_template", map[string]any{
		"template_id": "missing",
		"path":        "/tmp/doc.pdf",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleListTemplates(t *testing.T) {
	repo := newFakeRepo()
	repo.templates["t1"] = &template.Template{ID: "t1", Name: "Invoice"}
	s := newTestServer(repo, fakeExtractor{}, fakeApplier{})

	res, err := s.handleListTemplates(context.Background(), callRequest("list_templates", nil))
	require.NoError(t, err)
	require.False(t, res.IsError)

	var got []template.Template
	require.NoError(t, json.Unmarshal([]byte(textContent(t, res)), &got))
	assert.Len(t, got, 1)
}

func TestHandleGetTemplate_NotFound(t *testing.T) {
	s := newTestServer(newFakeRepo(), fakeExtractor{}, fakeApplier{})

	res, err := s.handleGetTemplate(context.Background(), callRequest("get_template", map[string]any{
		"template_id": "missing",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestHandleUpsertTemplate_Success(t *testing.T) {
	repo := newFakeRepo()
	s := newTestServer(repo, fakeExtractor{}, fakeApplier{})

	raw, _ := json.Marshal(&template.Template{ID: "t1", Name: "Invoice"})
	res, err := s.handleUpsertTemplate(context.Background(), callRequest("upsert_template", map[string]any{
		"template_json": string(raw),
	}))
	require.NoError(t, err)
	require.False(t, res.IsError)
	_, ok := repo.templates["t1"]
	assert.True(t, ok)
}

func TestHandleUpsertTemplate_InvalidJSON(t *testing.T) {
	s := newTestServer(newFakeRepo(), fakeExtractor{}, fakeApplier{})

	res, err := s.handleUpsertTemplate(context.Background(), callRequest("upsert_template", map[string]any{
		"template_json": "not json",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func textContent(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}
