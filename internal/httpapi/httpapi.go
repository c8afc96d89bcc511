// Package httpapi exposes template registration and application over
// a small JSON HTTP surface.
package httpapi

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/pdftpl/templateengine/internal/block"
	"github.com/pdftpl/templateengine/internal/config"
	"github.com/pdftpl/templateengine/internal/engine"
	apperrors "github.com/pdftpl/templateengine/internal/engine/errors"
	"github.com/pdftpl/templateengine/internal/template"
	"github.com/pdftpl/templateengine/internal/totals"
)

// Handler wires the template repository, page extractor, and engine
// into an http.Handler.
type Handler struct {
	cfg       *config.Config
	repo      template.Repository
	extractor block.PageExtractor
	applier   engine.Applier
	logger    *slog.Logger
	mux       *http.ServeMux
}

// New builds a Handler and registers its routes.
func New(cfg *config.Config, repo template.Repository, extractor block.PageExtractor, applier engine.Applier, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	h := &Handler{cfg: cfg, repo: repo, extractor: extractor, applier: applier, logger: logger, mux: http.NewServeMux()}
	h.routes()
	return h
}

func (h *Handler) routes() {
	h.mux.HandleFunc("GET /templates", h.listTemplates)
	h.mux.HandleFunc("POST /templates", h.upsertTemplate)
	h.mux.HandleFunc("GET /templates/{id}", h.getTemplate)
	h.mux.HandleFunc("DELETE /templates/{id}", h.deleteTemplate)
	h.mux.HandleFunc("POST /apply/{id}", h.applyTemplate)
	h.mux.HandleFunc("POST /totals", h.findTotals)
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) listTemplates(w http.ResponseWriter, r *http.Request) {
	tpls, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tpls)
}

func (h *Handler) getTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tpl, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, tpl)
}

func (h *Handler) deleteTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.repo.Delete(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) upsertTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl template.Template
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		h.writeError(w, apperrors.Validation("body", "malformed template JSON: "+err.Error()))
		return
	}
	if err := h.repo.Upsert(r.Context(), &tpl); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, &tpl)
}

// applyTemplate accepts a multipart upload under the "file" field,
// extracts every page the template declares interest in, and runs the
// engine against the combined block stream.
func (h *Handler) applyTemplate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	tpl, err := h.repo.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}

	path, cleanup, err := h.saveUpload(r)
	if err != nil {
		h.writeError(w, apperrors.Validation("file", err.Error()))
		return
	}
	defer cleanup()

	debug := r.URL.Query().Get("debug") == "true"

	blocks, err := h.extractAllPages(r, tpl, path)
	if err != nil {
		h.writeError(w, apperrors.Internal("page extraction failed", err))
		return
	}

	result, err := h.applier.Apply(tpl, blocks, engine.Options{IncludeDebug: debug})
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

func (h *Handler) extractAllPages(r *http.Request, tpl *template.Template, path string) ([]block.Block, error) {
	pages := map[int]bool{1: true}
	for p := range tpl.Meta.Pages {
		pages[p] = true
	}
	for _, b := range tpl.Boxes {
		pages[b.Page] = true
	}

	var all []block.Block
	for page := range pages {
		_, blocks, err := h.extractor.Extract(r.Context(), path, page)
		if err != nil {
			h.logger.Warn("page extraction failed", "page", page, "error", err)
			continue
		}
		all = append(all, blocks...)
	}
	return all, nil
}

// findTotals runs the template-free totals heuristic against raw text
// posted as the request body, for documents with no registered
// template.
func (h *Handler) findTotals(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, h.cfg.MaxUploadSize))
	if err != nil {
		h.writeError(w, apperrors.Validation("body", err.Error()))
		return
	}
	match := totals.Find(string(body), nil)
	if match == nil {
		h.writeJSON(w, http.StatusOK, map[string]any{"found": false})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"found": true, "match": match})
}

func (h *Handler) saveUpload(r *http.Request) (path string, cleanup func(), err error) {
	if err := r.ParseMultipartForm(h.cfg.MaxUploadSize); err != nil {
		return "", nil, err
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, err
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		return "", nil, errInvalidUpload
	}

	tmp, err := os.CreateTemp("", "templateengine-upload-*.pdf")
	if err != nil {
		return "", nil, err
	}
	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, err
	}
	tmp.Close()

	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

var errInvalidUpload = apperrors.Validation("file", "uploaded file must have a .pdf extension")

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var appErr *apperrors.Error
	if !apperrors.As(err, &appErr) {
		appErr = apperrors.Internal(err.Error(), err)
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case apperrors.KindValidation:
		status = http.StatusBadRequest
	case apperrors.KindNotFound:
		status = http.StatusNotFound
	case apperrors.KindInternal:
		status = http.StatusInternalServerError
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "error", appErr.Error())
	}

	h.writeJSON(w, status, appErr)
}
