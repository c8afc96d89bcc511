// Package repository provides Template persistence backends.
package repository

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"

	apperrors "github.com/pdftpl/templateengine/internal/engine/errors"
	"github.com/pdftpl/templateengine/internal/template"
)

// InMemory is a template.Repository backed by a map, guarded by a
// RWMutex. Useful for tests and for single-process deployments that
// don't need persistence across restarts.
type InMemory struct {
	mu        sync.RWMutex
	templates map[string]*template.Template
}

// NewInMemory returns an empty in-memory repository.
func NewInMemory() *InMemory {
	return &InMemory{templates: make(map[string]*template.Template)}
}

// Get implements template.Repository.
func (r *InMemory) Get(_ context.Context, id string) (*template.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tpl, ok := r.templates[id]
	if !ok {
		return nil, apperrors.NotFound(id)
	}
	cp := *tpl
	return &cp, nil
}

// ListAll implements template.Repository.
func (r *InMemory) ListAll(_ context.Context) ([]*template.Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*template.Template, 0, len(r.templates))
	for _, tpl := range r.templates {
		cp := *tpl
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Upsert implements template.Repository.
func (r *InMemory) Upsert(_ context.Context, tpl *template.Template) error {
	if tpl.ID == "" {
		return apperrors.Validation("id", "template id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *tpl
	r.templates[tpl.ID] = &cp
	return nil
}

// Delete implements template.Repository.
func (r *InMemory) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.templates[id]; !ok {
		return apperrors.NotFound(id)
	}
	delete(r.templates, id)
	return nil
}

// JSONFile is a template.Repository backed by a single JSON file on
// disk, holding the full template set keyed by ID. All access is
// serialized through a mutex; every call re-reads the file, and
// Upsert/Delete rewrite it in full with os.WriteFile (not an atomic
// rename), trading throughput for simplicity.
type JSONFile struct {
	mu   sync.Mutex
	path string
}

// NewJSONFile returns a JSONFile repository rooted at path, creating
// an empty store file if one does not already exist.
func NewJSONFile(path string) (*JSONFile, error) {
	r := &JSONFile{path: path}
	if err := r.ensureFile(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *JSONFile) ensureFile() error {
	if _, err := os.Stat(r.path); err == nil {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(r.path, []byte("{}"), 0o644)
}

func (r *JSONFile) load() (map[string]*template.Template, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return nil, err
	}
	store := make(map[string]*template.Template)
	if len(data) == 0 {
		return store, nil
	}
	if err := json.Unmarshal(data, &store); err != nil {
		return nil, err
	}
	return store, nil
}

func (r *JSONFile) save(store map[string]*template.Template) error {
	data, err := json.MarshalIndent(store, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(r.path, data, 0o644)
}

// Get implements template.Repository.
func (r *JSONFile) Get(_ context.Context, id string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.load()
	if err != nil {
		return nil, apperrors.Internal("failed to read template store", err)
	}
	tpl, ok := store[id]
	if !ok {
		return nil, apperrors.NotFound(id)
	}
	return tpl, nil
}

// ListAll implements template.Repository.
func (r *JSONFile) ListAll(_ context.Context) ([]*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.load()
	if err != nil {
		return nil, apperrors.Internal("failed to read template store", err)
	}
	out := make([]*template.Template, 0, len(store))
	for _, tpl := range store {
		out = append(out, tpl)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// Upsert implements template.Repository.
func (r *JSONFile) Upsert(_ context.Context, tpl *template.Template) error {
	if tpl.ID == "" {
		return apperrors.Validation("id", "template id is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.load()
	if err != nil {
		return apperrors.Internal("failed to read template store", err)
	}
	store[tpl.ID] = tpl
	if err := r.save(store); err != nil {
		return apperrors.Internal("failed to write template store", err)
	}
	return nil
}

// Delete implements template.Repository.
func (r *JSONFile) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	store, err := r.load()
	if err != nil {
		return apperrors.Internal("failed to read template store", err)
	}
	if _, ok := store[id]; !ok {
		return apperrors.NotFound(id)
	}
	delete(store, id)
	if err := r.save(store); err != nil {
		return apperrors.Internal("failed to write template store", err)
	}
	return nil
}
