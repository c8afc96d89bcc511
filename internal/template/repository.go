package template

import "context"

// Repository is the template persistence collaborator. The core
// engine only ever calls Get; the rest of the surface exists for the
// authoring API.
type Repository interface {
	Get(ctx context.Context, id string) (*Template, error)
	ListAll(ctx context.Context) ([]*Template, error)
	Upsert(ctx context.Context, t *Template) error
	Delete(ctx context.Context, id string) error
}
