package repo

import (
	"context"

	dom "todoevents/internal/domain"
)

// TodoRepo is the record store. Lookups by id return a nil record, not an
// error, when nothing matches; errors are reserved for store failures.
type TodoRepo interface {
	FindAll(ctx context.Context) ([]dom.Todo, error)
	FindByID(ctx context.Context, id string) (*dom.Todo, error)
	// Insert assigns the id; timestamps come from the caller.
	Insert(ctx context.Context, t dom.Todo) (dom.Todo, error)
	UpdateByID(ctx context.Context, id string, patch dom.Patch) (*dom.Todo, error)
	DeleteByID(ctx context.Context, id string) (*dom.Todo, error)
}
