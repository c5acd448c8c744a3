package repo

import (
	"context"
	"sort"
	"sync"

	dom "todoevents/internal/domain"

	"github.com/google/uuid"
)

// MemoryTodoRepo keeps records in process memory. Used for STORE_DRIVER=memory and tests.
type MemoryTodoRepo struct {
	mu    sync.RWMutex
	items map[string]dom.Todo
	seq   map[string]int64
	next  int64
}

func NewMemoryTodoRepo() *MemoryTodoRepo {
	return &MemoryTodoRepo{
		items: make(map[string]dom.Todo),
		seq:   make(map[string]int64),
	}
}

// FindAll returns records in insertion order.
func (r *MemoryTodoRepo) FindAll(_ context.Context) ([]dom.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	list := make([]dom.Todo, 0, len(r.items))
	for _, t := range r.items {
		list = append(list, t)
	}
	sort.Slice(list, func(i, j int) bool { return r.seq[list[i].ID] < r.seq[list[j].ID] })
	return list, nil
}

func (r *MemoryTodoRepo) FindByID(_ context.Context, id string) (*dom.Todo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (r *MemoryTodoRepo) Insert(_ context.Context, t dom.Todo) (dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t.ID = uuid.NewString()
	r.next++
	r.items[t.ID] = t
	r.seq[t.ID] = r.next
	return t, nil
}

func (r *MemoryTodoRepo) UpdateByID(_ context.Context, id string, patch dom.Patch) (*dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	t = patch.Apply(t)
	r.items[id] = t
	return &t, nil
}

func (r *MemoryTodoRepo) DeleteByID(_ context.Context, id string) (*dom.Todo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok {
		return nil, nil
	}
	delete(r.items, id)
	delete(r.seq, id)
	return &t, nil
}
