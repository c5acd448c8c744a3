package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	dom "todoevents/internal/domain"
)

// keyList holds the full todo collection.
const keyList = "todos"

// DefaultTTL applies when NewTodoCache gets a non-positive ttl.
const DefaultTTL = 60 * time.Second

// TodoCache caches the todo list view. Single records are never cached.
type TodoCache struct {
	store Store
	ttl   time.Duration
}

// NewTodoCache returns a new TodoCache.
func NewTodoCache(store Store, ttl time.Duration) *TodoCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TodoCache{store: store, ttl: ttl}
}

// todoEntry is the cached JSON form of a record.
type todoEntry struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

// GetList returns the cached list. ok is false on a miss.
func (c *TodoCache) GetList(ctx context.Context) (list []dom.Todo, ok bool, err error) {
	b, err := c.store.Get(ctx, keyList)
	if errors.Is(err, ErrMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var entries []todoEntry
	if err := json.Unmarshal(b, &entries); err != nil {
		return nil, false, err
	}
	list = make([]dom.Todo, len(entries))
	for i, e := range entries {
		list[i] = dom.Todo(e)
	}
	return list, true, nil
}

// SetList stores the list in cache.
func (c *TodoCache) SetList(ctx context.Context, list []dom.Todo) error {
	entries := make([]todoEntry, len(list))
	for i, t := range list {
		entries[i] = todoEntry(t)
	}
	b, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, keyList, b, c.ttl)
}

// InvalidateList removes the cached list (cache invalidation on write).
func (c *TodoCache) InvalidateList(ctx context.Context) error {
	return c.store.Delete(ctx, keyList)
}
