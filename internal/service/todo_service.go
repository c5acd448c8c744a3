package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	dom "todoevents/internal/domain"
	"todoevents/internal/events"
	"todoevents/internal/repo"
	"todoevents/internal/utils/logger"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"
)

// ListCache holds the derived list view. It is never authoritative.
type ListCache interface {
	GetList(ctx context.Context) ([]dom.Todo, bool, error)
	SetList(ctx context.Context, list []dom.Todo) error
	InvalidateList(ctx context.Context) error
}

// EventPublisher notifies downstream consumers of mutations, best effort.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, t dom.Todo) error
}

type TodoService struct {
	repo  repo.TodoRepo
	cache ListCache
	pub   EventPublisher
	log   *slog.Logger
	now   func() time.Time
	sf    singleflight.Group

	// writes counts mutations. A list read from the store is only cached
	// when no mutation landed while it was being read.
	writes atomic.Uint64
}

type Option func(*TodoService)

// WithClock sets the clock used for createdAt/updatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *TodoService) { s.now = now }
}

// NewTodoService creates a TodoService. A nil cache disables caching and a
// nil publisher disables events.
func NewTodoService(r repo.TodoRepo, c ListCache, p EventPublisher, log *slog.Logger, opts ...Option) *TodoService {
	s := &TodoService{
		repo:  r,
		cache: c,
		pub:   p,
		log:   log.With(slog.String("component", "todo_service")),
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// List returns all todos, from the list cache when present.
func (s *TodoService) List(ctx context.Context) ([]dom.Todo, error) {
	if s.cache == nil {
		return s.findAll(ctx)
	}
	v, err, _ := s.sf.Do("list", func() (interface{}, error) {
		list, ok, err := s.cache.GetList(ctx)
		if err != nil {
			s.log.Warn("cache read failed, falling back to store", logger.Err(err))
		}
		if ok {
			s.log.Debug("retrieved todos from cache", slog.Int("count", len(list)))
			return list, nil
		}
		seen := s.writes.Load()
		list, err = s.findAll(ctx)
		if err != nil {
			return nil, err
		}
		s.fillCache(ctx, list, seen)
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]dom.Todo), nil
}

// Get reads one todo straight from the store. A nil result means not found.
func (s *TodoService) Get(ctx context.Context, id string) (*dom.Todo, error) {
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("error finding todo", slog.String("id", id), logger.Err(err))
		return nil, fmt.Errorf("find todo %s: %w", id, err)
	}
	return t, nil
}

func (s *TodoService) Create(ctx context.Context, in dom.CreateInput) (dom.Todo, error) {
	in, err := in.Normalize()
	if err != nil {
		return dom.Todo{}, err
	}
	now := dom.FormatTimestamp(s.now())
	t := dom.Todo{
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Completed != nil {
		t.Completed = *in.Completed
	}

	t, err = s.repo.Insert(ctx, t)
	if err != nil {
		s.log.Error("error creating todo", logger.Err(err))
		return dom.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	s.afterWrite(ctx, events.RoutingKeyCreated, t)
	s.log.Info("created todo", slog.String("id", t.ID))
	return t, nil
}

// Update applies patch to the todo with id. A nil result means not found.
func (s *TodoService) Update(ctx context.Context, id string, patch dom.Patch) (*dom.Todo, error) {
	patch, err := patch.Normalize()
	if err != nil {
		return nil, err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		s.log.Error("error updating todo", slog.String("id", id), logger.Err(err))
		return nil, fmt.Errorf("find todo %s: %w", id, err)
	}
	if existing == nil {
		s.log.Warn("todo not found for update", slog.String("id", id))
		return nil, nil
	}
	patch.UpdatedAt = dom.NextTimestamp(s.now(), existing.UpdatedAt)

	t, err := s.repo.UpdateByID(ctx, id, patch)
	if err != nil {
		s.log.Error("error updating todo", slog.String("id", id), logger.Err(err))
		return nil, fmt.Errorf("update todo %s: %w", id, err)
	}
	if t == nil {
		// deleted between the read and the write
		s.log.Warn("todo not found for update", slog.String("id", id))
		return nil, nil
	}
	s.afterWrite(ctx, events.RoutingKeyUpdated, *t)
	s.log.Info("updated todo", slog.String("id", id))
	return t, nil
}

// Delete removes the todo with id and returns its last snapshot. A nil
// result means not found.
func (s *TodoService) Delete(ctx context.Context, id string) (*dom.Todo, error) {
	t, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		s.log.Error("error deleting todo", slog.String("id", id), logger.Err(err))
		return nil, fmt.Errorf("delete todo %s: %w", id, err)
	}
	if t == nil {
		s.log.Warn("todo not found for deletion", slog.String("id", id))
		return nil, nil
	}
	s.afterWrite(ctx, events.RoutingKeyDeleted, *t)
	s.log.Info("deleted todo", slog.String("id", id))
	return t, nil
}

func (s *TodoService) findAll(ctx context.Context) ([]dom.Todo, error) {
	list, err := s.repo.FindAll(ctx)
	if err != nil {
		s.log.Error("error finding todos", logger.Err(err))
		return nil, fmt.Errorf("find todos: %w", err)
	}
	return list, nil
}

// fillCache stores list unless a write happened after seen was taken. A write
// racing with SetList is caught by the second check, or by its own
// invalidation running after the SetList.
func (s *TodoService) fillCache(ctx context.Context, list []dom.Todo, seen uint64) {
	if s.writes.Load() != seen {
		s.log.Debug("store read raced a write, not caching")
		return
	}
	if err := s.cache.SetList(ctx, list); err != nil {
		s.log.Warn("cache write failed", logger.Err(err))
		return
	}
	if s.writes.Load() != seen {
		if err := s.cache.InvalidateList(ctx); err != nil {
			s.log.Warn("cache invalidation failed", logger.Err(err))
		}
		return
	}
	s.log.Debug("retrieved todos from store and cached", slog.Int("count", len(list)))
}

// afterWrite invalidates the list cache, then publishes. Neither step can
// fail the write.
func (s *TodoService) afterWrite(ctx context.Context, routingKey string, t dom.Todo) {
	if s.cache != nil {
		s.writes.Add(1)
		// later lists must not join a read that started before this write
		s.sf.Forget("list")
		if err := s.cache.InvalidateList(ctx); err != nil {
			s.log.Warn("cache invalidation failed", slog.String("id", t.ID), logger.Err(err))
		}
	}
	if s.pub != nil {
		if err := s.pub.Publish(ctx, routingKey, t); err != nil {
			s.log.Warn("event not published", slog.String("routing_key", routingKey), slog.String("id", t.ID), logger.Err(err))
		}
	}
}
