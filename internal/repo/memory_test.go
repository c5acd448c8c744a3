package repo

import (
	"context"
	"testing"

	dom "todoevents/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestMemoryTodoRepo_CRUD(t *testing.T) {
	r := NewMemoryTodoRepo()
	ctx := context.Background()

	a, err := r.Insert(ctx, dom.Todo{Title: "a", Description: "first", CreatedAt: "t1", UpdatedAt: "t1"})
	require.NoError(t, err)
	b, err := r.Insert(ctx, dom.Todo{Title: "b", Description: "second", CreatedAt: "t2", UpdatedAt: "t2"})
	require.NoError(t, err)
	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)

	list, err := r.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.Equal(t, b.ID, list[1].ID)

	got, err := r.FindByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, a, *got)

	upd, err := r.UpdateByID(ctx, a.ID, dom.Patch{Completed: boolPtr(true), UpdatedAt: "t3"})
	require.NoError(t, err)
	require.NotNil(t, upd)
	assert.True(t, upd.Completed)
	assert.Equal(t, "a", upd.Title)
	assert.Equal(t, "t3", upd.UpdatedAt)

	del, err := r.DeleteByID(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, del)
	assert.Equal(t, *upd, *del)

	list, err = r.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMemoryTodoRepo_Absent(t *testing.T) {
	r := NewMemoryTodoRepo()
	ctx := context.Background()

	got, err := r.FindByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, got)

	upd, err := r.UpdateByID(ctx, "missing", dom.Patch{Title: strPtr("x")})
	assert.NoError(t, err)
	assert.Nil(t, upd)

	del, err := r.DeleteByID(ctx, "missing")
	assert.NoError(t, err)
	assert.Nil(t, del)
}

func TestMemoryTodoRepo_EmptyListIsNotNil(t *testing.T) {
	list, err := NewMemoryTodoRepo().FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}
