package repo

import (
	"context"
	"errors"
	"os"
	"testing"

	dom "todoevents/internal/domain"

	"cloud.google.com/go/firestore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestFirestoreUpdates(t *testing.T) {
	updates := firestoreUpdates(dom.Patch{
		Description: strPtr("2%"),
		Completed:   boolPtr(true),
		UpdatedAt:   "2026-10-18T12:00:01.000Z",
	})

	assert.Equal(t, []firestore.Update{
		{Path: "description", Value: "2%"},
		{Path: "completed", Value: true},
		{Path: "updatedAt", Value: "2026-10-18T12:00:01.000Z"},
	}, updates)
	assert.Empty(t, firestoreUpdates(dom.Patch{}))
}

func TestValidDocID(t *testing.T) {
	assert.True(t, validDocID("0b6f3c1e-8a0c-4c55-9a55-55b4c0e1f1aa"))
	assert.False(t, validDocID(""))
	assert.False(t, validDocID("todos/other"))
}

func TestSnapshotTodo_NotFoundIsAbsent(t *testing.T) {
	got, err := snapshotTodo(nil, status.Error(codes.NotFound, "no such document"))
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestSnapshotTodo_OtherErrorsPropagate(t *testing.T) {
	unavailable := status.Error(codes.Unavailable, "backend down")
	got, err := snapshotTodo(nil, unavailable)
	assert.ErrorIs(t, err, unavailable)
	assert.Nil(t, got)

	boom := errors.New("boom")
	_, err = snapshotTodo(nil, boom)
	assert.ErrorIs(t, err, boom)
}

func TestFirestoreTodoRepo_UnaddressableIDIsAbsent(t *testing.T) {
	// never reaches the client
	r := NewFirestoreTodoRepo(nil)
	ctx := context.Background()

	got, err := r.FindByID(ctx, "todos/other")
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.UpdateByID(ctx, "", dom.Patch{Completed: boolPtr(true)})
	assert.NoError(t, err)
	assert.Nil(t, got)

	got, err = r.DeleteByID(ctx, "a/b")
	assert.NoError(t, err)
	assert.Nil(t, got)
}

// TestFirestoreTodoRepo_Emulator runs against FIRESTORE_EMULATOR_HOST when set.
func TestFirestoreTodoRepo_Emulator(t *testing.T) {
	if os.Getenv("FIRESTORE_EMULATOR_HOST") == "" {
		t.Skip("FIRESTORE_EMULATOR_HOST not set")
	}
	ctx := context.Background()
	client, err := NewFirestoreClient(ctx, "todoevents-test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	r := NewFirestoreTodoRepo(client)

	created, err := r.Insert(ctx, dom.Todo{
		Title:       "Buy milk",
		Description: "2%",
		CreatedAt:   "2026-10-18T12:00:00.000Z",
		UpdatedAt:   "2026-10-18T12:00:00.000Z",
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	updated, err := r.UpdateByID(ctx, created.ID, dom.Patch{Completed: boolPtr(true), UpdatedAt: "2026-10-18T12:00:01.000Z"})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.True(t, updated.Completed)
	assert.Equal(t, "Buy milk", updated.Title)

	removed, err := r.DeleteByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, updated, removed)

	again, err := r.DeleteByID(ctx, created.ID)
	assert.NoError(t, err)
	assert.Nil(t, again)

	missing, err := r.UpdateByID(ctx, created.ID, dom.Patch{Completed: boolPtr(false), UpdatedAt: "2026-10-18T12:00:02.000Z"})
	assert.NoError(t, err)
	assert.Nil(t, missing)
}
