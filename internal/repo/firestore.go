package repo

import (
	"context"
	"fmt"
	"strings"

	dom "todoevents/internal/domain"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const firestoreCollection = "todos"

type firestoreTodo struct {
	ID          string `firestore:"id"`
	Title       string `firestore:"title"`
	Description string `firestore:"description"`
	Completed   bool   `firestore:"completed"`
	CreatedAt   string `firestore:"createdAt"`
	UpdatedAt   string `firestore:"updatedAt"`
}

// FirestoreTodoRepo implements TodoRepo on a Firestore collection; the
// document name is the todo id.
type FirestoreTodoRepo struct {
	client *firestore.Client
}

// NewFirestoreClient creates a client for projectID using ambient credentials.
func NewFirestoreClient(ctx context.Context, projectID string) (*firestore.Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	return client, nil
}

func NewFirestoreTodoRepo(client *firestore.Client) *FirestoreTodoRepo {
	return &FirestoreTodoRepo{client: client}
}

func (r *FirestoreTodoRepo) FindAll(ctx context.Context) ([]dom.Todo, error) {
	iter := r.client.Collection(firestoreCollection).
		OrderBy("createdAt", firestore.Asc).
		Documents(ctx)
	defer iter.Stop()

	list := []dom.Todo{}
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate todos: %w", err)
		}
		var d firestoreTodo
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to unmarshal todo: %w", err)
		}
		list = append(list, dom.Todo(d))
	}
	return list, nil
}

func (r *FirestoreTodoRepo) FindByID(ctx context.Context, id string) (*dom.Todo, error) {
	if !validDocID(id) {
		return nil, nil
	}
	doc, err := r.client.Collection(firestoreCollection).Doc(id).Get(ctx)
	return snapshotTodo(doc, err)
}

func (r *FirestoreTodoRepo) Insert(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	t.ID = uuid.NewString()
	// Create fails if the document already exists, so ids are never reused.
	if _, err := r.client.Collection(firestoreCollection).Doc(t.ID).Create(ctx, firestoreTodo(t)); err != nil {
		return dom.Todo{}, fmt.Errorf("failed to create todo: %w", err)
	}
	return t, nil
}

func (r *FirestoreTodoRepo) UpdateByID(ctx context.Context, id string, patch dom.Patch) (*dom.Todo, error) {
	if !validDocID(id) {
		return nil, nil
	}
	ref := r.client.Collection(firestoreCollection).Doc(id)
	updates := firestoreUpdates(patch)
	if len(updates) == 0 {
		return r.FindByID(ctx, id)
	}
	if _, err := ref.Update(ctx, updates); err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return snapshotTodo(ref.Get(ctx))
}

func (r *FirestoreTodoRepo) DeleteByID(ctx context.Context, id string) (*dom.Todo, error) {
	if !validDocID(id) {
		return nil, nil
	}
	ref := r.client.Collection(firestoreCollection).Doc(id)
	var out *dom.Todo
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		t, err := snapshotTodo(tx.Get(ref))
		if err != nil || t == nil {
			out = nil
			return err
		}
		out = t
		return tx.Delete(ref)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete todo: %w", err)
	}
	return out, nil
}

// validDocID rejects ids Firestore cannot address as a single document.
func validDocID(id string) bool {
	return id != "" && !strings.Contains(id, "/")
}

func firestoreUpdates(p dom.Patch) []firestore.Update {
	var updates []firestore.Update
	if p.Title != nil {
		updates = append(updates, firestore.Update{Path: "title", Value: *p.Title})
	}
	if p.Description != nil {
		updates = append(updates, firestore.Update{Path: "description", Value: *p.Description})
	}
	if p.Completed != nil {
		updates = append(updates, firestore.Update{Path: "completed", Value: *p.Completed})
	}
	if p.UpdatedAt != "" {
		updates = append(updates, firestore.Update{Path: "updatedAt", Value: p.UpdatedAt})
	}
	return updates
}

func snapshotTodo(doc *firestore.DocumentSnapshot, err error) (*dom.Todo, error) {
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	var d firestoreTodo
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal todo: %w", err)
	}
	t := dom.Todo(d)
	return &t, nil
}
