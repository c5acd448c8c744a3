package repo

import (
	"context"
	"errors"
	"fmt"

	dom "todoevents/internal/domain"
	"todoevents/internal/utils"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX is the part of *pgxpool.Pool the repo needs.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const todoColumns = `id, title, description, completed, created_at, updated_at`

// PGTodoRepo implements TodoRepo with Postgres. Timestamps are stored as
// ISO-8601 text so the row matches the wire shape.
type PGTodoRepo struct {
	db    DBTX
	newID func() string
}

func NewPGTodoRepo(db DBTX) *PGTodoRepo {
	return &PGTodoRepo{db: db, newID: uuid.NewString}
}

func (r *PGTodoRepo) FindAll(ctx context.Context) ([]dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos ORDER BY created_at ASC, id ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	list := []dom.Todo{}
	for rows.Next() {
		var t dom.Todo
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, t)
	}
	return list, rows.Err()
}

func (r *PGTodoRepo) FindByID(ctx context.Context, id string) (*dom.Todo, error) {
	query := `SELECT ` + todoColumns + ` FROM todos WHERE id = $1`
	return scanOne(r.db.QueryRow(ctx, query, id))
}

func (r *PGTodoRepo) Insert(ctx context.Context, t dom.Todo) (dom.Todo, error) {
	query := `
		INSERT INTO todos (id, title, description, completed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + todoColumns
	for attempt := 0; ; attempt++ {
		out, err := scanOne(r.db.QueryRow(ctx, query,
			r.newID(), t.Title, t.Description, t.Completed, t.CreatedAt, t.UpdatedAt))
		if err != nil {
			// one retry on an id collision
			if attempt == 0 && utils.IsPGUniqueViolation(err) {
				continue
			}
			return dom.Todo{}, err
		}
		if out == nil {
			return dom.Todo{}, fmt.Errorf("insert todo: no row returned")
		}
		return *out, nil
	}
}

func (r *PGTodoRepo) UpdateByID(ctx context.Context, id string, patch dom.Patch) (*dom.Todo, error) {
	query := `
		UPDATE todos SET
			title = COALESCE($2, title),
			description = COALESCE($3, description),
			completed = COALESCE($4, completed),
			updated_at = COALESCE(NULLIF($5, ''), updated_at)
		WHERE id = $1
		RETURNING ` + todoColumns
	return scanOne(r.db.QueryRow(ctx, query, id, patch.Title, patch.Description, patch.Completed, patch.UpdatedAt))
}

func (r *PGTodoRepo) DeleteByID(ctx context.Context, id string) (*dom.Todo, error) {
	query := `DELETE FROM todos WHERE id = $1 RETURNING ` + todoColumns
	return scanOne(r.db.QueryRow(ctx, query, id))
}

func scanOne(row pgx.Row) (*dom.Todo, error) {
	var t dom.Todo
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Completed, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}
