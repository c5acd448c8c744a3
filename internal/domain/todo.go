package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 form used for createdAt/updatedAt on the
// wire and in every store (millisecond precision, always UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

var ErrValidation = errors.New("validation failed")

// Domain entity: the record store is the source of truth.
// Does not depend on Gin, Mongo, Postgres, Redis.
type Todo struct {
	ID          string
	Title       string
	Description string
	Completed   bool

	CreatedAt string
	UpdatedAt string
}

// CreateInput carries the fields accepted by create.
type CreateInput struct {
	Title       string
	Description string
	Completed   *bool
}

// Patch is a partial update. Nil fields are left untouched.
// UpdatedAt is filled in by the service, never by callers.
type Patch struct {
	Title       *string
	Description *string
	Completed   *bool
	UpdatedAt   string
}

// Normalize trims text fields and checks the required ones.
func (in CreateInput) Normalize() (CreateInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if in.Title == "" {
		return in, fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if in.Description == "" {
		return in, fmt.Errorf("%w: description must not be empty", ErrValidation)
	}
	return in, nil
}

// Normalize trims supplied text fields. A supplied field may not be blank.
func (p Patch) Normalize() (Patch, error) {
	if p.Title != nil {
		t := strings.TrimSpace(*p.Title)
		if t == "" {
			return p, fmt.Errorf("%w: title must not be empty", ErrValidation)
		}
		p.Title = &t
	}
	if p.Description != nil {
		d := strings.TrimSpace(*p.Description)
		if d == "" {
			return p, fmt.Errorf("%w: description must not be empty", ErrValidation)
		}
		p.Description = &d
	}
	return p, nil
}

// Apply returns t with the patch fields applied.
func (p Patch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	if p.UpdatedAt != "" {
		t.UpdatedAt = p.UpdatedAt
	}
	return t
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// NextTimestamp returns now formatted, bumped so it sorts strictly after prev.
// A prev that does not parse is ignored.
func NextTimestamp(now time.Time, prev string) string {
	now = now.UTC().Truncate(time.Millisecond)
	if p, err := time.Parse(TimestampLayout, prev); err == nil && !now.After(p) {
		now = p.Add(time.Millisecond)
	}
	return FormatTimestamp(now)
}
