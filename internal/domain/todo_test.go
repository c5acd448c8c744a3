package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestCreateInput_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      CreateInput
		want    CreateInput
		wantErr bool
	}{
		{
			name: "trims fields",
			in:   CreateInput{Title: "  Buy milk ", Description: "2% "},
			want: CreateInput{Title: "Buy milk", Description: "2%"},
		},
		{name: "empty title", in: CreateInput{Title: " ", Description: "x"}, wantErr: true},
		{name: "empty description", in: CreateInput{Title: "x"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.in.Normalize()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPatch_NormalizeRejectsBlankSuppliedFields(t *testing.T) {
	_, err := Patch{Title: strPtr("   ")}.Normalize()
	assert.ErrorIs(t, err, ErrValidation)

	_, err = Patch{Description: strPtr("")}.Normalize()
	assert.ErrorIs(t, err, ErrValidation)

	p, err := Patch{Completed: boolPtr(true)}.Normalize()
	require.NoError(t, err)
	assert.Nil(t, p.Title)
	assert.Nil(t, p.Description)
}

func TestPatch_ApplyOnlyTouchesSuppliedFields(t *testing.T) {
	orig := Todo{
		ID:          "1",
		Title:       "Buy milk",
		Description: "2%",
		CreatedAt:   "2026-01-01T00:00:00.000Z",
		UpdatedAt:   "2026-01-01T00:00:00.000Z",
	}

	got := Patch{Completed: boolPtr(true), UpdatedAt: "2026-01-02T00:00:00.000Z"}.Apply(orig)

	assert.True(t, got.Completed)
	assert.Equal(t, orig.Title, got.Title)
	assert.Equal(t, orig.Description, got.Description)
	assert.Equal(t, orig.CreatedAt, got.CreatedAt)
	assert.Equal(t, "2026-01-02T00:00:00.000Z", got.UpdatedAt)
}

func TestNextTimestamp(t *testing.T) {
	base := time.Date(2026, 10, 18, 12, 0, 0, 0, time.UTC)
	prev := FormatTimestamp(base)

	assert.Equal(t, "2026-10-18T12:00:00.000Z", prev)
	assert.Equal(t, "2026-10-18T12:00:01.000Z", NextTimestamp(base.Add(time.Second), prev))
	// same or earlier clock reading still moves forward
	assert.Equal(t, "2026-10-18T12:00:00.001Z", NextTimestamp(base, prev))
	assert.Equal(t, "2026-10-18T12:00:00.001Z", NextTimestamp(base.Add(-time.Hour), prev))
	assert.Equal(t, prev, NextTimestamp(base, "not a time"))
}
