package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bittib01/CS209A/internal/database"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "unique violation by sqlstate",
			err:      fmt.Errorf("insert question 1: %w", &pgconn.PgError{Code: "23505"}),
			wantCode: "DB001",
		},
		{
			name:     "foreign key violation by sqlstate",
			err:      fmt.Errorf("insert answers: batch rows 0-1: %w", &pgconn.PgError{Code: "23503"}),
			wantCode: "DB002",
		},
		{
			name:     "not null violation",
			err:      &pgconn.PgError{Code: "23502"},
			wantCode: "DB003",
		},
		{
			name:     "check violation",
			err:      &pgconn.PgError{Code: "23514"},
			wantCode: "DB008",
		},
		{
			name:     "undefined table",
			err:      &pgconn.PgError{Code: "42P01"},
			wantCode: "DB007",
		},
		{
			name:     "schema preflight",
			err:      fmt.Errorf("%w: comments", database.ErrSchemaMissing),
			wantCode: "DB007",
		},
		{
			name:     "duplicate key by text",
			err:      errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode: "DB001",
		},
		{
			name:     "connection refused",
			err:      errors.New("dial tcp: connection refused"),
			wantCode: "DB004",
		},
		{
			name:     "case insensitive matching",
			err:      errors.New("CONNECTION RESET by peer"),
			wantCode: "DB005",
		},
		{
			name:     "timeout",
			err:      errors.New("i/o timeout"),
			wantCode: "DB006",
		},
		{
			name:     "malformed json",
			err:      fmt.Errorf("decode json: %w", &json.SyntaxError{Offset: 3}),
			wantCode: "DOC001",
		},
		{
			name:     "wrong json type",
			err:      fmt.Errorf("decode json: %w", &json.UnmarshalTypeError{Value: "string", Field: "question_id"}),
			wantCode: "DOC002",
		},
		{
			name:     "file too large",
			err:      fmt.Errorf("%w: 10 bytes exceeds 5 byte limit", ErrFileTooLarge),
			wantCode: "DOC003",
		},
		{
			name:     "missing field",
			err:      &MissingFieldError{Field: "question.owner.reputation"},
			wantCode: "DOC004",
		},
		{
			name:     "directory not found",
			err:      fmt.Errorf("%w: /data", ErrDirNotFound),
			wantCode: "RUN001",
		},
		{
			name:     "no input files",
			err:      fmt.Errorf("%w: no .json files in /data", ErrNoInputFiles),
			wantCode: "RUN002",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "nil error",
			err:  nil,
			want: "",
		},
		{
			name: "missing field",
			err:  &MissingFieldError{Field: "answers[0].body"},
			want: "A required field is missing (Code: DOC004). Check the field named in the log",
		},
		{
			name: "unknown error",
			err:  errors.New("random error"),
			want: "An unexpected error occurred (Code: ERR000). Check the logged error for details",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatUserError(tt.err); got != tt.want {
				t.Errorf("FormatUserError() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error", nil, false},
		{"known sqlstate", &pgconn.PgError{Code: "23503"}, true},
		{"unknown sqlstate falls through", &pgconn.PgError{Code: "XX000"}, false},
		{"unknown error", errors.New("random"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMissingFieldError(t *testing.T) {
	err := &MissingFieldError{Field: "question.title"}
	if !errors.Is(err, ErrMissingField) {
		t.Fatal("MissingFieldError should unwrap to ErrMissingField")
	}
	if got, want := err.Error(), `missing required field "question.title"`; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
