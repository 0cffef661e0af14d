package core

// convert.go provides conversions from decoded document fields to
// PostgreSQL parameter types.
//
// Decoded documents use pointers so that an absent or null JSON value can be
// told apart from a zero value. All ToPg* functions return pgtype values with
// Valid=false for nil input, so the database stores NULL.

import (
	"github.com/jackc/pgx/v5/pgtype"
)

// ToPgInt8 converts an optional integer to pgtype.Int8.
func ToPgInt8(v *int64) pgtype.Int8 {
	if v == nil {
		return pgtype.Int8{Valid: false}
	}
	return pgtype.Int8{Int64: *v, Valid: true}
}

// ToPgInt4 converts an optional 32-bit integer to pgtype.Int4.
func ToPgInt4(v *int32) pgtype.Int4 {
	if v == nil {
		return pgtype.Int4{Valid: false}
	}
	return pgtype.Int4{Int32: *v, Valid: true}
}

// ToPgText converts an optional string to pgtype.Text.
// An empty string is stored as-is; only nil maps to NULL.
func ToPgText(v *string) pgtype.Text {
	if v == nil {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: *v, Valid: true}
}

// deref returns the value behind p, or the zero value for nil.
// Required fields are validated before conversion, so nil only
// reaches here for optional ones.
func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
