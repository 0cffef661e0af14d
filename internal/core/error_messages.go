package core

// # Error Codes Reference
//
// This file defines readable error messages with codes for support reference.
// When an import fails, the log line carries the code so an operator can look
// it up here.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A row with this key already exists
//	        SQLSTATE 23505, pattern "duplicate key"
//
//	DB002 - Foreign key: Referenced row does not exist
//	        SQLSTATE 23503, pattern "violates foreign key"
//
//	DB003 - Not null: A required column was NULL
//	        SQLSTATE 23502
//
//	DB004 - Connection refused: Unable to connect to database
//	        Pattern "connection refused"
//
//	DB005 - Connection lost: Database connection was interrupted
//	        Patterns "connection reset", "conn closed"
//
//	DB006 - Timeout: Operation timed out
//	        Patterns "timeout", "context deadline exceeded"
//
//	DB007 - Undefined table: A target table is missing
//	        SQLSTATE 42P01, ErrSchemaMissing
//
//	DB008 - Check constraint: A value was rejected by a table constraint
//	        SQLSTATE 23514
//
// # Document Errors (DOC001-DOC099)
//
//	DOC001 - Invalid JSON: File is not well-formed JSON
//	DOC002 - Wrong type: A field has the wrong JSON type
//	DOC003 - File too large: File exceeds the configured size limit
//	DOC004 - Missing field: A required field is absent or null
//
// # Run Errors (RUN001-RUN099)
//
//	RUN001 - Input directory not found
//	RUN002 - No input files matched the extension
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logged technical error.
//
// # Matching
//
// Typed errors are checked first with errors.Is / errors.As. Remaining errors
// are matched case-insensitively on their text; the first pattern wins.

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/bittib01/CS209A/internal/database"
)

// UserMessage provides readable error information with actionable guidance.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var (
	msgDuplicateKey = UserMessage{
		Message: "A row with this key already exists",
		Action:  "Check the document for repeated ids",
		Code:    "DB001",
	}
	msgForeignKey = UserMessage{
		Message: "Referenced row does not exist",
		Action:  "Check that owners and posts referenced by the document are present",
		Code:    "DB002",
	}
	msgNotNull = UserMessage{
		Message: "A required column was empty",
		Action:  "Check the document for null values in required fields",
		Code:    "DB003",
	}
	msgUndefinedTable = UserMessage{
		Message: "A target table is missing",
		Action:  "Create the schema before importing",
		Code:    "DB007",
	}
	msgCheckViolation = UserMessage{
		Message: "A value was rejected by a table constraint",
		Action:  "Compare the document against the schema constraints",
		Code:    "DB008",
	}
	msgInvalidJSON = UserMessage{
		Message: "File is not valid JSON",
		Action:  "Re-export the file and check it is complete",
		Code:    "DOC001",
	}
	msgWrongType = UserMessage{
		Message: "A field has the wrong type",
		Action:  "Check numbers, strings and booleans in the document",
		Code:    "DOC002",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum size limit",
		Action:  "Raise IMPORT_MAX_FILE_SIZE or split the thread",
		Code:    "DOC003",
	}
	msgMissingField = UserMessage{
		Message: "A required field is missing",
		Action:  "Check the field named in the log",
		Code:    "DOC004",
	}
	msgDirNotFound = UserMessage{
		Message: "Input directory not found",
		Action:  "Check --dir or IMPORT_DIR",
		Code:    "RUN001",
	}
	msgNoInputFiles = UserMessage{
		Message: "No input files found",
		Action:  "Check the directory and IMPORT_EXTENSION",
		Code:    "RUN002",
	}
)

// sqlStateMessages maps PostgreSQL SQLSTATE codes to messages.
var sqlStateMessages = map[string]UserMessage{
	"23505": msgDuplicateKey,
	"23503": msgForeignKey,
	"23502": msgNotNull,
	"23514": msgCheckViolation,
	"42P01": msgUndefinedTable,
}

// errorPattern defines a pattern to match and its corresponding message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	{pattern: "duplicate key", msg: msgDuplicateKey},
	{pattern: "violates foreign key", msg: msgForeignKey},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Check DB_HOST and DB_PORT, then try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "conn closed",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB006",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Check the logged error for details",
	Code:    "ERR000",
}

// MapError converts a technical error to a readable message.
//
// Example:
//
//	err := fmt.Errorf("insert answers: %w", &pgconn.PgError{Code: "23503"})
//	msg := MapError(err)
//	// msg.Code == "DB002"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if msg, ok := mapTyped(err); ok {
		return msg
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

func mapTyped(err error) (UserMessage, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if msg, ok := sqlStateMessages[pgErr.Code]; ok {
			return msg, true
		}
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError

	switch {
	case errors.Is(err, database.ErrSchemaMissing):
		return msgUndefinedTable, true
	case errors.Is(err, ErrMissingField):
		return msgMissingField, true
	case errors.Is(err, ErrFileTooLarge):
		return msgTooLarge, true
	case errors.Is(err, ErrDirNotFound):
		return msgDirNotFound, true
	case errors.Is(err, ErrNoInputFiles):
		return msgNoInputFiles, true
	case errors.As(err, &syntaxErr):
		return msgInvalidJSON, true
	case errors.As(err, &typeErr):
		return msgWrongType, true
	}

	return UserMessage{}, false
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
