package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMissingField is wrapped by MissingFieldError.
	ErrMissingField = errors.New("missing required field")

	// ErrFileTooLarge is returned when a document exceeds the size limit.
	ErrFileTooLarge = errors.New("file too large")
)

// MissingFieldError names the JSON path of an absent required field,
// e.g. "question.owner.reputation".
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s %q", ErrMissingField, e.Field)
}

func (e *MissingFieldError) Unwrap() error {
	return ErrMissingField
}

// Document is one input file: a question with its answers and comments.
// Pointer fields distinguish "absent" from zero values; fields tagged
// required must be present.
type Document struct {
	Question         *Question            `json:"question" validate:"required"`
	Answers          []Answer             `json:"answers" validate:"required,dive"`
	QuestionComments []Comment            `json:"question_comments" validate:"required,dive"`
	AnswerComments   map[string][]Comment `json:"answer_comments" validate:"required,dive,dive"`
}

// ShallowUser is a user snapshot embedded in posts and comments.
type ShallowUser struct {
	UserID       *int64  `json:"user_id" validate:"required"`
	AccountID    *int64  `json:"account_id"`
	Reputation   *int64  `json:"reputation" validate:"required"`
	UserType     *string `json:"user_type" validate:"required"`
	AcceptRate   *int32  `json:"accept_rate"`
	ProfileImage *string `json:"profile_image"`
	DisplayName  *string `json:"display_name" validate:"required"`
	Link         *string `json:"link"`
}

// isEmpty reports whether u is nil or carried no fields at all.
func (u *ShallowUser) isEmpty() bool {
	return u == nil || *u == ShallowUser{}
}

type Question struct {
	QuestionID       *int64       `json:"question_id" validate:"required"`
	Title            *string      `json:"title" validate:"required"`
	Body             *string      `json:"body" validate:"required"`
	Owner            *ShallowUser `json:"owner" validate:"required"`
	Tags             []string     `json:"tags" validate:"required"`
	IsAnswered       *bool        `json:"is_answered" validate:"required"`
	ViewCount        *int64       `json:"view_count" validate:"required"`
	AnswerCount      *int64       `json:"answer_count" validate:"required"`
	Score            *int64       `json:"score" validate:"required"`
	AcceptedAnswerID *int64       `json:"accepted_answer_id"`
	CreationDate     *int64       `json:"creation_date" validate:"required"`
	LastEditDate     *int64       `json:"last_edit_date"`
	LastActivityDate *int64       `json:"last_activity_date" validate:"required"`
	ProtectedDate    *int64       `json:"protected_date"`
	ContentLicense   *string      `json:"content_license" validate:"required"`
	Link             *string      `json:"link" validate:"required"`
}

// Answer is stored under the question that contains it; its own
// question_id, if present, is not consulted.
type Answer struct {
	AnswerID         *int64       `json:"answer_id" validate:"required"`
	QuestionID       *int64       `json:"question_id"`
	Owner            *ShallowUser `json:"owner" validate:"required"`
	Body             *string      `json:"body" validate:"required"`
	IsAccepted       *bool        `json:"is_accepted" validate:"required"`
	Score            *int64       `json:"score" validate:"required"`
	CreationDate     *int64       `json:"creation_date" validate:"required"`
	LastEditDate     *int64       `json:"last_edit_date"`
	LastActivityDate *int64       `json:"last_activity_date" validate:"required"`
	ContentLicense   *string      `json:"content_license" validate:"required"`
}

type Comment struct {
	CommentID      *int64       `json:"comment_id" validate:"required"`
	PostID         *int64       `json:"post_id" validate:"required"`
	Owner          *ShallowUser `json:"owner" validate:"required"`
	ReplyToUser    *ShallowUser `json:"reply_to_user"`
	Edited         *bool        `json:"edited" validate:"required"`
	Score          *int64       `json:"score" validate:"required"`
	CreationDate   *int64       `json:"creation_date" validate:"required"`
	ContentLicense *string      `json:"content_license" validate:"required"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// DecodeDocument parses and validates one document.
func DecodeDocument(data []byte) (*Document, error) {
	data = sanitizeUTF8(stripBOM(data))

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}

	dropEmptyReplyTargets(&doc)

	if err := validateDocument(&doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// dropEmptyReplyTargets treats "reply_to_user": {} like an absent field.
func dropEmptyReplyTargets(doc *Document) {
	drop := func(comments []Comment) {
		for i := range comments {
			if comments[i].ReplyToUser.isEmpty() {
				comments[i].ReplyToUser = nil
			}
		}
	}

	drop(doc.QuestionComments)
	for _, comments := range doc.AnswerComments {
		drop(comments)
	}
}

// LoadDocument reads path and decodes it. Files larger than maxSize bytes
// are rejected before reading; maxSize <= 0 disables the check.
func LoadDocument(path string, maxSize int64) (*Document, error) {
	if maxSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat file: %w", err)
		}
		if info.Size() > maxSize {
			return nil, fmt.Errorf("%w: %d bytes exceeds %d byte limit", ErrFileTooLarge, info.Size(), maxSize)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return DecodeDocument(data)
}

// validateDocument converts the first validation failure into a
// MissingFieldError carrying the JSON path.
func validateDocument(doc *Document) error {
	err := validate.Struct(doc)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate document: %w", err)
	}

	fe := verrs[0]
	field := strings.TrimPrefix(fe.Namespace(), "Document.")
	if fe.Tag() != "required" {
		return fmt.Errorf("invalid field %q: failed %s", field, fe.Tag())
	}
	return &MissingFieldError{Field: field}
}

func stripBOM(data []byte) []byte {
	return bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD.
func sanitizeUTF8(data []byte) []byte {
	if utf8.Valid(data) {
		return data
	}

	var buf bytes.Buffer
	buf.Grow(len(data))

	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			buf.WriteRune(utf8.RuneError)
			data = data[1:]
		} else {
			buf.WriteRune(r)
			data = data[size:]
		}
	}

	return buf.Bytes()
}
