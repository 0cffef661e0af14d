package core

import (
	"context"
	"fmt"

	"github.com/bittib01/CS209A/internal/database"
)

// Writer stores one normalized document per transaction.
type Writer struct {
	batchSize int
}

// NewWriter returns a Writer that pages list inserts by batchSize rows.
// Non-positive sizes use database.DefaultBatchSize.
func NewWriter(batchSize int) *Writer {
	if batchSize <= 0 {
		batchSize = database.DefaultBatchSize
	}
	return &Writer{batchSize: batchSize}
}

// Write issues every row of n in one transaction and commits. Rows go
// parents first: users, question, tags, answers, question comments, then
// answer comments. Any failure rolls the whole document back.
func (w *Writer) Write(ctx context.Context, db Beginner, n Normalized) (RowCounts, error) {
	var counts RowCounts

	tx, err := db.Begin(ctx)
	if err != nil {
		return counts, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	q := database.New(tx).WithBatchSize(w.batchSize)

	for _, u := range n.Users {
		affected, err := q.UpsertUser(ctx, u)
		if err != nil {
			return RowCounts{}, fmt.Errorf("upsert user %d: %w", u.UserID, err)
		}
		counts.Users += affected
	}

	counts.Questions, err = q.InsertQuestion(ctx, n.Question)
	if err != nil {
		return RowCounts{}, fmt.Errorf("insert question %d: %w", n.Question.QuestionID, err)
	}

	counts.Tags, err = q.InsertQuestionTags(ctx, n.Question.QuestionID, n.Tags)
	if err != nil {
		return RowCounts{}, fmt.Errorf("insert question tags: %w", err)
	}

	counts.Answers, err = q.InsertAnswers(ctx, n.Answers)
	if err != nil {
		return RowCounts{}, fmt.Errorf("insert answers: %w", err)
	}

	affected, err := q.InsertComments(ctx, n.QuestionComments)
	if err != nil {
		return RowCounts{}, fmt.Errorf("insert question comments: %w", err)
	}
	counts.Comments += affected

	affected, err = q.InsertComments(ctx, n.AnswerComments)
	if err != nil {
		return RowCounts{}, fmt.Errorf("insert answer comments: %w", err)
	}
	counts.Comments += affected

	if err := tx.Commit(ctx); err != nil {
		return RowCounts{}, fmt.Errorf("commit: %w", err)
	}

	return counts, nil
}
