package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

var (
	upsertUserSQL        = UsersTable.InsertSQL()
	insertQuestionSQL    = QuestionsTable.InsertSQL()
	insertQuestionTagSQL = QuestionTagsTable.InsertSQL()
	insertAnswerSQL      = AnswersTable.InsertSQL()
	insertCommentSQL     = CommentsTable.InsertSQL()
)

// UpsertUserParams is one users row. The struct is comparable, so two values
// are equal exactly when every column matches.
type UpsertUserParams struct {
	UserID       int64
	AccountID    pgtype.Int8
	Reputation   int64
	UserType     string
	AcceptRate   pgtype.Int4
	ProfileImage pgtype.Text
	DisplayName  string
	Link         pgtype.Text
}

type InsertQuestionParams struct {
	QuestionID       int64
	Title            string
	Body             string
	OwnerUserID      int64
	IsAnswered       bool
	ViewCount        int64
	AnswerCount      int64
	Score            int64
	AcceptedAnswerID pgtype.Int8
	CreationDate     int64
	LastEditDate     pgtype.Int8
	LastActivityDate int64
	ProtectedDate    pgtype.Int8
	ContentLicense   string
	Link             string
}

type InsertAnswerParams struct {
	AnswerID         int64
	QuestionID       int64
	OwnerUserID      int64
	Body             string
	IsAccepted       bool
	Score            int64
	CreationDate     int64
	LastEditDate     pgtype.Int8
	LastActivityDate int64
	ContentLicense   string
}

// Post types stored in comments.post_type.
const (
	PostTypeQuestion = "Q"
	PostTypeAnswer   = "A"
)

type InsertCommentParams struct {
	CommentID      int64
	PostType       string
	PostID         int64
	OwnerUserID    int64
	ReplyToUserID  pgtype.Int8
	Edited         bool
	Score          int64
	CreationDate   int64
	ContentLicense string
}

// UpsertUser inserts a user or refreshes its mutable columns.
// Returns the number of rows affected.
func (q *Queries) UpsertUser(ctx context.Context, arg UpsertUserParams) (int64, error) {
	tag, err := q.db.Exec(ctx, upsertUserSQL,
		arg.UserID,
		arg.AccountID,
		arg.Reputation,
		arg.UserType,
		arg.AcceptRate,
		arg.ProfileImage,
		arg.DisplayName,
		arg.Link,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InsertQuestion inserts a question; an existing question_id is left untouched.
func (q *Queries) InsertQuestion(ctx context.Context, arg InsertQuestionParams) (int64, error) {
	tag, err := q.db.Exec(ctx, insertQuestionSQL,
		arg.QuestionID,
		arg.Title,
		arg.Body,
		arg.OwnerUserID,
		arg.IsAnswered,
		arg.ViewCount,
		arg.AnswerCount,
		arg.Score,
		arg.AcceptedAnswerID,
		arg.CreationDate,
		arg.LastEditDate,
		arg.LastActivityDate,
		arg.ProtectedDate,
		arg.ContentLicense,
		arg.Link,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// InsertQuestionTags inserts one join row per tag.
func (q *Queries) InsertQuestionTags(ctx context.Context, questionID int64, tags []string) (int64, error) {
	return q.sendBatch(ctx, len(tags), func(b *pgx.Batch, i int) {
		b.Queue(insertQuestionTagSQL, questionID, tags[i])
	})
}

// InsertAnswers inserts answers in batches; existing answer_ids are skipped.
func (q *Queries) InsertAnswers(ctx context.Context, args []InsertAnswerParams) (int64, error) {
	return q.sendBatch(ctx, len(args), func(b *pgx.Batch, i int) {
		a := args[i]
		b.Queue(insertAnswerSQL,
			a.AnswerID,
			a.QuestionID,
			a.OwnerUserID,
			a.Body,
			a.IsAccepted,
			a.Score,
			a.CreationDate,
			a.LastEditDate,
			a.LastActivityDate,
			a.ContentLicense,
		)
	})
}

// InsertComments inserts comments in batches; existing comment_ids are skipped.
func (q *Queries) InsertComments(ctx context.Context, args []InsertCommentParams) (int64, error) {
	return q.sendBatch(ctx, len(args), func(b *pgx.Batch, i int) {
		c := args[i]
		b.Queue(insertCommentSQL,
			c.CommentID,
			c.PostType,
			c.PostID,
			c.OwnerUserID,
			c.ReplyToUserID,
			c.Edited,
			c.Score,
			c.CreationDate,
			c.ContentLicense,
		)
	})
}

// sendBatch queues n statements in pages of q.batchSize and sums the rows
// affected. The first failing statement aborts the remaining pages.
func (q *Queries) sendBatch(ctx context.Context, n int, queue func(b *pgx.Batch, i int)) (int64, error) {
	var total int64

	for start := 0; start < n; start += q.batchSize {
		end := start + q.batchSize
		if end > n {
			end = n
		}

		b := &pgx.Batch{}
		for i := start; i < end; i++ {
			queue(b, i)
		}

		affected, err := q.execBatch(ctx, b)
		total += affected
		if err != nil {
			return total, fmt.Errorf("batch rows %d-%d: %w", start, end-1, err)
		}
	}

	return total, nil
}

func (q *Queries) execBatch(ctx context.Context, b *pgx.Batch) (int64, error) {
	br := q.db.SendBatch(ctx, b)

	var total int64
	for i := 0; i < b.Len(); i++ {
		tag, err := br.Exec()
		if err != nil {
			_ = br.Close()
			return total, err
		}
		total += tag.RowsAffected()
	}

	return total, br.Close()
}
