package database

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/require"

	"github.com/bittib01/CS209A/internal/database/dbtest"
)

func TestInsertSQL(t *testing.T) {
	tests := []struct {
		name string
		def  TableDefinition
		want string
	}{
		{
			name: "users upsert refreshes mutable columns",
			def:  UsersTable,
			want: "INSERT INTO users (user_id, account_id, reputation, user_type, accept_rate, profile_image, display_name, link) " +
				"VALUES ($1, $2, $3, $4, $5, $6, $7, $8) ON CONFLICT (user_id) DO UPDATE SET " +
				"reputation = EXCLUDED.reputation, accept_rate = EXCLUDED.accept_rate, profile_image = EXCLUDED.profile_image, " +
				"display_name = EXCLUDED.display_name, link = EXCLUDED.link",
		},
		{
			name: "question tags are write-once on the composite key",
			def:  QuestionTagsTable,
			want: "INSERT INTO question_tags (question_id, tag) VALUES ($1, $2) ON CONFLICT (question_id, tag) DO NOTHING",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.def.InsertSQL())
		})
	}
}

func TestWriteOnceTables(t *testing.T) {
	for _, def := range []TableDefinition{QuestionsTable, QuestionTagsTable, AnswersTable, CommentsTable} {
		require.False(t, def.IsUpsert(), def.Name)
		require.Contains(t, def.InsertSQL(), "DO NOTHING", def.Name)
	}
	require.True(t, UsersTable.IsUpsert())
}

func TestAll_WriteOrder(t *testing.T) {
	var names []string
	for _, def := range All() {
		names = append(names, def.Name)
	}
	require.Equal(t, []string{"users", "questions", "question_tags", "answers", "comments"}, names)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	require.Panics(t, func() { Register(UsersTable) })
}

func TestQueries_UpsertUserIdempotent(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB()

	user := UpsertUserParams{
		UserID:      7,
		Reputation:  10,
		UserType:    "registered",
		DisplayName: "alice",
		AcceptRate:  pgtype.Int4{Int32: 50, Valid: true},
	}

	for _, rep := range []int64{10, 25} {
		tx, err := db.Begin(ctx)
		require.NoError(t, err)
		user.Reputation = rep
		n, err := New(tx).UpsertUser(ctx, user)
		require.NoError(t, err)
		require.Equal(t, int64(1), n)
		require.NoError(t, tx.Commit(ctx))
	}

	rows := db.Rows("users")
	require.Len(t, rows, 1)
	require.Equal(t, int64(25), rows[0]["reputation"])
	require.Equal(t, pgtype.Int8{}, rows[0]["account_id"])
}

func TestQueries_InsertQuestionWriteOnce(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB()

	q := InsertQuestionParams{QuestionID: 100, Title: "first", OwnerUserID: 7}
	for i, title := range []string{"first", "second"} {
		tx, err := db.Begin(ctx)
		require.NoError(t, err)
		q.Title = title
		n, err := New(tx).InsertQuestion(ctx, q)
		require.NoError(t, err)
		require.Equal(t, int64(1-i), n)
		require.NoError(t, tx.Commit(ctx))
	}

	rows := db.Rows("questions")
	require.Len(t, rows, 1)
	require.Equal(t, "first", rows[0]["title"])
}

func TestQueries_BatchPaging(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB()
	tx, err := db.Begin(ctx)
	require.NoError(t, err)

	tags := []string{"go", "sql", "postgres", "etl", "json"}
	n, err := New(tx).WithBatchSize(2).InsertQuestionTags(ctx, 100, tags)
	require.NoError(t, err)
	require.Equal(t, int64(5), n)

	// duplicate tag in the same document is a no-op
	n, err = New(tx).InsertQuestionTags(ctx, 100, []string{"go"})
	require.NoError(t, err)
	require.Equal(t, int64(0), n)

	require.NoError(t, tx.Commit(ctx))
	require.Equal(t, 5, db.Count("question_tags"))

	for _, st := range db.Statements() {
		require.True(t, st.Batched)
		require.Equal(t, "question_tags", st.Table)
	}
}

func TestQueries_BatchStopsAtFirstError(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB()
	boom := errors.New("violates foreign key constraint")
	db.FailOn = func(st dbtest.Statement) error {
		if st.Table == "answers" && st.Args[0] == int64(2) {
			return boom
		}
		return nil
	}

	tx, err := db.Begin(ctx)
	require.NoError(t, err)

	answers := []InsertAnswerParams{{AnswerID: 1}, {AnswerID: 2}, {AnswerID: 3}, {AnswerID: 4}}
	n, err := New(tx).WithBatchSize(2).InsertAnswers(ctx, answers)
	require.ErrorIs(t, err, boom)
	require.Equal(t, int64(1), n)
	require.Contains(t, err.Error(), "batch rows 0-1")
}

func TestQueries_EmptyListIssuesNothing(t *testing.T) {
	ctx := context.Background()
	db := dbtest.NewDB()
	tx, err := db.Begin(ctx)
	require.NoError(t, err)

	n, err := New(tx).InsertComments(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, db.Statements())
}

func TestCheckSchema(t *testing.T) {
	ctx := context.Background()

	db := dbtest.NewDB()
	require.NoError(t, CheckSchema(ctx, db))

	db.Missing = map[string]bool{"comments": true, "question_tags": true}
	err := CheckSchema(ctx, db)
	require.ErrorIs(t, err, ErrSchemaMissing)
	require.Contains(t, err.Error(), "question_tags, comments")
}

func TestSession_CloseWithoutConnection(t *testing.T) {
	s := &Session{}
	require.NoError(t, s.Close(context.Background()))
	require.NoError(t, s.Close(context.Background()))
}
