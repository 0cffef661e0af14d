package core

import (
	"sort"
	"strconv"

	"github.com/bittib01/CS209A/internal/database"
)

// Normalized holds the flat rows of one document, ready to write.
type Normalized struct {
	// Users is deduplicated by full value equality and kept in first-seen
	// order. Two snapshots of the same user_id that differ in any column
	// both appear, and the later one wins at the database.
	Users            []database.UpsertUserParams
	Question         database.InsertQuestionParams
	Tags             []string
	Answers          []database.InsertAnswerParams
	QuestionComments []database.InsertCommentParams
	AnswerComments   []database.InsertCommentParams
}

// Normalize flattens a validated document into per-table rows.
// Users are gathered from the question owner, answer owners, then the
// owner and reply target of each question comment and answer comment.
func Normalize(doc *Document) Normalized {
	var n Normalized
	users := newUserSet()

	q := doc.Question
	users.add(q.Owner)
	n.Question = database.InsertQuestionParams{
		QuestionID:       deref(q.QuestionID),
		Title:            deref(q.Title),
		Body:             deref(q.Body),
		OwnerUserID:      deref(q.Owner.UserID),
		IsAnswered:       deref(q.IsAnswered),
		ViewCount:        deref(q.ViewCount),
		AnswerCount:      deref(q.AnswerCount),
		Score:            deref(q.Score),
		AcceptedAnswerID: ToPgInt8(q.AcceptedAnswerID),
		CreationDate:     deref(q.CreationDate),
		LastEditDate:     ToPgInt8(q.LastEditDate),
		LastActivityDate: deref(q.LastActivityDate),
		ProtectedDate:    ToPgInt8(q.ProtectedDate),
		ContentLicense:   deref(q.ContentLicense),
		Link:             deref(q.Link),
	}

	n.Tags = append(make([]string, 0, len(q.Tags)), q.Tags...)

	n.Answers = make([]database.InsertAnswerParams, 0, len(doc.Answers))
	for _, a := range doc.Answers {
		users.add(a.Owner)
		n.Answers = append(n.Answers, database.InsertAnswerParams{
			AnswerID:         deref(a.AnswerID),
			QuestionID:       n.Question.QuestionID,
			OwnerUserID:      deref(a.Owner.UserID),
			Body:             deref(a.Body),
			IsAccepted:       deref(a.IsAccepted),
			Score:            deref(a.Score),
			CreationDate:     deref(a.CreationDate),
			LastEditDate:     ToPgInt8(a.LastEditDate),
			LastActivityDate: deref(a.LastActivityDate),
			ContentLicense:   deref(a.ContentLicense),
		})
	}

	n.QuestionComments = make([]database.InsertCommentParams, 0, len(doc.QuestionComments))
	for _, c := range doc.QuestionComments {
		users.add(c.Owner)
		users.add(c.ReplyToUser)
		n.QuestionComments = append(n.QuestionComments, toComment(c, database.PostTypeQuestion))
	}

	for _, key := range sortedAnswerKeys(doc.AnswerComments) {
		for _, c := range doc.AnswerComments[key] {
			users.add(c.Owner)
			users.add(c.ReplyToUser)
			n.AnswerComments = append(n.AnswerComments, toComment(c, database.PostTypeAnswer))
		}
	}

	n.Users = users.list
	return n
}

func toComment(c Comment, postType string) database.InsertCommentParams {
	var replyTo *int64
	if c.ReplyToUser != nil {
		replyTo = c.ReplyToUser.UserID
	}

	return database.InsertCommentParams{
		CommentID:      deref(c.CommentID),
		PostType:       postType,
		PostID:         deref(c.PostID),
		OwnerUserID:    deref(c.Owner.UserID),
		ReplyToUserID:  ToPgInt8(replyTo),
		Edited:         deref(c.Edited),
		Score:          deref(c.Score),
		CreationDate:   deref(c.CreationDate),
		ContentLicense: deref(c.ContentLicense),
	}
}

func toUser(u *ShallowUser) database.UpsertUserParams {
	return database.UpsertUserParams{
		UserID:       deref(u.UserID),
		AccountID:    ToPgInt8(u.AccountID),
		Reputation:   deref(u.Reputation),
		UserType:     deref(u.UserType),
		AcceptRate:   ToPgInt4(u.AcceptRate),
		ProfileImage: ToPgText(u.ProfileImage),
		DisplayName:  deref(u.DisplayName),
		Link:         ToPgText(u.Link),
	}
}

// userSet keeps distinct users in insertion order.
type userSet struct {
	seen map[database.UpsertUserParams]struct{}
	list []database.UpsertUserParams
}

func newUserSet() *userSet {
	return &userSet{seen: make(map[database.UpsertUserParams]struct{})}
}

func (s *userSet) add(u *ShallowUser) {
	if u == nil {
		return
	}
	row := toUser(u)
	if _, ok := s.seen[row]; ok {
		return
	}
	s.seen[row] = struct{}{}
	s.list = append(s.list, row)
}

// sortedAnswerKeys orders answer_comments keys numerically so flattening is
// deterministic. Non-numeric keys sort after numeric ones, by text.
func sortedAnswerKeys(m map[string][]Comment) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.ParseInt(keys[i], 10, 64)
		b, errB := strconv.ParseInt(keys[j], 10, 64)
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}
