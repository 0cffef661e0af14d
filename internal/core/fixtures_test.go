package core

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// owner returns a shallow user object as the forum API emits it.
func owner(id, reputation int64) map[string]any {
	return map[string]any{
		"user_id":       id,
		"account_id":    id * 10,
		"reputation":    reputation,
		"user_type":     "registered",
		"display_name":  fmt.Sprintf("user%d", id),
		"profile_image": fmt.Sprintf("https://example.com/u/%d.png", id),
		"link":          fmt.Sprintf("https://stackoverflow.com/users/%d", id),
	}
}

func comment(id, postID int64, by map[string]any) map[string]any {
	return map[string]any{
		"comment_id":      id,
		"post_id":         postID,
		"owner":           by,
		"edited":          false,
		"score":           0,
		"creation_date":   1700000200 + id,
		"content_license": "CC BY-SA 4.0",
	}
}

// threadDoc builds a document for question qid with one answer (qid+100),
// two question comments and one answer comment, owned by users 1, 2 and 3.
// Comment 2 replies to user 3.
func threadDoc(qid int64) map[string]any {
	aid := qid + 100

	reply := comment(qid+201, qid, owner(2, 20))
	reply["reply_to_user"] = owner(3, 5)

	return map[string]any{
		"question": map[string]any{
			"question_id":        qid,
			"title":              "How do I batch inserts with pgx?",
			"body":               "<p>Looking for the idiomatic way.</p>",
			"owner":              owner(1, 10),
			"tags":               []any{"go", "postgresql", "pgx"},
			"is_answered":        true,
			"view_count":         42,
			"answer_count":       1,
			"score":              3,
			"creation_date":      1700000000,
			"last_activity_date": 1700000100,
			"content_license":    "CC BY-SA 4.0",
			"link":               fmt.Sprintf("https://stackoverflow.com/questions/%d", qid),
		},
		"answers": []any{
			map[string]any{
				"answer_id":          aid,
				"owner":              owner(2, 20),
				"body":               "<p>Use pgx.Batch.</p>",
				"is_accepted":        false,
				"score":              1,
				"creation_date":      1700000050,
				"last_activity_date": 1700000060,
				"content_license":    "CC BY-SA 4.0",
			},
		},
		"question_comments": []any{
			comment(qid+200, qid, owner(3, 5)),
			reply,
		},
		"answer_comments": map[string]any{
			fmt.Sprint(aid): []any{comment(qid+202, aid, owner(1, 10))},
		},
	}
}

func obj(v any) map[string]any { return v.(map[string]any) }

func arr(v any) []any { return v.([]any) }

func encode(t *testing.T, doc map[string]any) []byte {
	t.Helper()
	data, err := json.Marshal(doc)
	require.NoError(t, err)
	return data
}

func writeDoc(t *testing.T, dir, name string, doc map[string]any) string {
	t.Helper()
	return writeRaw(t, dir, name, encode(t, doc))
}

func writeRaw(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func mustDecode(t *testing.T, doc map[string]any) *Document {
	t.Helper()
	d, err := DecodeDocument(encode(t, doc))
	require.NoError(t, err)
	return d
}
