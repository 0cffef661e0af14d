package database

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// TableDefinition describes one target table and how rows are written to it.
type TableDefinition struct {
	Name        string   // Table name, resolved through search_path
	Columns     []string // Insert column order; statement parameters follow it
	ConflictKey []string // Primary key columns used in ON CONFLICT

	// UpdateColumns are overwritten from EXCLUDED on conflict. Empty means
	// the insert is write-once (ON CONFLICT DO NOTHING).
	UpdateColumns []string

	// Order is the position of the table in the write sequence.
	Order int
}

var (
	registry   = make(map[string]TableDefinition)
	registryMu sync.RWMutex
)

// Target tables. The schema must already exist; it is never created here.
var (
	UsersTable = TableDefinition{
		Name: "users",
		Columns: []string{
			"user_id", "account_id", "reputation", "user_type",
			"accept_rate", "profile_image", "display_name", "link",
		},
		ConflictKey:   []string{"user_id"},
		UpdateColumns: []string{"reputation", "accept_rate", "profile_image", "display_name", "link"},
		Order:         1,
	}
	QuestionsTable = TableDefinition{
		Name: "questions",
		Columns: []string{
			"question_id", "title", "body", "owner_user_id", "is_answered",
			"view_count", "answer_count", "score", "accepted_answer_id",
			"creation_date", "last_edit_date", "last_activity_date",
			"protected_date", "content_license", "link",
		},
		ConflictKey: []string{"question_id"},
		Order:       2,
	}
	QuestionTagsTable = TableDefinition{
		Name:        "question_tags",
		Columns:     []string{"question_id", "tag"},
		ConflictKey: []string{"question_id", "tag"},
		Order:       3,
	}
	AnswersTable = TableDefinition{
		Name: "answers",
		Columns: []string{
			"answer_id", "question_id", "owner_user_id", "body", "is_accepted",
			"score", "creation_date", "last_edit_date", "last_activity_date",
			"content_license",
		},
		ConflictKey: []string{"answer_id"},
		Order:       4,
	}
	CommentsTable = TableDefinition{
		Name: "comments",
		Columns: []string{
			"comment_id", "post_type", "post_id", "owner_user_id",
			"reply_to_user_id", "edited", "score", "creation_date",
			"content_license",
		},
		ConflictKey: []string{"comment_id"},
		Order:       5,
	}
)

func init() {
	Register(UsersTable)
	Register(QuestionsTable)
	Register(QuestionTagsTable)
	Register(AnswersTable)
	Register(CommentsTable)
}

// Register adds a table definition to the registry.
// Panics if a table with the same name is already registered.
func Register(def TableDefinition) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[def.Name]; exists {
		panic(fmt.Sprintf("table already registered: %s", def.Name))
	}
	registry[def.Name] = def
}

// All returns every registered table in write order.
func All() []TableDefinition {
	registryMu.RLock()
	defer registryMu.RUnlock()

	result := make([]TableDefinition, 0, len(registry))
	for _, def := range registry {
		result = append(result, def)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Order != result[j].Order {
			return result[i].Order < result[j].Order
		}
		return result[i].Name < result[j].Name
	})
	return result
}

// IsUpsert reports whether conflicting rows are updated rather than kept.
func (t TableDefinition) IsUpsert() bool {
	return len(t.UpdateColumns) > 0
}

// InsertSQL renders the idempotent INSERT statement for the table.
func (t TableDefinition) InsertSQL() string {
	placeholders := make([]string, len(t.Columns))
	for i := range t.Columns {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (%s) ",
		t.Name,
		strings.Join(t.Columns, ", "),
		strings.Join(placeholders, ", "),
		strings.Join(t.ConflictKey, ", "),
	)

	if !t.IsUpsert() {
		b.WriteString("DO NOTHING")
		return b.String()
	}

	sets := make([]string, len(t.UpdateColumns))
	for i, col := range t.UpdateColumns {
		sets[i] = fmt.Sprintf("%s = EXCLUDED.%s", col, col)
	}
	b.WriteString("DO UPDATE SET ")
	b.WriteString(strings.Join(sets, ", "))
	return b.String()
}
