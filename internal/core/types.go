package core

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Beginner starts transactions. Satisfied by *database.Session and *pgx.Conn.
type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Phase is the processing state of one file.
type Phase string

const (
	PhasePending     Phase = "pending"
	PhaseNormalizing Phase = "normalizing"
	PhaseWriting     Phase = "writing"
	PhaseCommitted   Phase = "committed"
	PhaseRolledBack  Phase = "rolled_back"

	// PhaseValidated ends a dry run: the file decoded and normalized but
	// nothing was written.
	PhaseValidated Phase = "validated"
)

// RowCounts holds rows affected per table, as reported by command tags.
// Write-once conflicts count zero; user upserts always count one.
type RowCounts struct {
	Users     int64
	Questions int64
	Tags      int64
	Answers   int64
	Comments  int64
}

// Add returns the element-wise sum of c and o.
func (c RowCounts) Add(o RowCounts) RowCounts {
	return RowCounts{
		Users:     c.Users + o.Users,
		Questions: c.Questions + o.Questions,
		Tags:      c.Tags + o.Tags,
		Answers:   c.Answers + o.Answers,
		Comments:  c.Comments + o.Comments,
	}
}

// FileResult is the outcome of processing one file.
type FileResult struct {
	Path     string
	FileName string
	Phase    Phase
	FailedIn Phase // phase the error occurred in; empty on success
	Err      error
	Counts   RowCounts
	Duration time.Duration
}

// OK reports whether the file was committed or, in a dry run, validated.
func (r FileResult) OK() bool {
	return r.Err == nil
}

// Summary reports a completed run.
type Summary struct {
	RunID      string
	Dir        string
	DryRun     bool
	Files      int
	Committed  int
	Validated  int
	RolledBack int
	Rows       RowCounts
	Results    []FileResult
	Duration   time.Duration
}

// Failed returns the results of files that did not succeed.
func (s *Summary) Failed() []FileResult {
	var out []FileResult
	for _, r := range s.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
