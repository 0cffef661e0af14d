package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/bittib01/CS209A/internal/config"
	"github.com/bittib01/CS209A/internal/logging"
)

// Service runs directory imports.
type Service struct {
	db     Beginner
	cfg    config.ImportConfig
	writer *Writer
}

// NewService creates a Service writing through db. A nil db makes every run
// a dry run: files are decoded and normalized but nothing is written.
func NewService(db Beginner, cfg config.ImportConfig) *Service {
	return &Service{
		db:     db,
		cfg:    cfg,
		writer: NewWriter(cfg.BatchSize),
	}
}

// DryRun reports whether the service has no database to write to.
func (s *Service) DryRun() bool {
	return s.db == nil
}

// Run imports every matching file in dir, one transaction per file.
// An empty dir uses the configured directory.
//
// Scan errors are fatal and returned. A failing file is rolled back, logged
// and recorded in the summary; the run continues with the next file.
func (s *Service) Run(ctx context.Context, dir string) (*Summary, error) {
	if dir == "" {
		dir = s.cfg.Dir
	}

	start := time.Now()
	runID := uuid.NewString()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.FromContext(ctx)

	files, err := ScanDir(dir, s.cfg.Extension)
	if err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:   runID,
		Dir:     dir,
		DryRun:  s.DryRun(),
		Files:   len(files),
		Results: make([]FileResult, 0, len(files)),
	}

	logger.Info("import started", "dir", dir, "files", len(files), "dry_run", summary.DryRun)

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, fmt.Errorf("import interrupted after %d of %d files: %w", len(summary.Results), len(files), err)
		}

		result := s.ProcessFile(ctx, path)
		summary.Results = append(summary.Results, result)

		switch result.Phase {
		case PhaseCommitted:
			summary.Committed++
			summary.Rows = summary.Rows.Add(result.Counts)
		case PhaseValidated:
			summary.Validated++
		case PhaseRolledBack:
			summary.RolledBack++
		}
	}

	summary.Duration = time.Since(start)

	logger.Info("import finished",
		"files", summary.Files,
		"committed", summary.Committed,
		"validated", summary.Validated,
		"rolled_back", summary.RolledBack,
		"users", summary.Rows.Users,
		"questions", summary.Rows.Questions,
		"tags", summary.Rows.Tags,
		"answers", summary.Rows.Answers,
		"comments", summary.Rows.Comments,
		"duration", summary.Duration,
	)

	return summary, nil
}

// ProcessFile decodes, normalizes and writes one file. It never returns an
// error; failures are reported on the result with the phase they hit.
func (s *Service) ProcessFile(ctx context.Context, path string) FileResult {
	start := time.Now()
	result := FileResult{
		Path:     path,
		FileName: filepath.Base(path),
		Phase:    PhasePending,
	}
	logger := logging.WithFields(ctx, "file", result.FileName)

	fail := func(err error) FileResult {
		result.FailedIn = result.Phase
		result.Phase = PhaseRolledBack
		result.Err = err
		result.Duration = time.Since(start)

		msg := MapError(err)
		logger.Error("document rolled back",
			"phase", result.FailedIn,
			"code", msg.Code,
			"message", FormatUserError(err),
			"error", err,
		)
		return result
	}

	result.Phase = PhaseNormalizing
	doc, err := LoadDocument(path, s.cfg.MaxFileSize)
	if err != nil {
		return fail(err)
	}
	n := Normalize(doc)

	if s.DryRun() {
		result.Phase = PhaseValidated
		result.Duration = time.Since(start)
		logger.Info("document validated",
			"question_id", n.Question.QuestionID,
			"users", len(n.Users),
			"tags", len(n.Tags),
			"answers", len(n.Answers),
			"comments", len(n.QuestionComments)+len(n.AnswerComments),
		)
		return result
	}

	result.Phase = PhaseWriting
	counts, err := s.writer.Write(ctx, s.db, n)
	if err != nil {
		return fail(err)
	}

	result.Phase = PhaseCommitted
	result.Counts = counts
	result.Duration = time.Since(start)

	logger.Info("document committed",
		"question_id", n.Question.QuestionID,
		"users", counts.Users,
		"questions", counts.Questions,
		"tags", counts.Tags,
		"answers", counts.Answers,
		"comments", counts.Comments,
		"duration", result.Duration,
	)

	return result
}
