package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bittib01/CS209A/internal/core"
	"github.com/bittib01/CS209A/internal/database"
)

type importOptions struct {
	dir       string
	dryRun    bool
	skipCheck bool
}

func newImportCmd(a *app) *cobra.Command {
	var opts importOptions

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import every document in a directory, one transaction per file",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.runImport(ctx, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", "", "Input directory (default: IMPORT_DIR)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "Decode and validate files without connecting to the database")
	cmd.Flags().BoolVar(&opts.skipCheck, "skip-check", false, "Skip the schema preflight before importing")
	return cmd
}

func (a *app) runImport(ctx context.Context, opts importOptions) error {
	dir := opts.dir
	if dir == "" {
		dir = a.cfg.Import.Dir
	}
	if dir == "" {
		return withCode(exitConfig, errors.New("input directory is required: set --dir or IMPORT_DIR"))
	}

	if opts.dryRun {
		slog.Info("dry run: no database connection will be opened")
		return report(core.NewService(nil, a.cfg.Import).Run(ctx, dir))
	}

	session, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := session.Close(context.Background()); err != nil {
			slog.Warn("close database session", "error", err)
		}
	}()

	if !opts.skipCheck {
		if err := database.CheckSchema(ctx, session); err != nil {
			return withCode(exitDB, err)
		}
	}

	return report(core.NewService(session, a.cfg.Import).Run(ctx, dir))
}

// report turns a run outcome into the command's error. Per-file failures
// are already logged and do not fail the command.
func report(summary *core.Summary, err error) error {
	if err != nil {
		switch {
		case errors.Is(err, core.ErrDirNotFound), errors.Is(err, core.ErrNoInputFiles):
			return withCode(exitInput, fmt.Errorf("%s: %w", core.FormatUserError(err), err))
		default:
			return err
		}
	}

	for _, r := range summary.Failed() {
		slog.Warn("file not imported",
			"run_id", summary.RunID,
			"file", r.FileName,
			"phase", r.FailedIn,
			"reason", failureReason(r.Err),
		)
	}
	return nil
}

// failureReason prefers the coded message and falls back to the raw error
// when nothing more specific is known.
func failureReason(err error) string {
	if core.IsUserFacing(err) {
		return core.FormatUserError(err)
	}
	return err.Error()
}
