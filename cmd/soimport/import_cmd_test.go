package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/bittib01/CS209A/internal/core"
)

const minimalThread = `{
  "question": {
    "question_id": 1, "title": "t", "body": "b",
    "owner": {"user_id": 7, "reputation": 1, "user_type": "registered", "display_name": "u"},
    "tags": ["go"], "is_answered": false, "view_count": 0, "answer_count": 0, "score": 0,
    "creation_date": 1, "last_activity_date": 1, "content_license": "CC BY-SA 4.0",
    "link": "https://stackoverflow.com/q/1"
  },
  "answers": [],
  "question_comments": [],
  "answer_comments": {}
}`

func runCLI(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("IMPORT_DIR", "")
	cmd := newRootCmd()
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "none.env")}, args...))
	return cmd.Execute()
}

func TestImport_DryRun(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "q1.json"), []byte(minimalThread), 0o644))

	require.NoError(t, runCLI(t, "import", "--dry-run", "--dir", dir))
}

func TestImport_ExitCodes(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{
			name: "no directory configured",
			args: []string{"import", "--dry-run"},
			want: exitConfig,
		},
		{
			name: "missing directory",
			args: []string{"import", "--dry-run", "--dir", filepath.Join(os.TempDir(), "soimport-does-not-exist")},
			want: exitInput,
		},
		{
			name: "directory without documents",
			args: []string{"import", "--dry-run", "--dir", "."},
			want: exitInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runCLI(t, tt.args...)
			require.Error(t, err)
			require.Equal(t, tt.want, exitCode(err))
		})
	}
}

func TestImport_InvalidConfig(t *testing.T) {
	t.Setenv("IMPORT_BATCH_SIZE", "0")
	err := runCLI(t, "import", "--dry-run", "--dir", t.TempDir())
	require.Error(t, err)
	require.Equal(t, exitConfig, exitCode(err))
}

func TestFailureReason(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "coded message",
			err:  &core.MissingFieldError{Field: "question.title"},
			want: "A required field is missing (Code: DOC004). Check the field named in the log",
		},
		{
			name: "raw error when nothing matches",
			err:  errors.New("something odd"),
			want: "something odd",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, failureReason(tt.err))
		})
	}
}

func TestExitCode(t *testing.T) {
	require.Equal(t, exitOK, exitCode(nil))
	require.Equal(t, exitFailure, exitCode(errors.New("boom")))
	require.Equal(t, exitDB, exitCode(withCode(exitDB, errors.New("down"))))
	require.Nil(t, withCode(exitDB, nil))
}
