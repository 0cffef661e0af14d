package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bittib01/CS209A/internal/database"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the database is reachable and the required tables exist",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return a.runCheck(ctx)
		},
	}
}

func (a *app) runCheck(ctx context.Context) error {
	session, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer session.Close(context.Background())

	if err := database.CheckSchema(ctx, session); err != nil {
		return withCode(exitDB, err)
	}

	names := make([]string, 0, len(database.All()))
	for _, def := range database.All() {
		names = append(names, def.Name)
	}
	slog.Info("schema ok", "tables", names)
	return nil
}
