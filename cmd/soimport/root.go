package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/bittib01/CS209A/internal/config"
	"github.com/bittib01/CS209A/internal/database"
	"github.com/bittib01/CS209A/internal/logging"
)

// app carries state resolved once by the root command.
type app struct {
	envFile string
	cfg     *config.Config
}

func newRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           "soimport",
		Short:         "Import Stack Overflow thread documents into PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}

	cmd.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "Environment file to load before reading configuration")

	cmd.AddCommand(newImportCmd(a))
	cmd.AddCommand(newCheckCmd(a))
	return cmd
}

// setup loads the env file, configuration and logger.
func (a *app) setup() error {
	// Overload overwrites existing env vars
	if err := godotenv.Overload(a.envFile); err != nil {
		slog.Debug("no env file loaded, using environment variables", "file", a.envFile)
	} else {
		slog.Info("loaded env file", "file", a.envFile)
	}

	cfg, err := config.Load()
	if err != nil {
		return withCode(exitConfig, fmt.Errorf("load configuration: %w", err))
	}
	a.cfg = cfg

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Debug("configuration loaded", "config", cfg.String())
	return nil
}

// connect opens the run's session and logs the target database.
func (a *app) connect(ctx context.Context) (*database.Session, error) {
	session, err := database.Connect(ctx, a.cfg.Database)
	if err != nil {
		return nil, withCode(exitDB, err)
	}
	slog.Info("connected to database", "name", a.cfg.Database.DatabaseName())
	return session, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		code := exitCode(err)
		slog.Error("soimport failed", "error", err)
		os.Exit(code)
	}
}
