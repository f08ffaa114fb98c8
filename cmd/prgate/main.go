package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/ericfisherdev/prgate/internal/adapter/driven/store"
	"github.com/ericfisherdev/prgate/internal/config"
)

var (
	envFile string

	// cfg and logger are set by the root command's PersistentPreRunE before
	// any subcommand runs.
	cfg    *config.Config
	logger *slog.Logger
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "prgate",
		Short: "Repository registry and pull request merge gate",
		Long: `prgate keeps a list of repositories and proxies GitHub pull requests.

Pull requests labelled "do not merge" are refused at merge time. Running
prgate without a subcommand starts the HTTP server.`,
		SilenceUsage:      true,
		PersistentPreRunE: loadConfig,
		RunE:              runServe,
	}

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Path to a .env file (ignored when missing)")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(generateConfigsCmd())

	return rootCmd
}

// loadConfig reads the .env file and environment, then installs the
// configured logger as the slog default.
func loadConfig(_ *cobra.Command, _ []string) error {
	if err := config.LoadDotEnv(envFile); err != nil {
		return err
	}

	c, err := config.Load()
	if err != nil {
		return err
	}

	cfg = c
	logger = cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	return nil
}

// openStore opens the configured database and applies pending migrations.
// The caller closes the returned DB.
func openStore(ctx context.Context) (*store.DB, error) {
	db, err := store.Open(ctx, cfg.DatabaseURL, store.Options{
		QueryLog:           cfg.DBQueryLog,
		SlowQueryThreshold: cfg.DBSlowQueryThreshold,
		Logger:             logger,
	})
	if err != nil {
		return nil, err
	}
	slog.Info("database opened", "dialect", db.Dialect())

	if err := store.RunMigrations(ctx, db); err != nil {
		closeStore(db)
		return nil, err
	}
	slog.Info("migrations complete")

	return db, nil
}

func closeStore(db *store.DB) {
	if err := db.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}
