package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	githubadapter "github.com/ericfisherdev/prgate/internal/adapter/driven/github"
	"github.com/ericfisherdev/prgate/internal/adapter/driven/scaffold"
	"github.com/ericfisherdev/prgate/internal/adapter/driven/store"
	httphandler "github.com/ericfisherdev/prgate/internal/adapter/driving/http"
	"github.com/ericfisherdev/prgate/internal/application"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"github_api_url", cfg.GitHubAPIURL,
		"github_token_set", cfg.HasGitHubToken(),
		"config_output_dir", cfg.ConfigOutputDir,
	)

	// 1. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Open database and run migrations.
	db, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore(db)

	// 3. Wire adapters.
	repoStore := store.NewRepoRepo(db)

	ghClient, err := githubadapter.NewClient(githubadapter.Options{
		Token:             cfg.GitHubToken,
		BaseURL:           cfg.GitHubAPIURL,
		RequestsPerSecond: cfg.GitHubRequestsPerSecond,
	})
	if err != nil {
		return err
	}

	emitter := scaffold.NewEmitter(cfg.ConfigOutputDir, logger)

	// 4. Create application services.
	prSvc := application.NewPullRequestService(ghClient, logger)

	// 5. Create HTTP handler.
	handler := httphandler.NewServeMux(httphandler.NewHandler(repoStore, prSvc, emitter, logger), logger)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	// 6. Wait for shutdown signal or a listener failure.
	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-srvErr:
		return err
	}

	// 7. Graceful shutdown with timeout.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("prgate stopped")
	return nil
}
