package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	apphttp "casa/internal/http"
	"casa/internal/log"
	"casa/internal/storage"
)

func newServeCmd(env *environment) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, env)
		},
	}
}

// runServe serves until SIGINT or SIGTERM, then drains in-flight requests
// for at most the configured shutdown timeout.
func runServe(cmd *cobra.Command, env *environment) error {
	cfg, logger := env.cfg, env.logger

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := InitSQLite(logger, cfg.SQLiteDBPath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if cfg.LegacyDBPath != "" {
		if _, err := ImportLegacy(ctx, logger, repo, cfg.LegacyDBPath); err != nil && !errors.Is(err, storage.ErrAlreadyImported) {
			return err
		}
	}

	srv, err := apphttp.NewServer(cfg.Addr(), repo, apphttp.Options{
		Logger:             logger,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ReadTimeout:        cfg.ReadTimeout,
		WriteTimeout:       cfg.WriteTimeout,
	})
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Starting casa server", log.FieldOperation, log.OpStartup, "addr", cfg.Addr(), "db", cfg.SQLiteDBPath)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down", log.FieldOperation, log.OpShutdown)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err.Error())
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}
