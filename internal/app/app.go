package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"

	"github.com/heartmarshall/picquiz-backend/internal/adapter/postgres"
	"github.com/heartmarshall/picquiz-backend/internal/catalog"
	"github.com/heartmarshall/picquiz-backend/internal/config"
	"github.com/heartmarshall/picquiz-backend/internal/metrics"
)

// Run loads configuration, builds the dependency graph and serves HTTP until
// ctx is cancelled.
func Run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := NewLogger(cfg.Log, os.Stderr)
	logger.Info("starting application",
		slog.String("version", BuildVersion()),
		slog.String("log_level", cfg.Log.Level),
		slog.String("storage", cfg.Storage.Driver),
		slog.String("image_provider", cfg.Image.Provider),
	)

	ds, err := catalog.LoadFiles(cfg.Dataset.VocabPath, cfg.Dataset.CaptionsPath)
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}
	logger.Info("dataset loaded",
		slog.Int("words", ds.Catalog.Len()),
		slog.Int("captions", ds.Captions.Len()),
	)

	pool, err := postgres.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	store, err := NewObjectStore(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("object storage: %w", err)
	}
	if err := EnsurePlaceholder(ctx, store, cfg.Image.Placeholder); err != nil {
		return fmt.Errorf("placeholder image: %w", err)
	}

	m := metrics.New()
	svc, err := NewQuizService(logger, cfg, ds, pool, store, m)
	if err != nil {
		return err
	}

	handler, stop := NewHTTPHandler(logger, cfg, HTTPDeps{Quiz: svc, Store: store, DB: pool, Metrics: m})
	defer stop()

	return serve(ctx, logger, cfg.Server, handler)
}

func serve(ctx context.Context, logger *slog.Logger, cfg config.ServerConfig, handler http.Handler) error {
	srv := &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}
