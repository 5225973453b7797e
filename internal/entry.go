// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/fehu/internal/api"
	"github.com/starford/fehu/internal/assets"
	"github.com/starford/fehu/internal/assetservice"
	"github.com/starford/fehu/internal/book"
	"github.com/starford/fehu/internal/fetcher"
	"github.com/starford/fehu/internal/index"
	"github.com/starford/fehu/internal/mcpserver"
	"github.com/starford/fehu/internal/sse"
)

// Run starts the application with the given options. With serve mode off it
// performs one resolution pass and exits; otherwise it keeps an HTTP API
// (and optionally a source watcher) running until shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("book_root", cfg.Book.Root),
		slog.String("book_src", cfg.Book.Src),
		slog.String("book_dest", cfg.Book.DestDir()),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.Bool("serve", cfg.Serve.Enabled),
		slog.String("log_level", cfg.App.LogLevel.String()))

	destDir := cfg.Book.DestDir()
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	f := fetcher.New(nil)
	registry := assets.NewRegistry(f, logger)

	// SSE broker only runs in serve mode; it feeds per-asset index events to
	// connected clients.
	var broker *sse.Broker
	var onEvent index.EventCallback
	if cfg.Serve.Enabled {
		broker = sse.NewBroker(2 * time.Second)
		defer broker.Close()
		onEvent = broker.PublishAssetEvent
	}

	svc := assetservice.New(db, registry, cfg.Book.Root, cfg.Book.Src, destDir, logger, onEvent)

	// Initial resolution pass. One-shot mode lives or dies by it; serve mode
	// stays up so a later POST /api/resolve or watcher run can recover.
	if _, err := svc.Resolve(ctx); err != nil {
		if !cfg.Serve.Enabled {
			return fmt.Errorf("resolve book: %w", err)
		}
		logger.Warn("initial resolution failed", slog.String("error", err.Error()))
	}

	if !cfg.Serve.Enabled {
		logger.Info("Manifest written", slog.String("path", svc.ManifestPath()))
		return nil
	}

	apiRouter := api.NewRouter(svc, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	g, gCtx := errgroup.WithContext(ctx)

	// Re-resolve on source changes when watch mode is on.
	if cfg.Serve.Watch {
		srcDir := filepath.Join(cfg.Book.Root, cfg.Book.Src)
		g.Go(func() error {
			return book.Watch(gCtx, srcDir, logger, func() {
				if _, err := svc.Resolve(gCtx); err != nil {
					logger.Warn("re-resolution failed", slog.String("error", err.Error()))
				}
			})
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server. Logs go to stderr because stdout is
// the MCP transport.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	destDir := cfg.Book.DestDir()
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf("create dest dir: %w", err)
	}

	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return fmt.Errorf("init index: %w", err)
	}
	defer db.Close()

	f := fetcher.New(nil)
	registry := assets.NewRegistry(f, logger)
	svc := assetservice.New(db, registry, cfg.Book.Root, cfg.Book.Src, destDir, logger, nil)

	logger.Info("MCP server starting on stdio")
	return mcpserver.New(svc, f).ServeStdio()
}
