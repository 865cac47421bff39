package main

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

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"vidaplus/internal/config"
	"vidaplus/internal/lib/sl"
	"vidaplus/internal/server"
	"vidaplus/internal/storage"
	"vidaplus/internal/storage/jsonfile"
	"vidaplus/internal/storage/mongostore"
	"vidaplus/internal/storage/postgres"
)

func main() {
	// Load .env file
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", sl.Err(err))
		os.Exit(1)
	}

	log := setupLogger(cfg.Env)
	if envErr != nil {
		log.Debug("no .env file found, relying on environment variables")
	}
	log.Info("starting vidaplus api", slog.String("env", cfg.Env), slog.String("storage", cfg.Storage.Driver))

	if cfg.Env != config.EnvLocal {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Storage ---
	store, err := openStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Error("failed to open storage", sl.Err(err))
		os.Exit(1)
	}
	defer store.Close()

	// --- Metrics ---
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router, err := server.NewRouter(server.Options{
		Config:   cfg,
		Store:    store,
		Logger:   log,
		Registry: registry,
	})
	if err != nil {
		log.Error("failed to build router", sl.Err(err))
		os.Exit(1)
	}

	// --- Start Server ---
	srv := &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server starting", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// --- Graceful Shutdown ---
	select {
	case <-ctx.Done():
		log.Info("shutting down server")
	case err := <-serverErr:
		if err != nil {
			log.Error("server stopped with error", sl.Err(err))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", sl.Err(err))
		return
	}

	log.Info("server exiting")
}

func openStore(ctx context.Context, cfg config.Storage, log *slog.Logger) (storage.Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := config.ConnectDB(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		if err := config.AutoMigrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
		return postgres.New(pool), nil
	case config.DriverMongo:
		client, err := config.ConnectMongo(ctx, cfg.Mongo, log)
		if err != nil {
			return nil, err
		}
		store := mongostore.New(client.Database(cfg.Mongo.Database))
		if err := store.EnsureIndexes(ctx); err != nil {
			store.Close()
			return nil, err
		}
		return store, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.DataFile), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
		store, err := jsonfile.Open(cfg.DataFile)
		if err != nil {
			return nil, err
		}
		log.Info("using json document store", slog.String("path", cfg.DataFile))
		return store, nil
	}
}

func setupLogger(env string) *slog.Logger {
	switch env {
	case config.EnvLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	case config.EnvDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
}
