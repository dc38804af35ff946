package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"skillnexus/backend/internal/api/handler"
	"skillnexus/backend/internal/auth"
	"skillnexus/backend/internal/chathub"
	"skillnexus/backend/internal/config"
	"skillnexus/backend/internal/logger"
	"skillnexus/backend/internal/storage"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info("starting SkillNexus messaging server", "addr", cfg.Addr(), "storage", cfg.Storage)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, mirror, err := setupStorage(ctx, cfg, log)
	if err != nil {
		return err
	}

	hub := chathub.NewManagerService(mirror, log)
	go hub.Run(ctx)

	tokens := auth.NewIssuer(cfg.JWTSecret, cfg.TokenTTL)
	h := handler.NewHandler(hub, store, tokens, handler.Options{
		AllowedOrigin: cfg.AllowedOrigin,
		SendBuffer:    cfg.SendBuffer,
	}, log)

	server := &http.Server{
		Addr:           cfg.Addr(),
		Handler:        handler.NewRouter(h, log),
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   10 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server failed: %w", err)
		}
	case <-ctx.Done():
		log.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown failed: %w", err)
	}
	<-hub.Done()
	return nil
}

// setupStorage opens the configured conversation store. With Redis
// configured the returned mirror publishes presence changes; otherwise it
// is nil.
func setupStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Storage, chathub.PresenceMirror, error) {
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to connect redis: %w", err)
		}
	}

	if cfg.Storage == "memory" {
		log.Warn("using in-memory storage, messages are lost on restart")
		if rdb == nil {
			return storage.NewMemory(log), nil, nil
		}
		svc := storage.NewStorageService(nil, rdb, log)
		if err := svc.ResetPresence(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to reset presence: %w", err)
		}
		return storage.NewMemory(log), svc, nil
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect postgres: %w", err)
	}
	svc := storage.NewStorageService(db, rdb, log)
	if err := svc.Migrate(); err != nil {
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := svc.ResetPresence(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to reset presence: %w", err)
	}
	log.Info("database connection established, migrations complete", "redis", rdb != nil)

	if rdb == nil {
		return svc, nil, nil
	}
	return svc, svc, nil
}
