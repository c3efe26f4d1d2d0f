// Package main запускает HTTP-сервер трекера продаж.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/seller-tracker/internal/config"
	"github.com/mmeshcher/seller-tracker/internal/events"
	"github.com/mmeshcher/seller-tracker/internal/handler"
	"github.com/mmeshcher/seller-tracker/internal/logger"
	"github.com/mmeshcher/seller-tracker/internal/middleware"
	"github.com/mmeshcher/seller-tracker/internal/receipt"
	"github.com/mmeshcher/seller-tracker/internal/repository"
	"github.com/mmeshcher/seller-tracker/internal/service"
	"github.com/mmeshcher/seller-tracker/internal/store"
)

type stateStorage interface {
	store.Storage
	io.Closer
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	cfg, err := config.Parse()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger initialization error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	sugar := log.Sugar()

	if cfg.PasswordGenerated {
		sugar.Warnw("ADMIN_PASSWORD is not set, generated a random one for this run",
			"user", cfg.AdminUser, "password", cfg.AdminPassword)
	}

	loc, err := cfg.Location()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}
	now := func() time.Time { return time.Now().In(loc) }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	state, err := openState(ctx, cfg)
	if err != nil {
		sugar.Fatalw("state storage initialization error", "backend", cfg.StateBackend, "error", err.Error())
	}
	defer state.Close()

	signupRepo, err := openSignups(ctx, cfg, log)
	if err != nil {
		sugar.Fatalw("signup storage initialization error", "backend", cfg.SignupBackend, "error", err.Error())
	}

	orders, err := store.NewOrderStore(ctx, state, log, store.WithClock(now), store.WithLocation(loc))
	if err != nil {
		sugar.Fatalw("orders load error", "error", err.Error())
	}
	profile, err := store.NewProfileStore(ctx, state, log)
	if err != nil {
		sugar.Fatalw("profile load error", "error", err.Error())
	}

	bus := events.NewBus()

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, 256, log)
		if err := bus.Subscribe(producer.Publish); err != nil {
			sugar.Fatalw("event bus subscription error", "error", err.Error())
		}
	}

	opts := []service.Option{service.WithClock(now), service.WithProducer(cfg.ServiceName)}
	tracker := service.NewTracker(orders, profile, receipt.NewPDFRenderer(log), bus, log, opts...)
	signups := service.NewSignupService(signupRepo, bus, log, opts...)
	defer signups.Close()

	auth := middleware.NewBasicAuth(cfg.AdminUser, cfg.AdminPassword, middleware.DefaultRealm)
	h := handler.NewHandler(tracker, signups, log, auth, cfg.StaticDir, cfg.ServiceName)

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	if producer != nil {
		g.Go(func() error {
			return producer.Run(ctx)
		})
	}

	g.Go(func() error {
		sugar.Infow("starting seller tracker server",
			"addr", cfg.RunAddress, "state", cfg.StateBackend, "signups", cfg.SignupBackend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Остановка сервера при сигнале или ошибке в другой горутине.
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Errorw("application terminated with error", "error", err)
	}
}

func openState(ctx context.Context, cfg *config.Config) (stateStorage, error) {
	switch cfg.StateBackend {
	case config.StateRedis:
		return repository.NewRedisState(ctx, cfg.RedisAddr)
	case config.StateMemory:
		return repository.NewMemoryState(), nil
	default:
		return repository.NewBoltState(cfg.StatePath)
	}
}

func openSignups(ctx context.Context, cfg *config.Config, log *zap.Logger) (service.SignupRepository, error) {
	switch cfg.SignupBackend {
	case config.SignupBackendSQLite:
		return repository.NewSQLiteSignups(cfg.SQLitePath)
	case config.SignupBackendPostgres:
		return repository.NewPostgresRepository(ctx, cfg.DatabaseURI)
	default:
		return repository.NewFileSignups(cfg.SignupsFile, log)
	}
}
