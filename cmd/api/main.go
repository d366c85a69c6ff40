package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"

	"github.com/goflow/backend/internal/auth"
	"github.com/goflow/backend/internal/config"
	"github.com/goflow/backend/internal/execution"
	"github.com/goflow/backend/internal/repository"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		store   repository.Store
		users   auth.Repository
		startBg func(context.Context)
		stopBg  func(context.Context)
		pingDB  func(context.Context) error
	)

	if cfg.DatabaseURL == "" {
		warnMemoryMode(logger, cfg)
		store = repository.NewMemoryStore()
		users = auth.NewMemoryRepository()
	} else {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("Unable to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := pool.Ping(ctx); err != nil {
			slog.Error("Cannot reach PostgreSQL", "error", err)
			os.Exit(1)
		}
		slog.Info("Connected to PostgreSQL database successfully!")

		if err := repository.Migrate(ctx, pool); err != nil {
			slog.Error("Ledger schema migration failed", "error", err)
			os.Exit(1)
		}
		pgStore := repository.NewPGStore(pool)
		store = pgStore
		users = auth.NewPGRepository(pool)
		pingDB = pool.Ping

		if cfg.WebhookURL != "" {
			riverClient, err := setupEventDelivery(ctx, pool, pgStore, cfg.WebhookURL, logger)
			if err != nil {
				slog.Error("Event delivery setup failed", "error", err)
				os.Exit(1)
			}
			startBg = func(ctx context.Context) {
				if err := riverClient.Start(ctx); err != nil && ctx.Err() == nil {
					slog.Error("River client stopped", "error", err)
				}
			}
			stopBg = func(ctx context.Context) {
				if err := riverClient.Stop(ctx); err != nil {
					slog.Error("River client stop failed", "error", err)
				}
			}
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	handler, limiter, err := newAPIHandler(cfg, store, users, reg, pingDB, logger)
	if err != nil {
		slog.Error("API setup failed", "error", err)
		os.Exit(1)
	}
	limiter.StartCleanup(ctx, 5*time.Minute)

	if startBg != nil {
		startBg(ctx)
	}

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("HTTP shutdown failed", "error", err)
		}
		if stopBg != nil {
			stopBg(shutdownCtx)
		}
	}()

	slog.Info("Starting HTTP server", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("HTTP server failed", "error", err)
		os.Exit(1)
	}
	wg.Wait()
	slog.Info("Server stopped")
}

func warnMemoryMode(log *slog.Logger, cfg *config.Config) {
	log.Warn("DATABASE_URL not set, using in-memory store (state is lost on restart)")
	if cfg.WebhookURL != "" {
		log.Warn("WEBHOOK_URL ignored: event delivery needs DATABASE_URL", "webhook_url", cfg.WebhookURL)
	}
}

// setupEventDelivery migrates River, registers the webhook worker and installs
// a store hook that enqueues one job per ledger event in the writing tx.
func setupEventDelivery(ctx context.Context, pool *pgxpool.Pool, store *repository.PGStore, webhookURL string, logger *slog.Logger) (*river.Client[pgx.Tx], error) {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return nil, err
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, nil); err != nil {
		return nil, err
	}
	slog.Info("River migrations applied")

	// Insert func is set after River client is created (breaks init cycle)
	var insertMu sync.Mutex
	var insertFn execution.InsertDeliverEventTxFunc
	insertDeliverEvent := func(ctx context.Context, tx pgx.Tx, args execution.DeliverEventArgs) error {
		insertMu.Lock()
		fn := insertFn
		insertMu.Unlock()
		if fn == nil {
			return errors.New("river insert not wired")
		}
		return fn(ctx, tx, args)
	}
	store.SetEventHook(execution.NewEventHook(webhookURL, insertDeliverEvent))

	workers := river.NewWorkers()
	river.AddWorker(workers, execution.NewDeliverEventWorker(logger))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			river.QueueDefault: {MaxWorkers: 10},
		},
		Workers: workers,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	insertMu.Lock()
	insertFn = func(ctx context.Context, tx pgx.Tx, args execution.DeliverEventArgs) error {
		_, err := riverClient.InsertTx(ctx, tx, args, nil)
		return err
	}
	insertMu.Unlock()
	return riverClient, nil
}
