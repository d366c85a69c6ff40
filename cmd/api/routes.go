package main

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/goflow/backend/internal/auth"
	"github.com/goflow/backend/internal/config"
	"github.com/goflow/backend/internal/forum"
	"github.com/goflow/backend/internal/handlers"
	"github.com/goflow/backend/internal/ledger"
	"github.com/goflow/backend/internal/metrics"
	"github.com/goflow/backend/internal/middleware"
	"github.com/goflow/backend/internal/repository"
	"github.com/goflow/backend/internal/router"
	"github.com/goflow/backend/internal/services"
)

// newAPIHandler builds the full HTTP surface over store: the ledger and auth
// routes, health and metrics endpoints, wrapped in CORS.
// pingDB is nil when running on the in-memory store.
func newAPIHandler(
	cfg *config.Config,
	store repository.Store,
	users auth.Repository,
	reg *prometheus.Registry,
	pingDB func(context.Context) error,
	logger *slog.Logger,
) (http.Handler, *middleware.RateLimiter, error) {
	validator, err := services.NewValidator()
	if err != nil {
		return nil, nil, err
	}

	authSvc := auth.NewService(users, []byte(cfg.JWTSecret))
	platform := services.NewPlatform(store, ledger.NewService(), forum.NewService(), metrics.New(reg), logger)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	apiRouter := router.New(router.Deps{
		Auth:      auth.NewHandler(authSvc, logger),
		Tokens:    authSvc,
		Validator: validator,
		Limiter:   limiter,
		Forum:     &handlers.ForumHandler{Forum: platform, Logger: logger},
		Token:     &handlers.TokenHandler{Token: platform, Logger: logger},
		Account:   &handlers.AccountHandler{Users: authSvc, Ledger: platform, Logger: logger},
	})

	mux := http.NewServeMux()
	mux.Handle("/", apiRouter)
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		if pingDB != nil {
			if err := pingDB(r.Context()); err != nil {
				logger.Warn("health check: database unreachable", "error", err)
				http.Error(w, `{"status":"unavailable"}`, http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler(mux)

	return corsHandler, limiter, nil
}
