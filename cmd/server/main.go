package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/buff/report-engine/internal/metrics"
	"github.com/buff/report-engine/internal/report"
	"github.com/buff/report-engine/internal/risk"
	"github.com/buff/report-engine/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// --- Initialize store ---
	var st store.Store
	var cleanup []func()

	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		pool, err := pgxpool.New(context.Background(), dbURL)
		if err != nil {
			slog.Error("database connection failed", "err", err)
			os.Exit(1)
		}
		cleanup = append(cleanup, pool.Close)
		st = store.NewPostgresStore(pool)
		slog.Info("connected to PostgreSQL")

		// Wrap with Redis read-through cache if configured.
		if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
			opt, err := redis.ParseURL(redisURL)
			if err != nil {
				slog.Error("invalid REDIS_URL", "err", err)
				os.Exit(1)
			}
			rdb := redis.NewClient(opt)
			cleanup = append(cleanup, func() { rdb.Close() })
			st = store.NewCachedStore(st, rdb, 15*time.Minute)
			slog.Info("Redis cache enabled")
		}
	} else {
		slog.Warn("DATABASE_URL not set, serving empty tables from an in-memory store")
		st = store.NewMemoryStore(nil, nil, nil)
	}

	defer func() {
		for _, fn := range cleanup {
			fn()
		}
	}()

	// --- Net-liq for leverage ---
	// Upstream does not yet supply a live net-liquidation value; the default
	// stands in until it does.
	netLiq := risk.DefaultNetLiq
	if v := os.Getenv("NET_LIQ"); v != "" {
		parsed, err := decimal.NewFromString(v)
		if err != nil || !parsed.IsPositive() {
			slog.Error("invalid NET_LIQ", "value", v)
			os.Exit(1)
		}
		netLiq = parsed
	}

	// --- Report service ---
	svc := report.NewService(st, netLiq)

	// Build the snapshot before the listener starts: every handler then
	// observes an already-built, immutable state.
	warmCtx, warmCancel := context.WithTimeout(context.Background(), 60*time.Second)
	if err := svc.Warm(warmCtx); err != nil {
		warmCancel()
		slog.Error("snapshot build failed", "err", err)
		os.Exit(1)
	}
	warmCancel()

	// --- HTTP router ---
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(metrics.Middleware)

	// CORS middleware for frontend cross-origin requests.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","service":"report-engine"}`))
	})

	// Prometheus metrics endpoint.
	r.Handle("/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Chain listings and per-chain renderings.
		r.Get("/chains", svc.ListChains)
		r.Get("/chains/{chainID}", svc.GetChain)
		r.Get("/chains/{chainID}/history", svc.ChainHistoryText)
		r.Get("/chains/{chainID}/history.svg", svc.ChainHistorySVG)

		// Raw tables.
		r.Get("/transactions", svc.ListTransactions)
		r.Get("/positions", svc.ListPositions)

		// Derived analytics.
		r.Get("/risk", svc.Risk)
		r.Get("/stats", svc.Stats)
		r.Get("/stats/series/{series}", svc.StatsSeries)

		// Shareable summaries.
		r.Post("/share", svc.Share)
		r.Get("/share/{shareID}", svc.GetShared)
	})

	// --- Server ---
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("report-engine listening", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slog.Info("shutting down report-engine...")
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "err", err)
	}
	fmt.Println("report-engine stopped")
}
