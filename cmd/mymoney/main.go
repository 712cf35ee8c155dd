package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/config"
	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/handler"
	"github.com/mymoney-app/mymoney-api/internal/infra/cache"
	"github.com/mymoney-app/mymoney-api/internal/infra/memstore"
	"github.com/mymoney-app/mymoney-api/internal/infra/observability"
	"github.com/mymoney-app/mymoney-api/internal/infra/resilience"
	"github.com/mymoney-app/mymoney-api/internal/infra/supabase"
	"github.com/mymoney-app/mymoney-api/internal/port"
	"github.com/mymoney-app/mymoney-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Bool("use_supabase", cfg.UseSupabase),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Int("default_cutoff_day", cfg.DefaultCutoffDay),
		zap.Bool("dev_auth", cfg.DevAuth),
	)

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "mymoney-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Cache ---
	snapshotCache := cache.New[*domain.DashboardSnapshot](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	cb := resilience.NewCircuitBreaker("supabase")

	// --- Stores ---
	var (
		transactionStore port.TransactionStore
		liquidityStore   port.LiquidityStore
		recurringStore   port.RecurringStore
		savingsStore     port.SavingsStore
	)

	if cfg.UseSupabase && cfg.SupabaseURL != "" {
		logger.Info("using Supabase as data backend",
			zap.String("supabase_url", cfg.SupabaseURL),
		)
		httpClient := &http.Client{Timeout: cfg.HTTPTimeout}
		supabaseClient := supabase.NewClient(
			httpClient,
			cfg.SupabaseURL,
			cfg.SupabaseAnonKey,
			cfg.SupabaseServiceKey,
			cb,
			resilienceCfg,
			logger,
		)
		transactionStore = supabaseClient
		liquidityStore = supabaseClient
		recurringStore = supabaseClient
		savingsStore = supabaseClient
	} else {
		logger.Warn("Supabase not configured, using in-memory store (data is lost on restart)")
		store := memstore.New()
		transactionStore = store
		liquidityStore = store
		recurringStore = store
		savingsStore = store
	}

	// --- Services ---
	projection := service.NewProjection(transactionStore, recurringStore, logger)
	dashboard := service.NewDashboard(liquidityStore, savingsStore, projection, snapshotCache, metrics, logger)
	resolver := service.NewResolver(liquidityStore, transactionStore, metrics, logger)
	updater := service.NewBalanceUpdater(transactionStore, liquidityStore, resolver, dashboard, metrics, logger)

	svcs := &handler.Services{
		Ledger:     service.NewLedger(transactionStore, updater, cfg.DefaultCutoffDay, logger),
		Liquidity:  service.NewLiquidity(liquidityStore, resolver, updater, dashboard, logger),
		Savings:    service.NewSavings(transactionStore, savingsStore, updater, cfg.DefaultCutoffDay, logger),
		Recurring:  service.NewRecurring(recurringStore, logger),
		Projection: projection,
		Dashboard:  dashboard,
	}

	// --- Router ---
	router := handler.NewRouter(svcs, metrics, cfg, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
