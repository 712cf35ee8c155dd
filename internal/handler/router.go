package handler

import (
	"net/http"

	"github.com/mymoney-app/mymoney-api/internal/config"
	"github.com/mymoney-app/mymoney-api/internal/infra/observability"
	"github.com/mymoney-app/mymoney-api/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services bundles the engine services the router dispatches to.
type Services struct {
	Ledger     *service.Ledger
	Liquidity  *service.Liquidity
	Savings    *service.Savings
	Recurring  *service.Recurring
	Projection *service.Projection
	Dashboard  *service.Dashboard
}

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract of the MyMoney frontend.
func NewRouter(svcs *Services, metrics *observability.Metrics, cfg *config.Config, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler())
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API ---
	r.Route("/api", func(r chi.Router) {
		r.Use(JWTAuthMiddleware(cfg.JWTSecret, cfg.DevAuth, logger))

		// =============================================
		// Opening balance (initial liquidity)
		// =============================================
		r.Get("/initial-liquidity", getInitialLiquidityHandler(svcs.Liquidity, logger))
		r.Post("/initial-liquidity", saveInitialLiquidityHandler(svcs.Liquidity, logger))
		r.Put("/initial-liquidity", saveInitialLiquidityHandler(svcs.Liquidity, logger))
		r.Delete("/initial-liquidity", clearInitialLiquidityHandler(svcs.Liquidity, logger))
		r.Post("/initial-liquidity/recalculate", recalculateInitialLiquidityHandler(svcs.Liquidity, logger))

		// =============================================
		// Monthly rollup + source breakdown
		// =============================================
		r.Get("/monthly-liquidity", getMonthlyLiquidityHandler(svcs.Liquidity, logger))
		r.Post("/monthly-liquidity", upsertMonthlyLiquidityHandler(svcs.Liquidity, logger))
		r.Put("/monthly-liquidity", upsertMonthlyLiquidityHandler(svcs.Liquidity, logger))
		r.Delete("/monthly-liquidity", deleteMonthlyLiquidityHandler(svcs.Liquidity, logger))
		r.Get("/monthly-liquidity/history", liquidityHistoryHandler(svcs.Liquidity, logger))
		r.Post("/monthly-liquidity/sources", addLiquiditySourceHandler(svcs.Liquidity, logger))
		r.Put("/monthly-liquidity/sources", updateLiquiditySourceHandler(svcs.Liquidity, logger))
		r.Delete("/monthly-liquidity/sources", removeLiquiditySourceHandler(svcs.Liquidity, logger))

		// =============================================
		// Savings (deposits + sources)
		// =============================================
		r.Get("/savings", listSavingsHandler(svcs.Ledger, logger))
		r.Post("/savings", createDepositHandler(svcs.Savings, logger))
		r.Put("/savings", updateDepositHandler(svcs.Savings, logger))
		r.Delete("/savings", deleteDepositHandler(svcs.Savings, logger))
		r.Get("/savings/sources", listSavingsSourcesHandler(svcs.Savings, logger))
		r.Post("/savings/sources", createSavingsSourceHandler(svcs.Savings, logger))
		r.Delete("/savings/sources/{sourceId}", deleteSavingsSourceHandler(svcs.Savings, logger))
		r.Post("/savings/sources/{sourceId}/recalculate", recalculateSavingsHandler(svcs.Savings, logger))

		// =============================================
		// Transaction ledger
		// =============================================
		r.Get("/transactions", listTransactionsHandler(svcs.Ledger, svcs.Projection, logger))
		r.Post("/transactions", createTransactionHandler(svcs.Ledger, logger))
		r.Put("/transactions/{transactionId}", updateTransactionHandler(svcs.Ledger, logger))
		r.Delete("/transactions/{transactionId}", deleteTransactionHandler(svcs.Ledger, logger))
		r.Post("/transactions/recompute", recomputeHandler(svcs.Ledger, logger))

		// =============================================
		// Recurring templates
		// =============================================
		r.Get("/fixed-expenses", listFixedExpensesHandler(svcs.Recurring, logger))
		r.Post("/fixed-expenses", createFixedExpenseHandler(svcs.Recurring, logger))
		r.Put("/fixed-expenses/{templateId}", updateFixedExpenseHandler(svcs.Recurring, logger))
		r.Delete("/fixed-expenses/{templateId}", deleteFixedExpenseHandler(svcs.Recurring, logger))
		r.Get("/expected-incomes", listExpectedIncomesHandler(svcs.Recurring, logger))
		r.Post("/expected-incomes", createExpectedIncomeHandler(svcs.Recurring, logger))
		r.Put("/expected-incomes/{templateId}", updateExpectedIncomeHandler(svcs.Recurring, logger))
		r.Delete("/expected-incomes/{templateId}", deleteExpectedIncomeHandler(svcs.Recurring, logger))

		// =============================================
		// Dashboard & engine metrics
		// =============================================
		r.Get("/dashboard", dashboardHandler(svcs.Dashboard, logger))
		r.Get("/metrics/engine", engineMetricsHandler(metrics, logger))
	})

	return r
}

func healthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
