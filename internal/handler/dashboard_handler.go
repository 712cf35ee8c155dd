package handler

import (
	"net/http"

	"github.com/mymoney-app/mymoney-api/internal/infra/observability"
	"github.com/mymoney-app/mymoney-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Dashboard & engine metrics
// ============================================================

func dashboardHandler(svc *service.Dashboard, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/dashboard")
		defer span.End()

		userID, ok := requireQuery(w, r, "userId")
		if !ok {
			return
		}
		monthPeriod, ok := requireQuery(w, r, "monthPeriod")
		if !ok {
			return
		}
		if !checkUser(w, r, userID) {
			return
		}

		snapshot, err := svc.Get(ctx, userID, monthPeriod)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, snapshot)
	}
}

func engineMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /api/metrics/engine")
		defer span.End()

		writeSuccess(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
