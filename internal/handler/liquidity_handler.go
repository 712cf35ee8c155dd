package handler

import (
	"net/http"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Opening balance (initial liquidity)
// ============================================================

func getInitialLiquidityHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/initial-liquidity")
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

		// calculate=true falls back to the resolved value when no explicit
		// record exists; the default is a raw lookup.
		if r.URL.Query().Get("calculate") == "true" {
			res, err := svc.Resolve(ctx, userID, monthPeriod)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			writeSuccess(w, http.StatusOK, res)
			return
		}

		rec, err := svc.GetInitialLiquidity(ctx, userID, monthPeriod)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, rec)
	}
}

func saveInitialLiquidityHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/initial-liquidity")
		defer span.End()

		var body struct {
			UserID      string `json:"userId"`
			MonthPeriod string `json:"monthPeriod"`
			Amount      *int64 `json:"amount"`
			IsManual    *bool  `json:"isManual"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.UserID == "" || body.MonthPeriod == "" {
			writeError(w, http.StatusBadRequest, "userId and monthPeriod are required")
			return
		}
		if body.Amount == nil {
			writeError(w, http.StatusBadRequest, "amount is required")
			return
		}
		if !checkUser(w, r, body.UserID) {
			return
		}

		isManual := true
		if body.IsManual != nil {
			isManual = *body.IsManual
		}
		rec, err := svc.SaveInitialLiquidity(ctx, body.UserID, body.MonthPeriod, *body.Amount, isManual)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, rec)
	}
}

func clearInitialLiquidityHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/initial-liquidity")
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

		if err := svc.ClearInitialLiquidity(ctx, userID, monthPeriod); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": monthPeriod})
	}
}

func recalculateInitialLiquidityHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/initial-liquidity/recalculate")
		defer span.End()

		var body struct {
			UserID      string `json:"userId"`
			MonthPeriod string `json:"monthPeriod"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.UserID == "" || body.MonthPeriod == "" {
			writeError(w, http.StatusBadRequest, "userId and monthPeriod are required")
			return
		}
		if !checkUser(w, r, body.UserID) {
			return
		}

		rec, err := svc.RecalculateInitialLiquidity(ctx, body.UserID, body.MonthPeriod)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, rec)
	}
}

// ============================================================
// Monthly rollup
// ============================================================

func getMonthlyLiquidityHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/monthly-liquidity")
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

		agg, err := svc.GetMonthlyLiquidity(ctx, userID, monthPeriod)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, agg)
	}
}

func upsertMonthlyLiquidityHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/monthly-liquidity")
		defer span.End()

		var body struct {
			UserID      string `json:"userId"`
			MonthPeriod string `json:"monthPeriod"`
			domain.LiquidityUpdate
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.UserID == "" || body.MonthPeriod == "" {
			writeError(w, http.StatusBadRequest, "userId and monthPeriod are required")
			return
		}
		if !checkUser(w, r, body.UserID) {
			return
		}

		agg, err := svc.UpsertMonthlyLiquidity(ctx, body.UserID, body.MonthPeriod, &body.LiquidityUpdate)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, agg)
	}
}

func deleteMonthlyLiquidityHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/monthly-liquidity")
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

		if err := svc.DeleteMonthlyLiquidity(ctx, userID, monthPeriod); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": monthPeriod})
	}
}

func liquidityHistoryHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/monthly-liquidity/history")
		defer span.End()

		userID, ok := requireQuery(w, r, "userId")
		if !ok {
			return
		}
		if !checkUser(w, r, userID) {
			return
		}

		history, err := svc.History(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, history)
	}
}

// ============================================================
// Liquidity sources
// ============================================================

func addLiquiditySourceHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/monthly-liquidity/sources")
		defer span.End()

		var body struct {
			UserID         string `json:"userId"`
			MonthPeriod    string `json:"monthPeriod"`
			Name           string `json:"name"`
			ExpectedAmount int64  `json:"expectedAmount"`
			RealAmount     *int64 `json:"realAmount"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.UserID == "" || body.MonthPeriod == "" {
			writeError(w, http.StatusBadRequest, "userId and monthPeriod are required")
			return
		}
		if !checkUser(w, r, body.UserID) {
			return
		}

		agg, err := svc.AddSource(ctx, body.UserID, body.MonthPeriod, body.Name, body.ExpectedAmount, body.RealAmount)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, agg)
	}
}

func updateLiquiditySourceHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/monthly-liquidity/sources")
		defer span.End()

		var body struct {
			UserID      string `json:"userId"`
			MonthPeriod string `json:"monthPeriod"`
			SourceID    string `json:"sourceId"`
			domain.LiquiditySourceUpdate
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.UserID == "" || body.MonthPeriod == "" || body.SourceID == "" {
			writeError(w, http.StatusBadRequest, "userId, monthPeriod and sourceId are required")
			return
		}
		if !checkUser(w, r, body.UserID) {
			return
		}

		agg, err := svc.UpdateSource(ctx, body.UserID, body.MonthPeriod, body.SourceID, &body.LiquiditySourceUpdate)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, agg)
	}
}

func removeLiquiditySourceHandler(svc *service.Liquidity, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/monthly-liquidity/sources")
		defer span.End()

		userID, ok := requireQuery(w, r, "userId")
		if !ok {
			return
		}
		monthPeriod, ok := requireQuery(w, r, "monthPeriod")
		if !ok {
			return
		}
		sourceID, ok := requireQuery(w, r, "sourceId")
		if !ok {
			return
		}
		if !checkUser(w, r, userID) {
			return
		}

		agg, err := svc.RemoveSource(ctx, userID, monthPeriod, sourceID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, agg)
	}
}
