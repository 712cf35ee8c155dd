package handler

import (
	"net/http"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Savings deposits
// ============================================================

func listSavingsHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/savings")
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

		txns, err := ledger.List(ctx, userID, monthPeriod, domain.TypeSavings)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, txns)
	}
}

func createDepositHandler(svc *service.Savings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/savings")
		defer span.End()

		var body struct {
			UserID          string     `json:"userId"`
			MonthPeriod     string     `json:"monthPeriod"`
			SavingsSourceID string     `json:"savingsSourceId"`
			OriginSource    string     `json:"originSource"`
			Value           *int64     `json:"value"`
			Concept         string     `json:"concept"`
			Date            *time.Time `json:"date"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.Value == nil {
			writeError(w, http.StatusBadRequest, "value is required")
			return
		}
		if !checkUser(w, r, body.UserID) {
			return
		}

		in := &service.DepositInput{
			UserID:          body.UserID,
			MonthPeriod:     body.MonthPeriod,
			SavingsSourceID: body.SavingsSourceID,
			OriginSource:    body.OriginSource,
			Value:           *body.Value,
			Concept:         body.Concept,
		}
		if body.Date != nil {
			in.Date = *body.Date
		}

		tx, err := svc.CreateDeposit(ctx, in)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, tx)
	}
}

func updateDepositHandler(svc *service.Savings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/savings")
		defer span.End()

		var body struct {
			TransactionID string     `json:"transactionId"`
			Value         *int64     `json:"value"`
			OriginSource  *string    `json:"originSource"`
			Concept       *string    `json:"concept"`
			Date          *time.Time `json:"date"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.TransactionID == "" {
			writeError(w, http.StatusBadRequest, "transactionId is required")
			return
		}
		existing, err := svc.GetDeposit(ctx, body.TransactionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if !checkUser(w, r, existing.UserID) {
			return
		}

		update := &domain.TransactionUpdate{
			Value:   body.Value,
			Concept: body.Concept,
			Date:    body.Date,
		}
		tx, err := svc.UpdateDeposit(ctx, body.TransactionID, update, body.OriginSource)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, tx)
	}
}

func deleteDepositHandler(svc *service.Savings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/savings")
		defer span.End()

		transactionID, ok := requireQuery(w, r, "transactionId")
		if !ok {
			return
		}
		existing, err := svc.GetDeposit(ctx, transactionID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if !checkUser(w, r, existing.UserID) {
			return
		}

		if err := svc.DeleteDeposit(ctx, transactionID); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": transactionID})
	}
}

// ============================================================
// Savings sources
// ============================================================

func listSavingsSourcesHandler(svc *service.Savings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/savings/sources")
		defer span.End()

		userID, ok := requireQuery(w, r, "userId")
		if !ok {
			return
		}
		if !checkUser(w, r, userID) {
			return
		}

		sources, err := svc.ListSources(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, sources)
	}
}

func createSavingsSourceHandler(svc *service.Savings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/savings/sources")
		defer span.End()

		var body struct {
			UserID string `json:"userId"`
			Name   string `json:"name"`
			Amount *int64 `json:"amount"`
		}
		if !decodeBody(w, r, &body) {
			return
		}
		if body.Amount == nil {
			writeError(w, http.StatusBadRequest, "amount is required")
			return
		}
		if !checkUser(w, r, body.UserID) {
			return
		}

		src, err := svc.CreateSource(ctx, &domain.SavingsSource{
			UserID: body.UserID,
			Name:   body.Name,
			Amount: *body.Amount,
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, src)
	}
}

func deleteSavingsSourceHandler(svc *service.Savings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/savings/sources/{sourceId}")
		defer span.End()

		id := chi.URLParam(r, "sourceId")
		if err := svc.DeleteSource(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id})
	}
}

func recalculateSavingsHandler(svc *service.Savings, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/savings/sources/{sourceId}/recalculate")
		defer span.End()

		id := chi.URLParam(r, "sourceId")
		src, err := svc.Recalculate(ctx, id)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, src)
	}
}
