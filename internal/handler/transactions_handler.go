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
// Transaction ledger
// ============================================================

func listTransactionsHandler(ledger *service.Ledger, projection *service.Projection, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/transactions")
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

		// includePending merges projection placeholders for recurring
		// templates not yet logged this period.
		if r.URL.Query().Get("includePending") == "true" {
			merged, err := projection.Merged(ctx, userID, monthPeriod)
			if err != nil {
				handleServiceError(w, err, logger)
				return
			}
			writeSuccess(w, http.StatusOK, merged)
			return
		}

		txns, err := ledger.List(ctx, userID, monthPeriod, domain.TransactionType(r.URL.Query().Get("type")))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, txns)
	}
}

type transactionRequest struct {
	UserID         string     `json:"userId"`
	Type           string     `json:"type"`
	Value          *int64     `json:"value"`
	ExpectedAmount int64      `json:"expectedAmount"`
	Concept        string     `json:"concept"`
	PaymentMethod  string     `json:"paymentMethod"`
	Date           *time.Time `json:"date"`
	MonthPeriod    string     `json:"monthPeriod"`
	FixedExpenseID string     `json:"fixedExpenseId"`
	ExpectedIncome string     `json:"expectedIncomeId"`
	OriginSource   string     `json:"originSource"`
}

func createTransactionHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/transactions")
		defer span.End()

		var body transactionRequest
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

		tx := &domain.Transaction{
			UserID:           body.UserID,
			Type:             domain.TransactionType(body.Type),
			Value:            *body.Value,
			ExpectedAmount:   body.ExpectedAmount,
			Concept:          body.Concept,
			PaymentMethod:    body.PaymentMethod,
			MonthPeriod:      body.MonthPeriod,
			FixedExpenseID:   body.FixedExpenseID,
			ExpectedIncomeID: body.ExpectedIncome,
			OriginSource:     body.OriginSource,
		}
		if body.Date != nil {
			tx.Date = *body.Date
		}

		created, err := ledger.Create(ctx, tx)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, created)
	}
}

func updateTransactionHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/transactions/{transactionId}")
		defer span.End()

		id := chi.URLParam(r, "transactionId")
		var update domain.TransactionUpdate
		if !decodeBody(w, r, &update) {
			return
		}

		updated, err := ledger.Update(ctx, id, &update)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func deleteTransactionHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/transactions/{transactionId}")
		defer span.End()

		id := chi.URLParam(r, "transactionId")
		if err := ledger.Delete(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id})
	}
}

func recomputeHandler(ledger *service.Ledger, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/transactions/recompute")
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

		agg, err := ledger.Recompute(ctx, body.UserID, body.MonthPeriod)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, agg)
	}
}
