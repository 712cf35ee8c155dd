package handler

import (
	"net/http"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Recurring templates (fixed expenses / expected incomes)
// ============================================================

func listFixedExpensesHandler(svc *service.Recurring, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/fixed-expenses")
		defer span.End()

		userID, ok := requireQuery(w, r, "userId")
		if !ok {
			return
		}
		if !checkUser(w, r, userID) {
			return
		}

		list, err := svc.ListFixedExpenses(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, list)
	}
}

func createFixedExpenseHandler(svc *service.Recurring, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/fixed-expenses")
		defer span.End()

		var fe domain.FixedExpense
		if !decodeBody(w, r, &fe) {
			return
		}
		if !checkUser(w, r, fe.UserID) {
			return
		}

		created, err := svc.CreateFixedExpense(ctx, &fe)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, created)
	}
}

func updateFixedExpenseHandler(svc *service.Recurring, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/fixed-expenses/{templateId}")
		defer span.End()

		var fe domain.FixedExpense
		if !decodeBody(w, r, &fe) {
			return
		}
		fe.ID = chi.URLParam(r, "templateId")
		if !checkUser(w, r, fe.UserID) {
			return
		}

		updated, err := svc.UpdateFixedExpense(ctx, &fe)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func deleteFixedExpenseHandler(svc *service.Recurring, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/fixed-expenses/{templateId}")
		defer span.End()

		id := chi.URLParam(r, "templateId")
		if err := svc.DeleteFixedExpense(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id})
	}
}

func listExpectedIncomesHandler(svc *service.Recurring, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /api/expected-incomes")
		defer span.End()

		userID, ok := requireQuery(w, r, "userId")
		if !ok {
			return
		}
		if !checkUser(w, r, userID) {
			return
		}

		list, err := svc.ListExpectedIncomes(ctx, userID)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, list)
	}
}

func createExpectedIncomeHandler(svc *service.Recurring, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/expected-incomes")
		defer span.End()

		var ei domain.ExpectedIncome
		if !decodeBody(w, r, &ei) {
			return
		}
		if !checkUser(w, r, ei.UserID) {
			return
		}

		created, err := svc.CreateExpectedIncome(ctx, &ei)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusCreated, created)
	}
}

func updateExpectedIncomeHandler(svc *service.Recurring, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /api/expected-incomes/{templateId}")
		defer span.End()

		var ei domain.ExpectedIncome
		if !decodeBody(w, r, &ei) {
			return
		}
		ei.ID = chi.URLParam(r, "templateId")
		if !checkUser(w, r, ei.UserID) {
			return
		}

		updated, err := svc.UpdateExpectedIncome(ctx, &ei)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, updated)
	}
}

func deleteExpectedIncomeHandler(svc *service.Recurring, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /api/expected-incomes/{templateId}")
		defer span.End()

		id := chi.URLParam(r, "templateId")
		if err := svc.DeleteExpectedIncome(ctx, id); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeSuccess(w, http.StatusOK, map[string]string{"deleted": id})
	}
}
