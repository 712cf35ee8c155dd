package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/port"
)

// Recurring manages the recurring expense/income templates. Templates are
// configuration; they never touch totals directly, so no recompute follows
// their mutations — materialized transactions keep their own values.
type Recurring struct {
	store  port.RecurringStore
	logger *zap.Logger
}

// NewRecurring creates the template service.
func NewRecurring(store port.RecurringStore, logger *zap.Logger) *Recurring {
	return &Recurring{store: store, logger: logger}
}

func (r *Recurring) ListFixedExpenses(ctx context.Context, userID string) ([]domain.FixedExpense, error) {
	return r.store.ListFixedExpenses(ctx, userID)
}

func (r *Recurring) CreateFixedExpense(ctx context.Context, fe *domain.FixedExpense) (*domain.FixedExpense, error) {
	if err := validateTemplate(fe.UserID, fe.Name, fe.Amount, fe.DayOfMonth, fe.Months); err != nil {
		return nil, err
	}
	fe.ID = uuid.NewString()
	fe.CreatedAt = time.Now().UTC()
	return r.store.CreateFixedExpense(ctx, fe)
}

func (r *Recurring) UpdateFixedExpense(ctx context.Context, fe *domain.FixedExpense) (*domain.FixedExpense, error) {
	if fe.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "required"}
	}
	if err := validateTemplate(fe.UserID, fe.Name, fe.Amount, fe.DayOfMonth, fe.Months); err != nil {
		return nil, err
	}
	return r.store.UpdateFixedExpense(ctx, fe)
}

func (r *Recurring) DeleteFixedExpense(ctx context.Context, id string) error {
	return r.store.DeleteFixedExpense(ctx, id)
}

func (r *Recurring) ListExpectedIncomes(ctx context.Context, userID string) ([]domain.ExpectedIncome, error) {
	return r.store.ListExpectedIncomes(ctx, userID)
}

func (r *Recurring) CreateExpectedIncome(ctx context.Context, ei *domain.ExpectedIncome) (*domain.ExpectedIncome, error) {
	if err := validateTemplate(ei.UserID, ei.Name, ei.Amount, ei.DayOfMonth, ei.Months); err != nil {
		return nil, err
	}
	ei.ID = uuid.NewString()
	ei.CreatedAt = time.Now().UTC()
	return r.store.CreateExpectedIncome(ctx, ei)
}

func (r *Recurring) UpdateExpectedIncome(ctx context.Context, ei *domain.ExpectedIncome) (*domain.ExpectedIncome, error) {
	if ei.ID == "" {
		return nil, &domain.ErrValidation{Field: "id", Message: "required"}
	}
	if err := validateTemplate(ei.UserID, ei.Name, ei.Amount, ei.DayOfMonth, ei.Months); err != nil {
		return nil, err
	}
	return r.store.UpdateExpectedIncome(ctx, ei)
}

func (r *Recurring) DeleteExpectedIncome(ctx context.Context, id string) error {
	return r.store.DeleteExpectedIncome(ctx, id)
}

func validateTemplate(userID, name string, amount int64, dayOfMonth int, months []int) error {
	if userID == "" {
		return &domain.ErrValidation{Field: "userId", Message: "required"}
	}
	if name == "" {
		return &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if amount < 0 {
		return &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}
	if dayOfMonth < 1 || dayOfMonth > 31 {
		return &domain.ErrValidation{Field: "dayOfMonth", Message: "must be between 1 and 31"}
	}
	for _, m := range months {
		if m < 1 || m > 12 {
			return &domain.ErrValidation{Field: "months", Message: "entries must be between 1 and 12"}
		}
	}
	return nil
}
