package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/period"
	"github.com/mymoney-app/mymoney-api/internal/port"
)

var ledgerTracer = otel.Tracer("service/ledger")

// Ledger manages the monthly transaction ledger. Every mutation that
// affects totals is followed by a rollup recompute for the affected
// period, sequenced explicitly here rather than by a store trigger.
//
// Savings-type transactions are excluded from this surface: they carry a
// paired write to the savings source and must go through the savings
// service instead.
type Ledger struct {
	transactions port.TransactionStore
	updater      *BalanceUpdater
	cutoffDay    int
	logger       *zap.Logger
}

// NewLedger creates the ledger service. cutoffDay is the accounting-month
// boundary used when a caller supplies a date without a period key.
func NewLedger(transactions port.TransactionStore, updater *BalanceUpdater, cutoffDay int, logger *zap.Logger) *Ledger {
	return &Ledger{
		transactions: transactions,
		updater:      updater,
		cutoffDay:    cutoffDay,
		logger:       logger,
	}
}

// List returns the user's transactions whose stored period key equals
// monthPeriod. txType narrows by type when non-empty.
func (l *Ledger) List(ctx context.Context, userID, monthPeriod string, txType domain.TransactionType) ([]domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.List")
	defer span.End()
	span.SetAttributes(attribute.String("month.period", monthPeriod))

	if txType != "" {
		if !txType.Valid() {
			return nil, &domain.ErrValidation{Field: "type", Message: "unknown transaction type"}
		}
		return l.transactions.ListTransactionsByType(ctx, userID, monthPeriod, txType)
	}
	return l.transactions.ListTransactions(ctx, userID, monthPeriod)
}

// Get returns a single transaction by id.
func (l *Ledger) Get(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.Get")
	defer span.End()

	tx, err := l.transactions.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	return tx, nil
}

// Create validates and inserts a transaction, then recomputes the rollup
// for its period. The period key is stored exactly as supplied; when the
// caller omits it, it is derived once from the date and the cutoff day and
// never re-derived afterwards.
func (l *Ledger) Create(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.Create")
	defer span.End()

	if err := l.validateNew(tx); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx.ID = uuid.NewString()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	tx.Pending = false
	if tx.Date.IsZero() {
		tx.Date = now
	}
	if tx.MonthPeriod == "" {
		tx.MonthPeriod = period.ForDate(tx.Date, l.cutoffDay)
	}

	created, err := l.transactions.InsertTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}
	if _, err := l.updater.Recompute(ctx, created.UserID, created.MonthPeriod, "transaction_create"); err != nil {
		return nil, err
	}
	return created, nil
}

// Update patches a transaction's mutable fields (value, expected amount,
// concept, payment method, date) and recomputes its period. Type, user and
// period key are fixed after creation.
func (l *Ledger) Update(ctx context.Context, id string, update *domain.TransactionUpdate) (*domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.Update")
	defer span.End()

	existing, err := l.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.Type == domain.TypeSavings {
		return nil, &domain.ErrValidation{Field: "type", Message: "savings transactions are updated through the savings endpoint"}
	}
	if update.Value != nil && *update.Value < 0 {
		return nil, &domain.ErrValidation{Field: "value", Message: "must not be negative"}
	}

	updated, err := l.transactions.UpdateTransaction(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if _, err := l.updater.Recompute(ctx, updated.UserID, updated.MonthPeriod, "transaction_update"); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a transaction and recomputes its period. Deleting an
// unknown id is an error; the caller depends on a confirmed delete before
// trusting the recomputed totals.
func (l *Ledger) Delete(ctx context.Context, id string) error {
	ctx, span := ledgerTracer.Start(ctx, "Ledger.Delete")
	defer span.End()

	existing, err := l.Get(ctx, id)
	if err != nil {
		return err
	}
	if existing.Type == domain.TypeSavings {
		return &domain.ErrValidation{Field: "type", Message: "savings transactions are deleted through the savings endpoint"}
	}

	if err := l.transactions.DeleteTransaction(ctx, id); err != nil {
		return err
	}
	_, err = l.updater.Recompute(ctx, existing.UserID, existing.MonthPeriod, "transaction_delete")
	return err
}

// Recompute forces a rollup rebuild for the period without any ledger
// change, the reconciliation path when the rollup is suspected stale.
func (l *Ledger) Recompute(ctx context.Context, userID, monthPeriod string) (*domain.MonthlyLiquidity, error) {
	if _, _, err := period.Range(monthPeriod, l.cutoffDay); err != nil {
		return nil, &domain.ErrValidation{Field: "monthPeriod", Message: err.Error()}
	}
	return l.updater.Recompute(ctx, userID, monthPeriod, "manual")
}

func (l *Ledger) validateNew(tx *domain.Transaction) error {
	if tx.UserID == "" {
		return &domain.ErrValidation{Field: "userId", Message: "required"}
	}
	if !tx.Type.Valid() {
		return &domain.ErrValidation{Field: "type", Message: "unknown transaction type"}
	}
	if tx.Type == domain.TypeSavings {
		return &domain.ErrValidation{Field: "type", Message: "savings transactions are created through the savings endpoint"}
	}
	if tx.Value < 0 {
		return &domain.ErrValidation{Field: "value", Message: "must not be negative"}
	}
	if tx.Concept == "" {
		return &domain.ErrValidation{Field: "concept", Message: "required"}
	}
	if tx.MonthPeriod != "" {
		if _, _, err := period.Parse(tx.MonthPeriod); err != nil {
			return &domain.ErrValidation{Field: "monthPeriod", Message: err.Error()}
		}
	}
	return nil
}
