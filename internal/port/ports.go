// Package port defines the interfaces (ports) for the document store
// collections the engine depends on. Following hexagonal architecture,
// these ports decouple the service layer from the concrete persistence
// adapter (Supabase PostgREST in production, memstore in tests and local
// development).
package port

import (
	"context"

	"github.com/mymoney-app/mymoney-api/internal/domain"
)

// TransactionStore persists the monthly ledger. Queries group by the
// stored monthPeriod, never by re-deriving the period from the date.
// GetTransaction returns (nil, nil) when the id does not exist; the
// service layer turns absence into a not-found error.
type TransactionStore interface {
	ListTransactions(ctx context.Context, userID, monthPeriod string) ([]domain.Transaction, error)
	ListTransactionsByType(ctx context.Context, userID, monthPeriod string, txType domain.TransactionType) ([]domain.Transaction, error)
	ListSavingsTransactions(ctx context.Context, savingsSourceID string) ([]domain.Transaction, error)
	GetTransaction(ctx context.Context, id string) (*domain.Transaction, error)
	InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, id string, update *domain.TransactionUpdate) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error
}

// LiquidityStore persists the per-period rollups and the opening-balance
// override records. Get methods return (nil, nil) when no record exists;
// absence is a normal state for both collections, not an error.
type LiquidityStore interface {
	GetMonthlyLiquidity(ctx context.Context, userID, monthPeriod string) (*domain.MonthlyLiquidity, error)
	UpsertMonthlyLiquidity(ctx context.Context, agg *domain.MonthlyLiquidity) (*domain.MonthlyLiquidity, error)
	DeleteMonthlyLiquidity(ctx context.Context, userID, monthPeriod string) error
	ListMonthlyLiquidity(ctx context.Context, userID string) ([]domain.MonthlyLiquidity, error)

	GetInitialLiquidity(ctx context.Context, userID, monthPeriod string) (*domain.InitialLiquidity, error)
	SaveInitialLiquidity(ctx context.Context, rec *domain.InitialLiquidity) (*domain.InitialLiquidity, error)
	DeleteInitialLiquidity(ctx context.Context, userID, monthPeriod string) error
}

// RecurringStore persists the recurring expense/income templates.
type RecurringStore interface {
	ListFixedExpenses(ctx context.Context, userID string) ([]domain.FixedExpense, error)
	CreateFixedExpense(ctx context.Context, fe *domain.FixedExpense) (*domain.FixedExpense, error)
	UpdateFixedExpense(ctx context.Context, fe *domain.FixedExpense) (*domain.FixedExpense, error)
	DeleteFixedExpense(ctx context.Context, id string) error

	ListExpectedIncomes(ctx context.Context, userID string) ([]domain.ExpectedIncome, error)
	CreateExpectedIncome(ctx context.Context, ei *domain.ExpectedIncome) (*domain.ExpectedIncome, error)
	UpdateExpectedIncome(ctx context.Context, ei *domain.ExpectedIncome) (*domain.ExpectedIncome, error)
	DeleteExpectedIncome(ctx context.Context, id string) error
}

// SavingsStore persists the savings sources with their running balances
// and deposit histories. GetSavingsSource returns (nil, nil) when the id
// does not exist.
type SavingsStore interface {
	GetSavingsSource(ctx context.Context, id string) (*domain.SavingsSource, error)
	ListSavingsSources(ctx context.Context, userID string) ([]domain.SavingsSource, error)
	CreateSavingsSource(ctx context.Context, src *domain.SavingsSource) (*domain.SavingsSource, error)
	// UpdateSavingsBalance writes the running balance and the deposit list
	// in a single call, so the pair never diverges within one write.
	UpdateSavingsBalance(ctx context.Context, id string, currentBalance int64, deposits []domain.SavingsDeposit) error
	DeleteSavingsSource(ctx context.Context, id string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// Invalidator drops cached derived state for a (user, period) pair. The
// balance updater calls it after every recompute, which makes the recompute
// choke point also the single cache-invalidation point.
type Invalidator interface {
	Invalidate(userID, monthPeriod string)
}
