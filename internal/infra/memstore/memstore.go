// Package memstore implements all store ports in memory. It backs the
// service when Supabase is not configured (local development) and doubles
// as the store fake in service and handler tests. Semantics mirror the
// PostgREST adapter: Get methods return (nil, nil) on absence and deletes
// of unknown ids fail.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/domain"
)

// Store is a thread-safe in-memory document store.
type Store struct {
	mu               sync.RWMutex
	transactions     map[string]domain.Transaction
	monthlyLiquidity map[string]domain.MonthlyLiquidity // keyed userId_monthPeriod
	initialLiquidity map[string]domain.InitialLiquidity // keyed userId_monthPeriod
	savingsSources   map[string]domain.SavingsSource
	fixedExpenses    map[string]domain.FixedExpense
	expectedIncomes  map[string]domain.ExpectedIncome
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		transactions:     make(map[string]domain.Transaction),
		monthlyLiquidity: make(map[string]domain.MonthlyLiquidity),
		initialLiquidity: make(map[string]domain.InitialLiquidity),
		savingsSources:   make(map[string]domain.SavingsSource),
		fixedExpenses:    make(map[string]domain.FixedExpense),
		expectedIncomes:  make(map[string]domain.ExpectedIncome),
	}
}

// ============================================================
// TransactionStore
// ============================================================

func (s *Store) ListTransactions(_ context.Context, userID, monthPeriod string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Transaction{}
	for _, t := range s.transactions {
		if t.UserID == userID && t.MonthPeriod == monthPeriod {
			out = append(out, t)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *Store) ListTransactionsByType(_ context.Context, userID, monthPeriod string, txType domain.TransactionType) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Transaction{}
	for _, t := range s.transactions {
		if t.UserID == userID && t.MonthPeriod == monthPeriod && t.Type == txType {
			out = append(out, t)
		}
	}
	sortByDateDesc(out)
	return out, nil
}

func (s *Store) ListSavingsTransactions(_ context.Context, savingsSourceID string) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Transaction{}
	for _, t := range s.transactions {
		if t.Type == domain.TypeSavings && t.SavingsSourceID == savingsSourceID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (s *Store) GetTransaction(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := t
	return &cp, nil
}

func (s *Store) InsertTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.transactions[tx.ID] = *tx
	cp := *tx
	return &cp, nil
}

func (s *Store) UpdateTransaction(_ context.Context, id string, update *domain.TransactionUpdate) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transactions[id]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	if update.Value != nil {
		t.Value = *update.Value
	}
	if update.ExpectedAmount != nil {
		t.ExpectedAmount = *update.ExpectedAmount
	}
	if update.Concept != nil {
		t.Concept = *update.Concept
	}
	if update.PaymentMethod != nil {
		t.PaymentMethod = *update.PaymentMethod
	}
	if update.Date != nil {
		t.Date = *update.Date
	}
	t.UpdatedAt = time.Now().UTC()
	s.transactions[id] = t
	cp := t
	return &cp, nil
}

func (s *Store) DeleteTransaction(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.transactions[id]; !ok {
		return &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	delete(s.transactions, id)
	return nil
}

func sortByDateDesc(txns []domain.Transaction) {
	sort.SliceStable(txns, func(i, j int) bool { return txns[i].Date.After(txns[j].Date) })
}

// ============================================================
// LiquidityStore
// ============================================================

func (s *Store) GetMonthlyLiquidity(_ context.Context, userID, monthPeriod string) (*domain.MonthlyLiquidity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	agg, ok := s.monthlyLiquidity[domain.AggregateKey(userID, monthPeriod)]
	if !ok {
		return nil, nil
	}
	cp := agg
	cp.LiquiditySources = append([]domain.LiquiditySource(nil), agg.LiquiditySources...)
	return &cp, nil
}

func (s *Store) UpsertMonthlyLiquidity(_ context.Context, agg *domain.MonthlyLiquidity) (*domain.MonthlyLiquidity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *agg
	cp.ID = domain.AggregateKey(agg.UserID, agg.MonthPeriod)
	cp.LiquiditySources = append([]domain.LiquiditySource(nil), agg.LiquiditySources...)
	cp.UpdatedAt = time.Now().UTC()
	s.monthlyLiquidity[cp.ID] = cp
	out := cp
	return &out, nil
}

func (s *Store) DeleteMonthlyLiquidity(_ context.Context, userID, monthPeriod string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.AggregateKey(userID, monthPeriod)
	if _, ok := s.monthlyLiquidity[key]; !ok {
		return &domain.ErrNotFound{Resource: "monthly_liquidity", ID: key}
	}
	delete(s.monthlyLiquidity, key)
	return nil
}

func (s *Store) ListMonthlyLiquidity(_ context.Context, userID string) ([]domain.MonthlyLiquidity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.MonthlyLiquidity{}
	for _, agg := range s.monthlyLiquidity {
		if agg.UserID == userID {
			out = append(out, agg)
		}
	}
	// Period keys sort chronologically as strings; newest first.
	sort.Slice(out, func(i, j int) bool { return out[i].MonthPeriod > out[j].MonthPeriod })
	return out, nil
}

func (s *Store) GetInitialLiquidity(_ context.Context, userID, monthPeriod string) (*domain.InitialLiquidity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.initialLiquidity[domain.AggregateKey(userID, monthPeriod)]
	if !ok {
		return nil, nil
	}
	cp := rec
	return &cp, nil
}

func (s *Store) SaveInitialLiquidity(_ context.Context, rec *domain.InitialLiquidity) (*domain.InitialLiquidity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *rec
	cp.ID = domain.AggregateKey(rec.UserID, rec.MonthPeriod)
	cp.UpdatedAt = time.Now().UTC()
	s.initialLiquidity[cp.ID] = cp
	out := cp
	return &out, nil
}

func (s *Store) DeleteInitialLiquidity(_ context.Context, userID, monthPeriod string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := domain.AggregateKey(userID, monthPeriod)
	if _, ok := s.initialLiquidity[key]; !ok {
		return &domain.ErrNotFound{Resource: "initial_liquidity", ID: key}
	}
	delete(s.initialLiquidity, key)
	return nil
}

// ============================================================
// RecurringStore
// ============================================================

func (s *Store) ListFixedExpenses(_ context.Context, userID string) ([]domain.FixedExpense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.FixedExpense{}
	for _, fe := range s.fixedExpenses {
		if fe.UserID == userID {
			out = append(out, fe)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfMonth < out[j].DayOfMonth })
	return out, nil
}

func (s *Store) CreateFixedExpense(_ context.Context, fe *domain.FixedExpense) (*domain.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *fe
	cp.CreatedAt = time.Now().UTC()
	s.fixedExpenses[cp.ID] = cp
	out := cp
	return &out, nil
}

func (s *Store) UpdateFixedExpense(_ context.Context, fe *domain.FixedExpense) (*domain.FixedExpense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fixedExpenses[fe.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "fixed_expense", ID: fe.ID}
	}
	s.fixedExpenses[fe.ID] = *fe
	cp := *fe
	return &cp, nil
}

func (s *Store) DeleteFixedExpense(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.fixedExpenses[id]; !ok {
		return &domain.ErrNotFound{Resource: "fixed_expense", ID: id}
	}
	delete(s.fixedExpenses, id)
	return nil
}

func (s *Store) ListExpectedIncomes(_ context.Context, userID string) ([]domain.ExpectedIncome, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.ExpectedIncome{}
	for _, ei := range s.expectedIncomes {
		if ei.UserID == userID {
			out = append(out, ei)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DayOfMonth < out[j].DayOfMonth })
	return out, nil
}

func (s *Store) CreateExpectedIncome(_ context.Context, ei *domain.ExpectedIncome) (*domain.ExpectedIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *ei
	cp.CreatedAt = time.Now().UTC()
	s.expectedIncomes[cp.ID] = cp
	out := cp
	return &out, nil
}

func (s *Store) UpdateExpectedIncome(_ context.Context, ei *domain.ExpectedIncome) (*domain.ExpectedIncome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expectedIncomes[ei.ID]; !ok {
		return nil, &domain.ErrNotFound{Resource: "expected_income", ID: ei.ID}
	}
	s.expectedIncomes[ei.ID] = *ei
	cp := *ei
	return &cp, nil
}

func (s *Store) DeleteExpectedIncome(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expectedIncomes[id]; !ok {
		return &domain.ErrNotFound{Resource: "expected_income", ID: id}
	}
	delete(s.expectedIncomes, id)
	return nil
}

// ============================================================
// SavingsStore
// ============================================================

func (s *Store) GetSavingsSource(_ context.Context, id string) (*domain.SavingsSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	src, ok := s.savingsSources[id]
	if !ok {
		return nil, nil
	}
	cp := src
	cp.Deposits = append([]domain.SavingsDeposit(nil), src.Deposits...)
	return &cp, nil
}

func (s *Store) ListSavingsSources(_ context.Context, userID string) ([]domain.SavingsSource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.SavingsSource{}
	for _, src := range s.savingsSources {
		if src.UserID == userID {
			cp := src
			cp.Deposits = append([]domain.SavingsDeposit(nil), src.Deposits...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) CreateSavingsSource(_ context.Context, src *domain.SavingsSource) (*domain.SavingsSource, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *src
	if cp.Deposits == nil {
		cp.Deposits = []domain.SavingsDeposit{}
	}
	cp.CreatedAt = time.Now().UTC()
	s.savingsSources[cp.ID] = cp
	out := cp
	return &out, nil
}

func (s *Store) UpdateSavingsBalance(_ context.Context, id string, currentBalance int64, deposits []domain.SavingsDeposit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.savingsSources[id]
	if !ok {
		return &domain.ErrNotFound{Resource: "savings_source", ID: id}
	}
	src.CurrentBalance = currentBalance
	if deposits == nil {
		deposits = []domain.SavingsDeposit{}
	}
	src.Deposits = append([]domain.SavingsDeposit(nil), deposits...)
	s.savingsSources[id] = src
	return nil
}

func (s *Store) DeleteSavingsSource(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.savingsSources[id]; !ok {
		return &domain.ErrNotFound{Resource: "savings_source", ID: id}
	}
	delete(s.savingsSources, id)
	return nil
}
