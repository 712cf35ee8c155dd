package domain

import "time"

// ============================================================
// Transactions (monthly ledger)
// ============================================================

// TransactionType classifies a money movement inside a month period.
type TransactionType string

const (
	TypeFixedExpense     TransactionType = "fixed_expense"
	TypeExpectedIncome   TransactionType = "expected_income"
	TypeUnexpectedIncome TransactionType = "unexpected_income"
	TypeRegularExpense   TransactionType = "regular_expense"
	TypeSavings          TransactionType = "savings"
)

// Valid reports whether t is one of the known transaction types.
func (t TransactionType) Valid() bool {
	switch t {
	case TypeFixedExpense, TypeExpectedIncome, TypeUnexpectedIncome, TypeRegularExpense, TypeSavings:
		return true
	}
	return false
}

// IsIncome reports whether the type counts toward period incomes.
func (t TransactionType) IsIncome() bool {
	return t == TypeExpectedIncome || t == TypeUnexpectedIncome
}

// IsExpense reports whether the type counts toward period expenses.
func (t TransactionType) IsExpense() bool {
	return t == TypeFixedExpense || t == TypeRegularExpense
}

// Transaction is a dated money movement logged against a month period.
// Amounts are whole currency units (no sub-unit precision).
//
// MonthPeriod is assigned at creation time and is authoritative for all
// aggregation; it is never re-derived from Date, so a transaction logged
// near a cutoff boundary stays in the period the user logged it against.
type Transaction struct {
	ID               string          `json:"id"`
	UserID           string          `json:"userId"`
	Type             TransactionType `json:"type"`
	Value            int64           `json:"value"`
	ExpectedAmount   int64           `json:"expectedAmount,omitempty"`
	Concept          string          `json:"concept"`
	PaymentMethod    string          `json:"paymentMethod,omitempty"`
	Date             time.Time       `json:"date"`
	MonthPeriod      string          `json:"monthPeriod"`
	FixedExpenseID   string          `json:"fixedExpenseId,omitempty"`
	ExpectedIncomeID string          `json:"expectedIncomeId,omitempty"`
	SavingsSourceID  string          `json:"savingsSourceId,omitempty"`
	OriginSource     string          `json:"originSource,omitempty"`

	// Pending marks a synthesized projection placeholder for a recurring
	// template not yet logged this period. Pending entries are never
	// persisted and always carry Value == 0.
	Pending bool `json:"pending,omitempty"`

	CreatedAt time.Time `json:"createdAt,omitempty"`
	UpdatedAt time.Time `json:"updatedAt,omitempty"`
}

// TransactionUpdate is a partial update for a ledger transaction.
// Type, UserID and MonthPeriod are not updatable after creation.
type TransactionUpdate struct {
	Value          *int64     `json:"value,omitempty"`
	ExpectedAmount *int64     `json:"expectedAmount,omitempty"`
	Concept        *string    `json:"concept,omitempty"`
	PaymentMethod  *string    `json:"paymentMethod,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
}

// PeriodTotals holds the per-period sums by movement category.
type PeriodTotals struct {
	Incomes  int64 `json:"incomes"`
	Expenses int64 `json:"expenses"`
	Savings  int64 `json:"savings"`
}

// Net returns incomes minus expenses minus savings.
func (p PeriodTotals) Net() int64 {
	return p.Incomes - p.Expenses - p.Savings
}

// SumTotals groups transaction values by movement category.
// Pending placeholders are skipped (their value is zero by construction,
// but they are not ledger state).
func SumTotals(txns []Transaction) PeriodTotals {
	var totals PeriodTotals
	for _, t := range txns {
		if t.Pending {
			continue
		}
		switch {
		case t.Type.IsIncome():
			totals.Incomes += t.Value
		case t.Type.IsExpense():
			totals.Expenses += t.Value
		case t.Type == TypeSavings:
			totals.Savings += t.Value
		}
	}
	return totals
}
