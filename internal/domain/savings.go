package domain

import "time"

// ============================================================
// Savings sources (running balances, not period-scoped)
// ============================================================

// SavingsDeposit records one savings movement against a source. It mirrors
// a savings-type transaction in the ledger, matched by TransactionID.
type SavingsDeposit struct {
	ID            string    `json:"id"`
	Date          time.Time `json:"date"`
	Amount        int64     `json:"amount"`
	OriginSource  string    `json:"originSource,omitempty"`
	TransactionID string    `json:"transactionId"`
	MonthPeriod   string    `json:"monthPeriod"`
}

// SavingsSource is an independently tracked running balance, credited and
// debited by savings-type transactions regardless of period boundaries.
// Amounts are whole currency units to avoid floating-point drift.
//
// Invariant: CurrentBalance == Amount + sum of Deposits[].Amount. The
// incremental updates maintain it; Recalculate rebuilds it from the ledger
// when drift is suspected.
type SavingsSource struct {
	ID             string           `json:"id"`
	UserID         string           `json:"userId"`
	Name           string           `json:"name"`
	Amount         int64            `json:"amount"` // initial deposit
	CurrentBalance int64            `json:"currentBalance"`
	Deposits       []SavingsDeposit `json:"deposits"`
	CreatedAt      time.Time        `json:"createdAt,omitempty"`
}

// DepositSum returns the sum of all recorded deposit amounts.
func (s *SavingsSource) DepositSum() int64 {
	var sum int64
	for _, d := range s.Deposits {
		sum += d.Amount
	}
	return sum
}

// Consistent reports whether the running balance matches the recomputable
// value (initial amount plus deposit sum).
func (s *SavingsSource) Consistent() bool {
	return s.CurrentBalance == s.Amount+s.DepositSum()
}
