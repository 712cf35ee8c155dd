package domain

import "time"

// ============================================================
// Monthly liquidity (per-period rollup)
// ============================================================

// LiquidityMode distinguishes how the period's confirmed opening balance
// is represented: a single net value or a breakdown by source.
type LiquidityMode string

const (
	ModeSimple  LiquidityMode = "simple"
	ModeSourced LiquidityMode = "sourced"
)

// NetSourceName is the synthetic source used in single net-value mode.
const NetSourceName = "Neto"

// LiquiditySource is one entry of the optional opening-balance breakdown.
// ExpectedAmount is carried from the prior period's confirmed amount for a
// source of the same name, or 0 for a new source.
type LiquiditySource struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	ExpectedAmount int64  `json:"expectedAmount"`
	RealAmount     *int64 `json:"realAmount,omitempty"`
}

// MonthlyLiquidity is the persisted per-period rollup: opening amount,
// totals by movement category and closing balance. It is derived state —
// always reconstructible from the transaction ledger plus the resolved
// opening balance — keyed deterministically by (userId, monthPeriod).
type MonthlyLiquidity struct {
	ID               string            `json:"id"`
	UserID           string            `json:"userId"`
	MonthPeriod      string            `json:"monthPeriod"`
	ExpectedAmount   int64             `json:"expectedAmount"`
	RealAmount       *int64            `json:"realAmount,omitempty"`
	LiquiditySources []LiquiditySource `json:"liquiditySources,omitempty"`
	TotalIncomes     int64             `json:"totalIncomes"`
	TotalExpenses    int64             `json:"totalExpenses"`
	TotalSavings     int64             `json:"totalSavings"`
	FinalBalance     int64             `json:"finalBalance"`
	UpdatedAt        time.Time         `json:"updatedAt,omitempty"`
}

// AggregateKey builds the deterministic composite key for a rollup record,
// so create-or-update is a single idempotent upsert instead of a
// query-then-branch race.
func AggregateKey(userID, monthPeriod string) string {
	return userID + "_" + monthPeriod
}

// Mode reports whether the rollup is in single net-value or multi-source
// mode. A breakdown consisting only of the synthetic net source still
// counts as simple mode.
func (m *MonthlyLiquidity) Mode() LiquidityMode {
	if len(m.LiquiditySources) == 0 {
		return ModeSimple
	}
	if len(m.LiquiditySources) == 1 && m.LiquiditySources[0].Name == NetSourceName {
		return ModeSimple
	}
	return ModeSourced
}

// Opening returns the opening balance used for the closing computation:
// the user-confirmed real amount when present, otherwise the carried
// expected amount.
func (m *MonthlyLiquidity) Opening() int64 {
	if m.RealAmount != nil {
		return *m.RealAmount
	}
	return m.ExpectedAmount
}

// SumSources returns the sum of the sources' confirmed amounts. Sources
// without a confirmed amount fall back to their expected amount.
func (m *MonthlyLiquidity) SumSources() int64 {
	var sum int64
	for _, s := range m.LiquiditySources {
		if s.RealAmount != nil {
			sum += *s.RealAmount
		} else {
			sum += s.ExpectedAmount
		}
	}
	return sum
}

// LiquidityUpdate is a partial update for a monthly rollup. Totals and the
// closing balance are derived, never writable through this path.
type LiquidityUpdate struct {
	ExpectedAmount   *int64             `json:"expectedAmount,omitempty"`
	RealAmount       *int64             `json:"realAmount,omitempty"`
	LiquiditySources *[]LiquiditySource `json:"liquiditySources,omitempty"`
}

// LiquiditySourceUpdate is a partial update for one breakdown source.
type LiquiditySourceUpdate struct {
	Name           *string `json:"name,omitempty"`
	ExpectedAmount *int64  `json:"expectedAmount,omitempty"`
	RealAmount     *int64  `json:"realAmount,omitempty"`
}

// ============================================================
// Initial liquidity (opening-balance override)
// ============================================================

// InitialLiquidity is the explicit opening balance for (userId, monthPeriod).
// When absent, the opening balance is calculated from the previous period's
// closing balance, never assumed zero.
type InitialLiquidity struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	MonthPeriod string    `json:"monthPeriod"`
	Amount      int64     `json:"amount"`
	IsManual    bool      `json:"isManual"`
	UpdatedAt   time.Time `json:"updatedAt,omitempty"`
}

// Resolution is the outcome of resolving a period's opening balance.
type Resolution struct {
	Amount           int64  `json:"amount"`
	CalculatedAmount int64  `json:"calculatedAmount"`
	WasCalculated    bool   `json:"wasCalculated"`
	Source           string `json:"source"` // "manual", "recorded" or "calculated"
}
