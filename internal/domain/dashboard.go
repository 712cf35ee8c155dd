package domain

import "time"

// DashboardSnapshot is the combined per-period view served by the
// dashboard endpoint: the rollup, the merged transaction list (pending
// placeholders included) and the savings sources.
type DashboardSnapshot struct {
	MonthPeriod    string            `json:"monthPeriod"`
	Liquidity      *MonthlyLiquidity `json:"liquidity,omitempty"`
	Transactions   []Transaction     `json:"transactions"`
	SavingsSources []SavingsSource   `json:"savingsSources"`
	GeneratedAt    time.Time         `json:"generatedAt"`
}
