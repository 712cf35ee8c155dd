package service

import (
	"context"
	"reflect"
	"testing"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/domain"
)

// Conservation: finalBalance must equal opening + incomes - expenses -
// savings, exactly, in integer arithmetic.
func TestRecomputeBalanceConservation(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	if _, err := eng.liquidity.SaveInitialLiquidity(ctx, "u1", "2024-01", 1000000, true); err != nil {
		t.Fatalf("save initial liquidity: %v", err)
	}
	seedTransactions(t, eng, "u1", "2024-01")

	agg, err := eng.updater.Recompute(ctx, "u1", "2024-01", "manual")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if agg.TotalIncomes != 5000000 {
		t.Errorf("totalIncomes = %d, want 5000000", agg.TotalIncomes)
	}
	if agg.TotalExpenses != 1500000 {
		t.Errorf("totalExpenses = %d, want 1500000", agg.TotalExpenses)
	}
	if agg.TotalSavings != 500000 {
		t.Errorf("totalSavings = %d, want 500000", agg.TotalSavings)
	}
	if agg.FinalBalance != 4000000 {
		t.Errorf("finalBalance = %d, want 4000000", agg.FinalBalance)
	}
	if want := agg.Opening() + agg.TotalIncomes - agg.TotalExpenses - agg.TotalSavings; agg.FinalBalance != want {
		t.Errorf("conservation violated: finalBalance = %d, want %d", agg.FinalBalance, want)
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	if _, err := eng.liquidity.SaveInitialLiquidity(ctx, "u1", "2024-01", 1000000, true); err != nil {
		t.Fatalf("save initial liquidity: %v", err)
	}
	seedTransactions(t, eng, "u1", "2024-01")

	first, err := eng.updater.Recompute(ctx, "u1", "2024-01", "manual")
	if err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	second, err := eng.updater.Recompute(ctx, "u1", "2024-01", "manual")
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}

	first.UpdatedAt, second.UpdatedAt = time.Time{}, time.Time{}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("recompute not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestRecomputePreservesConfirmedOpening(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	real := int64Ptr(900000)
	if _, err := eng.store.UpsertMonthlyLiquidity(ctx, &domain.MonthlyLiquidity{
		UserID: "u1", MonthPeriod: "2024-01", ExpectedAmount: 1000000, RealAmount: real,
		LiquiditySources: []domain.LiquiditySource{{ID: "s1", Name: "Bank", ExpectedAmount: 900000, RealAmount: real}},
	}); err != nil {
		t.Fatalf("seed rollup: %v", err)
	}
	seedTransactions(t, eng, "u1", "2024-01")

	agg, err := eng.updater.Recompute(ctx, "u1", "2024-01", "transaction_create")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if agg.RealAmount == nil || *agg.RealAmount != 900000 {
		t.Fatalf("recompute must not drop the confirmed opening, got %v", agg.RealAmount)
	}
	if len(agg.LiquiditySources) != 1 || agg.LiquiditySources[0].Name != "Bank" {
		t.Errorf("recompute must preserve the source breakdown, got %+v", agg.LiquiditySources)
	}
	// Confirmed opening wins over the carried expectation.
	if want := int64(900000 + 5000000 - 1500000 - 500000); agg.FinalBalance != want {
		t.Errorf("finalBalance = %d, want %d", agg.FinalBalance, want)
	}
}

func TestRecomputeUsesStoredPeriodKey(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	// Dated inside calendar February but logged against 2024-01: the stored
	// key is authoritative for aggregation.
	mustInsertTx(t, eng, &domain.Transaction{
		ID: "tx-boundary", UserID: "u1", Type: domain.TypeUnexpectedIncome,
		Value: 300, Concept: "refund", Date: time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC),
		MonthPeriod: "2024-01",
	})

	jan, err := eng.updater.Recompute(ctx, "u1", "2024-01", "manual")
	if err != nil {
		t.Fatalf("recompute jan: %v", err)
	}
	if jan.TotalIncomes != 300 {
		t.Errorf("2024-01 incomes = %d, want 300", jan.TotalIncomes)
	}

	feb, err := eng.updater.Recompute(ctx, "u1", "2024-02", "manual")
	if err != nil {
		t.Fatalf("recompute feb: %v", err)
	}
	if feb.TotalIncomes != 0 {
		t.Errorf("2024-02 incomes = %d, want 0", feb.TotalIncomes)
	}
}
