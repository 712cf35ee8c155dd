package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/domain"
)

func TestPendingEntriesForUnloggedTemplates(t *testing.T) {
	eng := newEngine(t, 1)
	ctx := context.Background()

	rent, err := eng.recurring.CreateFixedExpense(ctx, &domain.FixedExpense{
		UserID: "u1", Name: "Rent", Amount: 800000, DayOfMonth: 5,
	})
	if err != nil {
		t.Fatalf("create fixed expense: %v", err)
	}
	salary, err := eng.recurring.CreateExpectedIncome(ctx, &domain.ExpectedIncome{
		UserID: "u1", Name: "Salary", Amount: 3000000, DayOfMonth: 1,
	})
	if err != nil {
		t.Fatalf("create expected income: %v", err)
	}

	// Rent already logged this period; salary not yet.
	mustInsertTx(t, eng, &domain.Transaction{
		ID: "t1", UserID: "u1", Type: domain.TypeFixedExpense,
		Value: 800000, Concept: "Rent", Date: time.Date(2024, 4, 5, 0, 0, 0, 0, time.UTC),
		MonthPeriod: "2024-04", FixedExpenseID: rent.ID,
	})

	pending, err := eng.projector.PendingEntries(ctx, "u1", "2024-04")
	if err != nil {
		t.Fatalf("pending entries: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending = %d entries, want 1", len(pending))
	}
	got := pending[0]
	if got.ID != PendingIDPrefix+salary.ID {
		t.Errorf("id = %q, want %q", got.ID, PendingIDPrefix+salary.ID)
	}
	if !got.Pending || got.Value != 0 {
		t.Errorf("placeholder must be pending with value 0, got pending=%v value=%d", got.Pending, got.Value)
	}
	if got.ExpectedAmount != 3000000 {
		t.Errorf("expectedAmount = %d, want 3000000", got.ExpectedAmount)
	}
}

func TestPendingEntriesHonorMonthsFilter(t *testing.T) {
	eng := newEngine(t, 1)
	ctx := context.Background()

	if _, err := eng.recurring.CreateFixedExpense(ctx, &domain.FixedExpense{
		UserID: "u1", Name: "Insurance", Amount: 120000, DayOfMonth: 10,
		Months: []int{1, 7},
	}); err != nil {
		t.Fatalf("create fixed expense: %v", err)
	}

	for _, tc := range []struct {
		monthPeriod string
		want        int
	}{
		{"2024-01", 1},
		{"2024-04", 0},
		{"2024-07", 1},
	} {
		pending, err := eng.projector.PendingEntries(ctx, "u1", tc.monthPeriod)
		if err != nil {
			t.Fatalf("pending entries %s: %v", tc.monthPeriod, err)
		}
		if len(pending) != tc.want {
			t.Errorf("%s: pending = %d, want %d", tc.monthPeriod, len(pending), tc.want)
		}
	}
}

func TestMergedOrdering(t *testing.T) {
	day := time.Date(2024, 4, 10, 0, 0, 0, 0, time.UTC)
	pending := []domain.Transaction{
		{ID: "pending-a", Date: day, Pending: true},
	}
	materialized := []domain.Transaction{
		{ID: "old", Date: day.AddDate(0, 0, -5)},
		{ID: "same-day", Date: day},
		{ID: "new", Date: day.AddDate(0, 0, 5)},
	}

	merged := MergeEntries(pending, materialized)
	gotOrder := make([]string, len(merged))
	for i, tx := range merged {
		gotOrder[i] = tx.ID
	}
	// Date descending, placeholder ahead of the materialized entry that
	// shares its date.
	want := "new,pending-a,same-day,old"
	if got := strings.Join(gotOrder, ","); got != want {
		t.Errorf("order = %s, want %s", got, want)
	}
}

func TestPendingEntriesExcludedFromTotals(t *testing.T) {
	pending := domain.Transaction{
		ID: "pending-x", Type: domain.TypeFixedExpense, Value: 0,
		ExpectedAmount: 500, Pending: true,
	}
	real := domain.Transaction{Type: domain.TypeFixedExpense, Value: 300}

	totals := domain.SumTotals([]domain.Transaction{pending, real})
	if totals.Expenses != 300 {
		t.Errorf("expenses = %d, want 300 (placeholder excluded)", totals.Expenses)
	}
}

func TestTemplateDateClampsShortMonths(t *testing.T) {
	got := templateDate("2024-02", 31)
	if got.Day() != 29 {
		t.Errorf("2024-02 day 31 clamped to %d, want 29", got.Day())
	}
	got = templateDate("2023-02", 31)
	if got.Day() != 28 {
		t.Errorf("2023-02 day 31 clamped to %d, want 28", got.Day())
	}
}
