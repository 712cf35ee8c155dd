package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/domain"
)

func TestLedgerCreateDerivesPeriodFromDate(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	created, err := eng.ledger.Create(ctx, &domain.Transaction{
		UserID:  "u1",
		Type:    domain.TypeRegularExpense,
		Value:   4500,
		Concept: "groceries",
		Date:    time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	// Day 10 is before the cutoff day 15, so the accounting month is February.
	if created.MonthPeriod != "2024-02" {
		t.Errorf("monthPeriod = %s, want 2024-02", created.MonthPeriod)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Error("create must assign id and timestamps")
	}
}

func TestLedgerCreateKeepsSuppliedPeriod(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	created, err := eng.ledger.Create(ctx, &domain.Transaction{
		UserID:      "u1",
		Type:        domain.TypeUnexpectedIncome,
		Value:       100,
		Concept:     "refund",
		Date:        time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		MonthPeriod: "2024-03",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.MonthPeriod != "2024-03" {
		t.Errorf("monthPeriod = %s, want the supplied 2024-03", created.MonthPeriod)
	}
}

func TestLedgerCreateTriggersRecompute(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	if _, err := eng.ledger.Create(ctx, &domain.Transaction{
		UserID: "u1", Type: domain.TypeUnexpectedIncome, Value: 100,
		Concept: "refund", MonthPeriod: "2024-03",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	agg, err := eng.store.GetMonthlyLiquidity(ctx, "u1", "2024-03")
	if err != nil || agg == nil {
		t.Fatalf("rollup after create: %v, %v", agg, err)
	}
	if agg.TotalIncomes != 100 {
		t.Errorf("totalIncomes = %d, want 100", agg.TotalIncomes)
	}
}

func TestLedgerRejectsUnknownType(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	// "income" is not a movement category; only the five declared types are.
	for _, typ := range []string{"income", "expense", ""} {
		_, err := eng.ledger.Create(ctx, &domain.Transaction{
			UserID: "u1", Type: domain.TransactionType(typ), Value: 100,
			Concept: "salary", MonthPeriod: "2024-03",
		})
		var validation *domain.ErrValidation
		if !errors.As(err, &validation) {
			t.Errorf("Create with type %q: expected ErrValidation, got %v", typ, err)
		}
	}
}

func TestLedgerRejectsSavingsType(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	_, err := eng.ledger.Create(ctx, &domain.Transaction{
		UserID: "u1", Type: domain.TypeSavings, Value: 100,
		Concept: "savings", MonthPeriod: "2024-03",
	})
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation for savings type, got %v", err)
	}
}

func TestLedgerDeleteMissingIsError(t *testing.T) {
	eng := newEngine(t, 15)

	err := eng.ledger.Delete(context.Background(), "missing")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerUpdateRecomputesTotals(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	created, err := eng.ledger.Create(ctx, &domain.Transaction{
		UserID: "u1", Type: domain.TypeRegularExpense, Value: 100,
		Concept: "groceries", MonthPeriod: "2024-03",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := eng.ledger.Update(ctx, created.ID, &domain.TransactionUpdate{Value: int64Ptr(250)}); err != nil {
		t.Fatalf("update: %v", err)
	}

	agg, err := eng.store.GetMonthlyLiquidity(ctx, "u1", "2024-03")
	if err != nil || agg == nil {
		t.Fatalf("rollup after update: %v, %v", agg, err)
	}
	if agg.TotalExpenses != 250 {
		t.Errorf("totalExpenses = %d, want 250", agg.TotalExpenses)
	}
}

func TestLedgerListByType(t *testing.T) {
	eng := newEngine(t, 15)
	ctx := context.Background()

	for _, tx := range []domain.Transaction{
		{UserID: "u1", Type: domain.TypeRegularExpense, Value: 10, Concept: "a", MonthPeriod: "2024-03"},
		{UserID: "u1", Type: domain.TypeUnexpectedIncome, Value: 20, Concept: "b", MonthPeriod: "2024-03"},
	} {
		cp := tx
		if _, err := eng.ledger.Create(ctx, &cp); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	got, err := eng.ledger.List(ctx, "u1", "2024-03", domain.TypeUnexpectedIncome)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 1 || got[0].Concept != "b" {
		t.Errorf("list by type = %+v, want only the income", got)
	}
}
