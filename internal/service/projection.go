package service

import (
	"context"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/period"
	"github.com/mymoney-app/mymoney-api/internal/port"
)

// PendingIDPrefix marks synthesized placeholder ids so they can never be
// mistaken for persisted transaction ids.
const PendingIDPrefix = "pending-"

// Projection synthesizes pending placeholder entries for recurring
// templates that have not materialized into ledger transactions for a
// period. Placeholders are read-only, carry value 0 and are never
// persisted.
type Projection struct {
	transactions port.TransactionStore
	recurring    port.RecurringStore
	logger       *zap.Logger
}

// NewProjection creates the projection component.
func NewProjection(transactions port.TransactionStore, recurring port.RecurringStore, logger *zap.Logger) *Projection {
	return &Projection{
		transactions: transactions,
		recurring:    recurring,
		logger:       logger,
	}
}

// PendingEntries returns one placeholder per recurring template that
// applies to the period's calendar month and has no materialized
// transaction referencing it there.
func (p *Projection) PendingEntries(ctx context.Context, userID, monthPeriod string) ([]domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "Projection.PendingEntries")
	defer span.End()
	span.SetAttributes(attribute.String("month.period", monthPeriod))

	calMonth, err := period.CalendarMonth(monthPeriod)
	if err != nil {
		return nil, &domain.ErrValidation{Field: "monthPeriod", Message: err.Error()}
	}

	expenses, err := p.recurring.ListFixedExpenses(ctx, userID)
	if err != nil {
		return nil, err
	}
	incomes, err := p.recurring.ListExpectedIncomes(ctx, userID)
	if err != nil {
		return nil, err
	}
	materialized, err := p.transactions.ListTransactions(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}

	return PendingEntriesFor(monthPeriod, calMonth, expenses, incomes, materialized), nil
}

// Merged returns the combined period view: pending placeholders plus
// materialized transactions, sorted by date descending with placeholders
// first on equal dates.
func (p *Projection) Merged(ctx context.Context, userID, monthPeriod string) ([]domain.Transaction, error) {
	ctx, span := ledgerTracer.Start(ctx, "Projection.Merged")
	defer span.End()

	pending, err := p.PendingEntries(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}
	materialized, err := p.transactions.ListTransactions(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}
	return MergeEntries(pending, materialized), nil
}

// PendingEntriesFor is the pure projection: given the templates and the
// period's materialized transactions, synthesize placeholders for the
// templates not yet logged. calMonth is the period's calendar month (1-12)
// checked against each template's months filter.
func PendingEntriesFor(monthPeriod string, calMonth int, expenses []domain.FixedExpense, incomes []domain.ExpectedIncome, materialized []domain.Transaction) []domain.Transaction {
	loggedExpenses := make(map[string]bool)
	loggedIncomes := make(map[string]bool)
	for _, t := range materialized {
		if t.FixedExpenseID != "" {
			loggedExpenses[t.FixedExpenseID] = true
		}
		if t.ExpectedIncomeID != "" {
			loggedIncomes[t.ExpectedIncomeID] = true
		}
	}

	pending := []domain.Transaction{}
	for _, fe := range expenses {
		if !domain.AppliesToMonth(fe.Months, calMonth) || loggedExpenses[fe.ID] {
			continue
		}
		pending = append(pending, domain.Transaction{
			ID:             PendingIDPrefix + fe.ID,
			UserID:         fe.UserID,
			Type:           domain.TypeFixedExpense,
			Value:          0,
			ExpectedAmount: fe.Amount,
			Concept:        fe.Name,
			Date:           templateDate(monthPeriod, fe.DayOfMonth),
			MonthPeriod:    monthPeriod,
			FixedExpenseID: fe.ID,
			Pending:        true,
		})
	}
	for _, ei := range incomes {
		if !domain.AppliesToMonth(ei.Months, calMonth) || loggedIncomes[ei.ID] {
			continue
		}
		pending = append(pending, domain.Transaction{
			ID:               PendingIDPrefix + ei.ID,
			UserID:           ei.UserID,
			Type:             domain.TypeExpectedIncome,
			Value:            0,
			ExpectedAmount:   ei.Amount,
			Concept:          ei.Name,
			Date:             templateDate(monthPeriod, ei.DayOfMonth),
			MonthPeriod:      monthPeriod,
			ExpectedIncomeID: ei.ID,
			Pending:          true,
		})
	}
	return pending
}

// MergeEntries combines placeholders and materialized transactions sorted
// by date descending. The stable sort keeps placeholders ahead of
// materialized entries with the same date.
func MergeEntries(pending, materialized []domain.Transaction) []domain.Transaction {
	merged := make([]domain.Transaction, 0, len(pending)+len(materialized))
	merged = append(merged, pending...)
	merged = append(merged, materialized...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Date.After(merged[j].Date)
	})
	return merged
}

// templateDate places a template's day-of-month inside the period's
// calendar month, clamping past the month's last day.
func templateDate(monthPeriod string, dayOfMonth int) time.Time {
	year, month, err := period.Parse(monthPeriod)
	if err != nil {
		return time.Time{}
	}
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if dayOfMonth > last {
		dayOfMonth = last
	}
	if dayOfMonth < 1 {
		dayOfMonth = 1
	}
	return time.Date(year, month, dayOfMonth, 0, 0, 0, 0, time.UTC)
}
