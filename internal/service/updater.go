package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/infra/observability"
	"github.com/mymoney-app/mymoney-api/internal/port"
)

// BalanceUpdater recomputes and persists the monthly liquidity rollup for
// a period. It is the single choke point between the transaction ledger
// and the rollup: every mutating ledger operation calls Recompute for the
// affected period, and Recompute is the only writer of the derived totals.
type BalanceUpdater struct {
	transactions port.TransactionStore
	liquidity    port.LiquidityStore
	resolver     *Resolver
	invalidator  port.Invalidator
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewBalanceUpdater creates the balance updater with all dependencies injected.
func NewBalanceUpdater(
	transactions port.TransactionStore,
	liquidity port.LiquidityStore,
	resolver *Resolver,
	invalidator port.Invalidator,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *BalanceUpdater {
	return &BalanceUpdater{
		transactions: transactions,
		liquidity:    liquidity,
		resolver:     resolver,
		invalidator:  invalidator,
		metrics:      metrics,
		logger:       logger,
	}
}

// Recompute rebuilds the rollup for (userID, monthPeriod) from the ledger:
// totals by movement category, opening balance via the resolver, closing
// balance as opening + incomes - expenses - savings. The upsert is
// idempotent; calling Recompute twice without ledger changes yields the
// same record. The user-confirmed opening and the source breakdown are
// preserved from the existing record, never overwritten by derivation.
//
// Trigger names the mutating operation that required the recompute and is
// only used for metrics.
func (u *BalanceUpdater) Recompute(ctx context.Context, userID, monthPeriod, trigger string) (*domain.MonthlyLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "BalanceUpdater.Recompute")
	defer span.End()
	span.SetAttributes(
		attribute.String("month.period", monthPeriod),
		attribute.String("trigger", trigger),
	)

	start := time.Now()
	defer func() {
		u.metrics.RecordRequestDuration("recompute", time.Since(start))
	}()

	txns, err := u.transactions.ListTransactions(ctx, userID, monthPeriod)
	if err != nil {
		u.metrics.IncrStoreError("transactions")
		return nil, err
	}
	totals := domain.SumTotals(txns)

	res, err := u.resolver.Resolve(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}

	existing, err := u.liquidity.GetMonthlyLiquidity(ctx, userID, monthPeriod)
	if err != nil {
		u.metrics.IncrStoreError("monthly_liquidity")
		return nil, err
	}

	agg := &domain.MonthlyLiquidity{
		ID:             domain.AggregateKey(userID, monthPeriod),
		UserID:         userID,
		MonthPeriod:    monthPeriod,
		ExpectedAmount: res.Amount,
		TotalIncomes:   totals.Incomes,
		TotalExpenses:  totals.Expenses,
		TotalSavings:   totals.Savings,
	}
	if existing != nil {
		agg.RealAmount = existing.RealAmount
		agg.LiquiditySources = existing.LiquiditySources
	}
	agg.FinalBalance = agg.Opening() + totals.Incomes - totals.Expenses - totals.Savings

	saved, err := u.liquidity.UpsertMonthlyLiquidity(ctx, agg)
	if err != nil {
		u.metrics.IncrStoreError("monthly_liquidity")
		return nil, err
	}

	u.metrics.IncrRecompute(trigger)
	u.invalidator.Invalidate(userID, monthPeriod)
	u.logger.Debug("rollup recomputed",
		zap.String("user_id", userID),
		zap.String("month_period", monthPeriod),
		zap.String("trigger", trigger),
		zap.Int64("final_balance", saved.FinalBalance))
	return saved, nil
}
