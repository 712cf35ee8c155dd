package service

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/infra/observability"
	"github.com/mymoney-app/mymoney-api/internal/period"
	"github.com/mymoney-app/mymoney-api/internal/port"
)

var liquidityTracer = otel.Tracer("service/liquidity")

// MaxResolutionDepth caps how many periods the resolver walks backward
// looking for a recorded opening balance before giving up.
const MaxResolutionDepth = 36

// Resolver determines the opening balance for a period: an explicit
// initial-liquidity record when one exists, otherwise the previous
// period's closing balance rolled forward through its ledger.
type Resolver struct {
	liquidity    port.LiquidityStore
	transactions port.TransactionStore
	metrics      *observability.Metrics
	logger       *zap.Logger
}

// NewResolver creates the opening-balance resolver.
func NewResolver(liquidity port.LiquidityStore, transactions port.TransactionStore, metrics *observability.Metrics, logger *zap.Logger) *Resolver {
	return &Resolver{
		liquidity:    liquidity,
		transactions: transactions,
		metrics:      metrics,
		logger:       logger,
	}
}

// Resolve returns the opening balance for (userID, monthPeriod). An
// explicit record is authoritative; absence falls back to calculation,
// never to zero.
func (r *Resolver) Resolve(ctx context.Context, userID, monthPeriod string) (*domain.Resolution, error) {
	ctx, span := liquidityTracer.Start(ctx, "Resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("month.period", monthPeriod))

	rec, err := r.liquidity.GetInitialLiquidity(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}
	if rec != nil {
		source := "recorded"
		if rec.IsManual {
			source = "manual"
		}
		return &domain.Resolution{
			Amount:           rec.Amount,
			CalculatedAmount: rec.Amount,
			WasCalculated:    false,
			Source:           source,
		}, nil
	}

	amount, err := r.Calculate(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}
	r.metrics.IncrResolverFallback()
	return &domain.Resolution{
		Amount:           amount,
		CalculatedAmount: amount,
		WasCalculated:    true,
		Source:           "calculated",
	}, nil
}

// Calculate rolls the nearest recorded opening balance forward through the
// intervening ledgers, ignoring any explicit record for monthPeriod itself.
//
// The backward walk stops at the first period with either an initial
// liquidity record or a persisted monthly rollup (whose opening stands in
// for the record). A user with no history at all within the lookback window
// resolves to zero; a user whose history extends past the window without a
// recorded floor is an error, not a guess.
func (r *Resolver) Calculate(ctx context.Context, userID, monthPeriod string) (int64, error) {
	ctx, span := liquidityTracer.Start(ctx, "Resolver.Calculate")
	defer span.End()

	var (
		nets       []int64
		floor      int64
		foundFloor bool
		sawData    bool
	)

	cur := monthPeriod
	for depth := 0; depth < MaxResolutionDepth; depth++ {
		prev, err := period.Previous(cur)
		if err != nil {
			return 0, &domain.ErrValidation{Field: "monthPeriod", Message: err.Error()}
		}

		rec, err := r.liquidity.GetInitialLiquidity(ctx, userID, prev)
		if err != nil {
			return 0, err
		}
		if rec != nil {
			floor = rec.Amount
			foundFloor = true
		} else {
			agg, err := r.liquidity.GetMonthlyLiquidity(ctx, userID, prev)
			if err != nil {
				return 0, err
			}
			if agg != nil {
				floor = agg.Opening()
				foundFloor = true
				sawData = true
			}
		}

		// The floor gives the opening of prev; its closing still needs the
		// ledger net, same as every intermediate period.
		txns, err := r.transactions.ListTransactions(ctx, userID, prev)
		if err != nil {
			return 0, err
		}
		if len(txns) > 0 {
			sawData = true
		}
		nets = append(nets, domain.SumTotals(txns).Net())

		if foundFloor {
			break
		}
		cur = prev
	}

	if !foundFloor {
		if sawData {
			return 0, &domain.ErrResolutionDepth{MonthPeriod: monthPeriod, Depth: MaxResolutionDepth}
		}
		// No record, no rollup, no transactions anywhere in the window:
		// a user who has never opened the app starts from zero.
		return 0, nil
	}

	amount := floor
	for _, n := range nets {
		amount += n
	}
	r.logger.Debug("opening balance calculated",
		zap.String("user_id", userID),
		zap.String("month_period", monthPeriod),
		zap.Int64("amount", amount),
		zap.Int("periods_walked", len(nets)))
	return amount, nil
}
