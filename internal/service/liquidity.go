package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/period"
	"github.com/mymoney-app/mymoney-api/internal/port"
)

// Liquidity manages the opening-balance override records and the monthly
// rollup, including its optional per-source breakdown.
type Liquidity struct {
	liquidity   port.LiquidityStore
	resolver    *Resolver
	updater     *BalanceUpdater
	invalidator port.Invalidator
	logger      *zap.Logger
}

// NewLiquidity creates the liquidity service.
func NewLiquidity(
	liquidity port.LiquidityStore,
	resolver *Resolver,
	updater *BalanceUpdater,
	invalidator port.Invalidator,
	logger *zap.Logger,
) *Liquidity {
	return &Liquidity{
		liquidity:   liquidity,
		resolver:    resolver,
		updater:     updater,
		invalidator: invalidator,
		logger:      logger,
	}
}

// ============================================================
// Initial liquidity (opening-balance overrides)
// ============================================================

// GetInitialLiquidity looks up the explicit override record without any
// calculated fallback.
func (s *Liquidity) GetInitialLiquidity(ctx context.Context, userID, monthPeriod string) (*domain.InitialLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.GetInitialLiquidity")
	defer span.End()

	rec, err := s.liquidity.GetInitialLiquidity(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &domain.ErrNotFound{Resource: "initial_liquidity", ID: domain.AggregateKey(userID, monthPeriod)}
	}
	return rec, nil
}

// Resolve returns the period's opening balance, calculated from prior
// periods when no explicit record exists.
func (s *Liquidity) Resolve(ctx context.Context, userID, monthPeriod string) (*domain.Resolution, error) {
	return s.resolver.Resolve(ctx, userID, monthPeriod)
}

// SaveInitialLiquidity upserts the opening-balance override and refreshes
// the period's rollup to reflect the new opening.
func (s *Liquidity) SaveInitialLiquidity(ctx context.Context, userID, monthPeriod string, amount int64, isManual bool) (*domain.InitialLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.SaveInitialLiquidity")
	defer span.End()
	span.SetAttributes(attribute.String("month.period", monthPeriod))

	if _, _, err := period.Parse(monthPeriod); err != nil {
		return nil, &domain.ErrValidation{Field: "monthPeriod", Message: err.Error()}
	}

	rec := &domain.InitialLiquidity{
		ID:          domain.AggregateKey(userID, monthPeriod),
		UserID:      userID,
		MonthPeriod: monthPeriod,
		Amount:      amount,
		IsManual:    isManual,
	}
	saved, err := s.liquidity.SaveInitialLiquidity(ctx, rec)
	if err != nil {
		return nil, err
	}
	if _, err := s.updater.Recompute(ctx, userID, monthPeriod, "manual"); err != nil {
		return nil, err
	}
	return saved, nil
}

// ClearInitialLiquidity deletes the override, reverting future resolves to
// calculated mode, and refreshes the rollup.
func (s *Liquidity) ClearInitialLiquidity(ctx context.Context, userID, monthPeriod string) error {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.ClearInitialLiquidity")
	defer span.End()

	if err := s.liquidity.DeleteInitialLiquidity(ctx, userID, monthPeriod); err != nil {
		return err
	}
	_, err := s.updater.Recompute(ctx, userID, monthPeriod, "manual")
	return err
}

// RecalculateInitialLiquidity forces a fresh calculation from prior
// periods, ignoring any existing override, and persists the result with
// isManual=false. This is the repair path when upstream periods changed
// after this period's opening was last resolved.
func (s *Liquidity) RecalculateInitialLiquidity(ctx context.Context, userID, monthPeriod string) (*domain.InitialLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.RecalculateInitialLiquidity")
	defer span.End()

	amount, err := s.resolver.Calculate(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}
	return s.SaveInitialLiquidity(ctx, userID, monthPeriod, amount, false)
}

// ============================================================
// Monthly rollup
// ============================================================

// GetMonthlyLiquidity returns the persisted rollup for the period.
func (s *Liquidity) GetMonthlyLiquidity(ctx context.Context, userID, monthPeriod string) (*domain.MonthlyLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.GetMonthlyLiquidity")
	defer span.End()

	agg, err := s.liquidity.GetMonthlyLiquidity(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		return nil, &domain.ErrNotFound{Resource: "monthly_liquidity", ID: domain.AggregateKey(userID, monthPeriod)}
	}
	return agg, nil
}

// History lists the user's rollups, newest period first.
func (s *Liquidity) History(ctx context.Context, userID string) ([]domain.MonthlyLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.History")
	defer span.End()

	return s.liquidity.ListMonthlyLiquidity(ctx, userID)
}

// UpsertMonthlyLiquidity merges partial fields into the rollup, creating
// it with zeroed defaults when absent. Totals stay as stored; only the
// opening fields and the source breakdown are writable, and the closing
// balance is re-derived from the merged record.
func (s *Liquidity) UpsertMonthlyLiquidity(ctx context.Context, userID, monthPeriod string, update *domain.LiquidityUpdate) (*domain.MonthlyLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.UpsertMonthlyLiquidity")
	defer span.End()
	span.SetAttributes(attribute.String("month.period", monthPeriod))

	if _, _, err := period.Parse(monthPeriod); err != nil {
		return nil, &domain.ErrValidation{Field: "monthPeriod", Message: err.Error()}
	}

	agg, err := s.loadOrInit(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}

	if update.ExpectedAmount != nil {
		agg.ExpectedAmount = *update.ExpectedAmount
	}
	if update.RealAmount != nil {
		v := *update.RealAmount
		agg.RealAmount = &v
		// In single net-value mode the synthetic source mirrors the
		// top-level confirmed amount 1:1.
		if len(agg.LiquiditySources) == 1 && agg.LiquiditySources[0].Name == domain.NetSourceName {
			agg.LiquiditySources[0].RealAmount = &v
		}
	}
	if update.LiquiditySources != nil {
		agg.LiquiditySources = *update.LiquiditySources
	}

	return s.persist(ctx, agg)
}

// DeleteMonthlyLiquidity removes the rollup record for the period.
func (s *Liquidity) DeleteMonthlyLiquidity(ctx context.Context, userID, monthPeriod string) error {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.DeleteMonthlyLiquidity")
	defer span.End()

	if err := s.liquidity.DeleteMonthlyLiquidity(ctx, userID, monthPeriod); err != nil {
		return err
	}
	s.invalidator.Invalidate(userID, monthPeriod)
	return nil
}

// ============================================================
// Liquidity sources (per-period opening breakdown)
// ============================================================

// AddSource appends a source to the period's breakdown. When no expected
// amount is given, it is carried from the previous period's confirmed
// amount for a source of the same name, or 0 for a new source.
func (s *Liquidity) AddSource(ctx context.Context, userID, monthPeriod, name string, expectedAmount int64, realAmount *int64) (*domain.MonthlyLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.AddSource")
	defer span.End()

	if name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}

	agg, err := s.loadOrInit(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}

	if expectedAmount == 0 {
		expectedAmount = s.carriedAmount(ctx, userID, monthPeriod, name)
	}
	agg.LiquiditySources = append(agg.LiquiditySources, domain.LiquiditySource{
		ID:             uuid.NewString(),
		Name:           name,
		ExpectedAmount: expectedAmount,
		RealAmount:     realAmount,
	})
	return s.persist(ctx, agg)
}

// UpdateSource patches one breakdown source by id.
func (s *Liquidity) UpdateSource(ctx context.Context, userID, monthPeriod, sourceID string, update *domain.LiquiditySourceUpdate) (*domain.MonthlyLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.UpdateSource")
	defer span.End()

	agg, err := s.GetMonthlyLiquidity(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}

	found := false
	for i := range agg.LiquiditySources {
		if agg.LiquiditySources[i].ID != sourceID {
			continue
		}
		found = true
		if update.Name != nil {
			agg.LiquiditySources[i].Name = *update.Name
		}
		if update.ExpectedAmount != nil {
			agg.LiquiditySources[i].ExpectedAmount = *update.ExpectedAmount
		}
		if update.RealAmount != nil {
			v := *update.RealAmount
			agg.LiquiditySources[i].RealAmount = &v
		}
		break
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "liquidity_source", ID: sourceID}
	}
	return s.persist(ctx, agg)
}

// RemoveSource deletes one breakdown source by id.
func (s *Liquidity) RemoveSource(ctx context.Context, userID, monthPeriod, sourceID string) (*domain.MonthlyLiquidity, error) {
	ctx, span := liquidityTracer.Start(ctx, "Liquidity.RemoveSource")
	defer span.End()

	agg, err := s.GetMonthlyLiquidity(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}

	kept := agg.LiquiditySources[:0]
	found := false
	for _, src := range agg.LiquiditySources {
		if src.ID == sourceID {
			found = true
			continue
		}
		kept = append(kept, src)
	}
	if !found {
		return nil, &domain.ErrNotFound{Resource: "liquidity_source", ID: sourceID}
	}
	agg.LiquiditySources = kept
	return s.persist(ctx, agg)
}

// loadOrInit fetches the rollup or initializes a zeroed record for the
// composite key when none exists yet.
func (s *Liquidity) loadOrInit(ctx context.Context, userID, monthPeriod string) (*domain.MonthlyLiquidity, error) {
	agg, err := s.liquidity.GetMonthlyLiquidity(ctx, userID, monthPeriod)
	if err != nil {
		return nil, err
	}
	if agg == nil {
		agg = &domain.MonthlyLiquidity{
			ID:          domain.AggregateKey(userID, monthPeriod),
			UserID:      userID,
			MonthPeriod: monthPeriod,
		}
	}
	return agg, nil
}

// persist re-derives the confirmed amount and closing balance from the
// merged record and upserts it. With a non-empty breakdown the sum of the
// sources is the authoritative confirmed amount for the period.
func (s *Liquidity) persist(ctx context.Context, agg *domain.MonthlyLiquidity) (*domain.MonthlyLiquidity, error) {
	if len(agg.LiquiditySources) > 0 {
		sum := agg.SumSources()
		agg.RealAmount = &sum
	}
	agg.FinalBalance = agg.Opening() + agg.TotalIncomes - agg.TotalExpenses - agg.TotalSavings

	saved, err := s.liquidity.UpsertMonthlyLiquidity(ctx, agg)
	if err != nil {
		return nil, err
	}
	s.invalidator.Invalidate(agg.UserID, agg.MonthPeriod)
	s.logger.Debug("rollup persisted",
		zap.String("user_id", agg.UserID),
		zap.String("month_period", agg.MonthPeriod),
		zap.Int64("final_balance", saved.FinalBalance))
	return saved, nil
}

// carriedAmount returns the previous period's confirmed amount for a
// same-named source, falling back to 0 when there is none.
func (s *Liquidity) carriedAmount(ctx context.Context, userID, monthPeriod, name string) int64 {
	prev, err := period.Previous(monthPeriod)
	if err != nil {
		return 0
	}
	prevAgg, err := s.liquidity.GetMonthlyLiquidity(ctx, userID, prev)
	if err != nil || prevAgg == nil {
		return 0
	}
	for _, src := range prevAgg.LiquiditySources {
		if src.Name != name {
			continue
		}
		if src.RealAmount != nil {
			return *src.RealAmount
		}
		return src.ExpectedAmount
	}
	return 0
}
