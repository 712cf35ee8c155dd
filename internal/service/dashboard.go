package service

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/infra/observability"
	"github.com/mymoney-app/mymoney-api/internal/port"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// Dashboard assembles the combined per-period view: rollup, merged
// transaction list and savings sources, fetched concurrently and cached
// per (user, period). The cache is dropped explicitly on every mutation
// for the pair, never patched in place.
type Dashboard struct {
	liquidity  port.LiquidityStore
	savings    port.SavingsStore
	projection *Projection
	cache      port.Cache[*domain.DashboardSnapshot]
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewDashboard creates the dashboard service.
func NewDashboard(
	liquidity port.LiquidityStore,
	savings port.SavingsStore,
	projection *Projection,
	cache port.Cache[*domain.DashboardSnapshot],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Dashboard {
	return &Dashboard{
		liquidity:  liquidity,
		savings:    savings,
		projection: projection,
		cache:      cache,
		metrics:    metrics,
		logger:     logger,
	}
}

// Get returns the period snapshot, from cache when fresh.
func (d *Dashboard) Get(ctx context.Context, userID, monthPeriod string) (*domain.DashboardSnapshot, error) {
	ctx, span := dashboardTracer.Start(ctx, "Dashboard.Get")
	defer span.End()
	span.SetAttributes(attribute.String("month.period", monthPeriod))

	key := snapshotKey(userID, monthPeriod)
	if cached, ok := d.cache.Get(key); ok {
		d.metrics.IncrCacheHit("dashboard")
		return cached, nil
	}
	d.metrics.IncrCacheMiss("dashboard")

	start := time.Now()
	defer func() {
		d.metrics.RecordRequestDuration("dashboard", time.Since(start))
	}()

	var (
		rollup  *domain.MonthlyLiquidity
		entries []domain.Transaction
		sources []domain.SavingsSource
	)

	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// Absence is fine here: a period with no rollup yet still has a
		// transaction view.
		agg, err := d.liquidity.GetMonthlyLiquidity(gCtx, userID, monthPeriod)
		if err != nil {
			return fmt.Errorf("rollup fetch: %w", err)
		}
		rollup = agg
		return nil
	})
	g.Go(func() error {
		merged, err := d.projection.Merged(gCtx, userID, monthPeriod)
		if err != nil {
			return fmt.Errorf("transactions fetch: %w", err)
		}
		entries = merged
		return nil
	})
	g.Go(func() error {
		list, err := d.savings.ListSavingsSources(gCtx, userID)
		if err != nil {
			return fmt.Errorf("savings fetch: %w", err)
		}
		sources = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := &domain.DashboardSnapshot{
		MonthPeriod:    monthPeriod,
		Liquidity:      rollup,
		Transactions:   entries,
		SavingsSources: sources,
		GeneratedAt:    time.Now().UTC(),
	}
	d.cache.Set(key, snapshot)
	return snapshot, nil
}

// Invalidate drops the cached snapshot for a (user, period). The balance
// updater calls this after every recompute.
func (d *Dashboard) Invalidate(userID, monthPeriod string) {
	d.cache.Delete(snapshotKey(userID, monthPeriod))
}

func snapshotKey(userID, monthPeriod string) string {
	return fmt.Sprintf("dashboard:%s:%s", userID, monthPeriod)
}
