package service

import (
	"testing"

	"go.uber.org/zap"

	"github.com/mymoney-app/mymoney-api/internal/infra/memstore"
	"github.com/mymoney-app/mymoney-api/internal/infra/observability"
)

// engine bundles a fully wired service stack over an in-memory store.
type engine struct {
	store     *memstore.Store
	resolver  *Resolver
	updater   *BalanceUpdater
	ledger    *Ledger
	liquidity *Liquidity
	savings   *Savings
	recurring *Recurring
	projector *Projection
}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(string, string) {}

func newEngine(t *testing.T, cutoffDay int) *engine {
	t.Helper()

	store := memstore.New()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	resolver := NewResolver(store, store, metrics, logger)
	updater := NewBalanceUpdater(store, store, resolver, noopInvalidator{}, metrics, logger)
	return &engine{
		store:     store,
		resolver:  resolver,
		updater:   updater,
		ledger:    NewLedger(store, updater, cutoffDay, logger),
		liquidity: NewLiquidity(store, resolver, updater, noopInvalidator{}, logger),
		savings:   NewSavings(store, store, updater, cutoffDay, logger),
		recurring: NewRecurring(store, logger),
		projector: NewProjection(store, store, logger),
	}
}

func int64Ptr(v int64) *int64 { return &v }
