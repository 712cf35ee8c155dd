package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/config"
	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/handler"
	"github.com/mymoney-app/mymoney-api/internal/infra/cache"
	"github.com/mymoney-app/mymoney-api/internal/infra/memstore"
	"github.com/mymoney-app/mymoney-api/internal/infra/observability"
	"github.com/mymoney-app/mymoney-api/internal/service"

	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memstore.New()
	snapshots := cache.New[*domain.DashboardSnapshot](time.Minute)

	resolver := service.NewResolver(store, store, metrics, logger)
	projection := service.NewProjection(store, store, logger)
	dashboard := service.NewDashboard(store, store, projection, snapshots, metrics, logger)
	updater := service.NewBalanceUpdater(store, store, resolver, dashboard, metrics, logger)

	svcs := &handler.Services{
		Ledger:     service.NewLedger(store, updater, 1, logger),
		Liquidity:  service.NewLiquidity(store, resolver, updater, dashboard, logger),
		Savings:    service.NewSavings(store, store, updater, 1, logger),
		Recurring:  service.NewRecurring(store, logger),
		Projection: projection,
		Dashboard:  dashboard,
	}
	cfg := &config.Config{DevAuth: true}
	return handler.NewRouter(svcs, metrics, cfg, logger)
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestTransactionLifecycleOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	body := map[string]any{
		"userId":      "u1",
		"type":        "regular_expense",
		"value":       4500,
		"concept":     "groceries",
		"monthPeriod": "2024-03",
	}
	rec := doJSON(t, router, http.MethodPost, "/api/transactions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created struct {
		Success bool               `json:"success"`
		Data    domain.Transaction `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if !created.Success || created.Data.ID == "" {
		t.Fatalf("unexpected create envelope: %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/transactions?userId=u1&monthPeriod=2024-03", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", rec.Code)
	}

	// The create must have produced a rollup with the expense totalled.
	rec = doJSON(t, router, http.MethodGet, "/api/monthly-liquidity?userId=u1&monthPeriod=2024-03", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("rollup: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var rollup struct {
		Data domain.MonthlyLiquidity `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rollup); err != nil {
		t.Fatalf("decode rollup: %v", err)
	}
	if rollup.Data.TotalExpenses != 4500 {
		t.Errorf("totalExpenses = %d, want 4500", rollup.Data.TotalExpenses)
	}

	rec = doJSON(t, router, http.MethodDelete, "/api/transactions/"+created.Data.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodDelete, "/api/transactions/"+created.Data.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("double delete: expected 404, got %d", rec.Code)
	}
}

func TestNonNumericValueRejected(t *testing.T) {
	router := newTestRouter(t)

	payload := []byte(`{"userId":"u1","type":"regular_expense","value":"abc","concept":"x","monthPeriod":"2024-03"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/transactions", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for non-numeric value, got %d", rec.Code)
	}
}

func TestMissingRequiredParams(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/monthly-liquidity?userId=u1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for missing monthPeriod, got %d", rec.Code)
	}
}

func TestInitialLiquidityCalculateFlag(t *testing.T) {
	router := newTestRouter(t)

	// Raw lookup with no record is a 404.
	rec := doJSON(t, router, http.MethodGet, "/api/initial-liquidity?userId=u1&monthPeriod=2024-03", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("raw lookup: expected 404, got %d", rec.Code)
	}

	// With calculate=true a fresh user resolves to a calculated zero.
	rec = doJSON(t, router, http.MethodGet, "/api/initial-liquidity?userId=u1&monthPeriod=2024-03&calculate=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("calculated lookup: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Data domain.Resolution `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode resolution: %v", err)
	}
	if !res.Data.WasCalculated || res.Data.Amount != 0 {
		t.Errorf("resolution = %+v, want calculated 0", res.Data)
	}
}

func TestSavingsFlowOverHTTP(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/savings/sources", map[string]any{
		"userId": "u1", "name": "Fund", "amount": 2000000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create source: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var src struct {
		Data domain.SavingsSource `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &src); err != nil {
		t.Fatalf("decode source: %v", err)
	}

	rec = doJSON(t, router, http.MethodPost, "/api/savings", map[string]any{
		"userId": "u1", "monthPeriod": "2024-03", "savingsSourceId": src.Data.ID,
		"value": 500000, "originSource": "checking",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create deposit: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/api/savings/sources?userId=u1", nil)
	var list struct {
		Data []domain.SavingsSource `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode sources: %v", err)
	}
	if len(list.Data) != 1 || list.Data[0].CurrentBalance != 2500000 {
		t.Errorf("sources after deposit = %+v, want balance 2500000", list.Data)
	}
}

func TestDashboardSnapshot(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/dashboard?userId=u1&monthPeriod=2024-03", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var snap struct {
		Data domain.DashboardSnapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode snapshot: %v", err)
	}
	if snap.Data.MonthPeriod != "2024-03" {
		t.Errorf("monthPeriod = %s, want 2024-03", snap.Data.MonthPeriod)
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		req = httptest.NewRequest(method, path, bytes.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
