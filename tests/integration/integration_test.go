package integration_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mymoney-app/mymoney-api/internal/config"
	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/handler"
	"github.com/mymoney-app/mymoney-api/internal/infra/cache"
	"github.com/mymoney-app/mymoney-api/internal/infra/memstore"
	"github.com/mymoney-app/mymoney-api/internal/infra/observability"
	"github.com/mymoney-app/mymoney-api/internal/service"

	"go.uber.org/zap"
)

const testSecret = "integration-test-secret"

func buildRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	store := memstore.New()
	snapshots := cache.New[*domain.DashboardSnapshot](5 * time.Minute)

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
	cfg := &config.Config{JWTSecret: testSecret}
	return handler.NewRouter(svcs, metrics, cfg, logger)
}

func signToken(t *testing.T, sub string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": sub,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func do(t *testing.T, router http.Handler, token, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

// TestIntegration_MonthLifecycle walks a user through a full month and
// verifies the next month's opening balance resolves from the ledger.
func TestIntegration_MonthLifecycle(t *testing.T) {
	router := buildRouter(t)
	token := signToken(t, "u1")

	// --- Opening balance for January ---
	rec := do(t, router, token, http.MethodPost, "/api/initial-liquidity", map[string]any{
		"userId":      "u1",
		"monthPeriod": "2024-01",
		"amount":      1000000,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("save initial liquidity: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	// --- January movements ---
	for _, tx := range []map[string]any{
		{"userId": "u1", "type": "expected_income", "value": 5000000, "concept": "salary", "monthPeriod": "2024-01"},
		{"userId": "u1", "type": "regular_expense", "value": 1500000, "concept": "rent and groceries", "monthPeriod": "2024-01"},
	} {
		rec = do(t, router, token, http.MethodPost, "/api/transactions", tx)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create transaction: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
		}
	}

	// --- Savings: open a source and make a deposit ---
	rec = do(t, router, token, http.MethodPost, "/api/savings/sources", map[string]any{
		"userId": "u1",
		"name":   "Emergency fund",
		"amount": 0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create savings source: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var srcResp struct {
		Data domain.SavingsSource `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &srcResp); err != nil {
		t.Fatalf("decode savings source: %v", err)
	}

	rec = do(t, router, token, http.MethodPost, "/api/savings", map[string]any{
		"userId":          "u1",
		"monthPeriod":     "2024-01",
		"savingsSourceId": srcResp.Data.ID,
		"value":           500000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create deposit: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	// --- January rollup reflects all three movement categories ---
	rec = do(t, router, token, http.MethodGet, "/api/monthly-liquidity?userId=u1&monthPeriod=2024-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get rollup: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var rollup struct {
		Data domain.MonthlyLiquidity `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &rollup); err != nil {
		t.Fatalf("decode rollup: %v", err)
	}
	if rollup.Data.TotalIncomes != 5000000 || rollup.Data.TotalExpenses != 1500000 || rollup.Data.TotalSavings != 500000 {
		t.Fatalf("unexpected totals: %+v", rollup.Data)
	}
	if rollup.Data.FinalBalance != 4000000 {
		t.Errorf("finalBalance = %d, want 4000000", rollup.Data.FinalBalance)
	}

	// --- February opening resolves from January's ledger ---
	rec = do(t, router, token, http.MethodGet, "/api/initial-liquidity?userId=u1&monthPeriod=2024-02&calculate=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("resolve: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var res struct {
		Data domain.Resolution `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode resolution: %v", err)
	}
	if res.Data.Amount != 4000000 {
		t.Errorf("resolved opening = %d, want 4000000", res.Data.Amount)
	}
	if !res.Data.WasCalculated || res.Data.Source != "calculated" {
		t.Errorf("expected calculated resolution, got %+v", res.Data)
	}

	// --- Recurring template shows up as a pending February entry ---
	rec = do(t, router, token, http.MethodPost, "/api/fixed-expenses", map[string]any{
		"userId":     "u1",
		"name":       "Rent",
		"amount":     900000,
		"dayOfMonth": 5,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create template: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	rec = do(t, router, token, http.MethodGet, "/api/transactions?userId=u1&monthPeriod=2024-02&includePending=true", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("merged list: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var merged struct {
		Data []domain.Transaction `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &merged); err != nil {
		t.Fatalf("decode merged list: %v", err)
	}
	foundPending := false
	for _, tx := range merged.Data {
		if tx.Pending && strings.HasPrefix(tx.ID, service.PendingIDPrefix) && tx.Concept == "Rent" {
			foundPending = true
			if tx.ExpectedAmount != 900000 {
				t.Errorf("pending expectedAmount = %d, want 900000", tx.ExpectedAmount)
			}
		}
	}
	if !foundPending {
		t.Errorf("expected a pending rent entry in February, got %d entries", len(merged.Data))
	}

	// --- Dashboard snapshot bundles it all ---
	rec = do(t, router, token, http.MethodGet, "/api/dashboard?userId=u1&monthPeriod=2024-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var snap struct {
		Data domain.DashboardSnapshot `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if snap.Data.Liquidity == nil || snap.Data.Liquidity.FinalBalance != 4000000 {
		t.Errorf("dashboard liquidity missing or wrong: %+v", snap.Data.Liquidity)
	}
	if len(snap.Data.SavingsSources) != 1 || snap.Data.SavingsSources[0].CurrentBalance != 500000 {
		t.Errorf("dashboard savings wrong: %+v", snap.Data.SavingsSources)
	}

	fmt.Printf("✅ Integration test passed: final balance %d carried into next month\n",
		rollup.Data.FinalBalance)
}

// TestIntegration_AuthRequired verifies token validation on the API group.
func TestIntegration_AuthRequired(t *testing.T) {
	router := buildRouter(t)

	rec := do(t, router, "", http.MethodGet, "/api/transactions?userId=u1&monthPeriod=2024-01", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("no token: expected 401, got %d", rec.Code)
	}

	// Token subject must match the userId being operated on.
	other := signToken(t, "someone-else")
	rec = do(t, router, other, http.MethodPost, "/api/transactions", map[string]any{
		"userId":      "u1",
		"type":        "unexpected_income",
		"value":       100,
		"concept":     "x",
		"monthPeriod": "2024-01",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("mismatched subject: expected 401, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	// Deposits are looked up by transaction id alone; the owner check must
	// still hold.
	owner := signToken(t, "u1")
	rec = do(t, router, owner, http.MethodPost, "/api/savings/sources", map[string]any{
		"userId": "u1",
		"name":   "Vacation",
		"amount": 0,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create savings source: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var src struct {
		Data domain.SavingsSource `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &src); err != nil {
		t.Fatalf("decode savings source: %v", err)
	}
	rec = do(t, router, owner, http.MethodPost, "/api/savings", map[string]any{
		"userId":          "u1",
		"monthPeriod":     "2024-01",
		"savingsSourceId": src.Data.ID,
		"value":           1000,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create deposit: expected 201, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	var dep struct {
		Data domain.Transaction `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dep); err != nil {
		t.Fatalf("decode deposit: %v", err)
	}

	rec = do(t, router, other, http.MethodPut, "/api/savings", map[string]any{
		"transactionId": dep.Data.ID,
		"value":         999999,
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("update foreign deposit: expected 401, got %d. Body: %s", rec.Code, rec.Body.String())
	}
	rec = do(t, router, other, http.MethodDelete, "/api/savings?transactionId="+dep.Data.ID, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("delete foreign deposit: expected 401, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	// The owner can still mutate their own deposit.
	rec = do(t, router, owner, http.MethodDelete, "/api/savings?transactionId="+dep.Data.ID, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("delete own deposit: expected 200, got %d. Body: %s", rec.Code, rec.Body.String())
	}

	// Health endpoints stay open.
	rec = do(t, router, "", http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("healthz: expected 200, got %d", rec.Code)
	}
}
