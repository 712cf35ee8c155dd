package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/domain"
)

// ============================================================
// Monthly liquidity rollups + initial liquidity overrides
// ============================================================

// monthlyLiquidityRow maps the monthly_liquidity table. The sources
// breakdown lives in a jsonb column written and read by this service.
type monthlyLiquidityRow struct {
	ID               string                   `json:"id"`
	UserID           string                   `json:"user_id"`
	MonthPeriod      string                   `json:"month_period"`
	ExpectedAmount   int64                    `json:"expected_amount"`
	RealAmount       *int64                   `json:"real_amount"`
	LiquiditySources []domain.LiquiditySource `json:"liquidity_sources"`
	TotalIncomes     int64                    `json:"total_incomes"`
	TotalExpenses    int64                    `json:"total_expenses"`
	TotalSavings     int64                    `json:"total_savings"`
	FinalBalance     int64                    `json:"final_balance"`
	UpdatedAt        string                   `json:"updated_at,omitempty"`
}

func (r monthlyLiquidityRow) toDomain() domain.MonthlyLiquidity {
	return domain.MonthlyLiquidity{
		ID:               r.ID,
		UserID:           r.UserID,
		MonthPeriod:      r.MonthPeriod,
		ExpectedAmount:   r.ExpectedAmount,
		RealAmount:       r.RealAmount,
		LiquiditySources: r.LiquiditySources,
		TotalIncomes:     r.TotalIncomes,
		TotalExpenses:    r.TotalExpenses,
		TotalSavings:     r.TotalSavings,
		FinalBalance:     r.FinalBalance,
		UpdatedAt:        parseTimestamp(r.UpdatedAt),
	}
}

// GetMonthlyLiquidity fetches the rollup for (user, period).
// Returns (nil, nil) when no rollup has been persisted yet.
func (c *Client) GetMonthlyLiquidity(ctx context.Context, userID, monthPeriod string) (*domain.MonthlyLiquidity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetMonthlyLiquidity")
	defer span.End()

	path := fmt.Sprintf("monthly_liquidity?id=eq.%s&limit=1", domain.AggregateKey(userID, monthPeriod))
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/monthly_liquidity", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []monthlyLiquidityRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode monthly_liquidity: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	agg := rows[0].toDomain()
	return &agg, nil
}

// UpsertMonthlyLiquidity writes the rollup in a single idempotent call
// keyed on the deterministic composite id.
func (c *Client) UpsertMonthlyLiquidity(ctx context.Context, agg *domain.MonthlyLiquidity) (*domain.MonthlyLiquidity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertMonthlyLiquidity")
	defer span.End()

	row := monthlyLiquidityRow{
		ID:               domain.AggregateKey(agg.UserID, agg.MonthPeriod),
		UserID:           agg.UserID,
		MonthPeriod:      agg.MonthPeriod,
		ExpectedAmount:   agg.ExpectedAmount,
		RealAmount:       agg.RealAmount,
		LiquiditySources: agg.LiquiditySources,
		TotalIncomes:     agg.TotalIncomes,
		TotalExpenses:    agg.TotalExpenses,
		TotalSavings:     agg.TotalSavings,
		FinalBalance:     agg.FinalBalance,
		UpdatedAt:        time.Now().UTC().Format(time.RFC3339),
	}

	body, err := c.doUpsert(ctx, "monthly_liquidity", "id", row)
	if err != nil {
		return nil, err
	}

	var rows []monthlyLiquidityRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		stored := row.toDomain()
		return &stored, nil
	}
	stored := rows[0].toDomain()
	return &stored, nil
}

// DeleteMonthlyLiquidity removes the rollup record for (user, period).
func (c *Client) DeleteMonthlyLiquidity(ctx context.Context, userID, monthPeriod string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteMonthlyLiquidity")
	defer span.End()

	path := fmt.Sprintf("monthly_liquidity?id=eq.%s", domain.AggregateKey(userID, monthPeriod))
	body, err := c.doDelete(ctx, path)
	if err != nil {
		return err
	}
	if body == nil || string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "monthly_liquidity", ID: domain.AggregateKey(userID, monthPeriod)}
	}
	return nil
}

// ListMonthlyLiquidity returns a user's rollups ordered newest first.
// Period keys sort chronologically as strings.
func (c *Client) ListMonthlyLiquidity(ctx context.Context, userID string) ([]domain.MonthlyLiquidity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListMonthlyLiquidity")
	defer span.End()

	path := fmt.Sprintf("monthly_liquidity?user_id=eq.%s&order=month_period.desc&limit=120", userID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/monthly_liquidity", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.MonthlyLiquidity{}, nil
	}

	var rows []monthlyLiquidityRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode monthly_liquidity: %w", err)
	}

	aggs := make([]domain.MonthlyLiquidity, 0, len(rows))
	for _, r := range rows {
		aggs = append(aggs, r.toDomain())
	}
	return aggs, nil
}

// ============================================================
// Initial liquidity
// ============================================================

type initialLiquidityRow struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	MonthPeriod string `json:"month_period"`
	Amount      int64  `json:"amount"`
	IsManual    bool   `json:"is_manual"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func (r initialLiquidityRow) toDomain() domain.InitialLiquidity {
	return domain.InitialLiquidity{
		ID:          r.ID,
		UserID:      r.UserID,
		MonthPeriod: r.MonthPeriod,
		Amount:      r.Amount,
		IsManual:    r.IsManual,
		UpdatedAt:   parseTimestamp(r.UpdatedAt),
	}
}

// GetInitialLiquidity fetches the opening-balance override for
// (user, period). Returns (nil, nil) when none exists — absence means the
// opening balance must be calculated, not assumed zero.
func (c *Client) GetInitialLiquidity(ctx context.Context, userID, monthPeriod string) (*domain.InitialLiquidity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetInitialLiquidity")
	defer span.End()

	path := fmt.Sprintf("initial_liquidity?user_id=eq.%s&month_period=eq.%s&limit=1", userID, monthPeriod)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/initial_liquidity", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []initialLiquidityRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode initial_liquidity: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	rec := rows[0].toDomain()
	return &rec, nil
}

// SaveInitialLiquidity upserts the override record keyed on
// (user, period).
func (c *Client) SaveInitialLiquidity(ctx context.Context, rec *domain.InitialLiquidity) (*domain.InitialLiquidity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SaveInitialLiquidity")
	defer span.End()

	row := initialLiquidityRow{
		ID:          domain.AggregateKey(rec.UserID, rec.MonthPeriod),
		UserID:      rec.UserID,
		MonthPeriod: rec.MonthPeriod,
		Amount:      rec.Amount,
		IsManual:    rec.IsManual,
		UpdatedAt:   time.Now().UTC().Format(time.RFC3339),
	}

	body, err := c.doUpsert(ctx, "initial_liquidity", "id", row)
	if err != nil {
		return nil, err
	}

	var rows []initialLiquidityRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		stored := row.toDomain()
		return &stored, nil
	}
	stored := rows[0].toDomain()
	return &stored, nil
}

// DeleteInitialLiquidity removes the override, reverting future resolves
// to calculated mode.
func (c *Client) DeleteInitialLiquidity(ctx context.Context, userID, monthPeriod string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteInitialLiquidity")
	defer span.End()

	path := fmt.Sprintf("initial_liquidity?user_id=eq.%s&month_period=eq.%s", userID, monthPeriod)
	body, err := c.doDelete(ctx, path)
	if err != nil {
		return err
	}
	if body == nil || string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "initial_liquidity", ID: domain.AggregateKey(userID, monthPeriod)}
	}
	return nil
}
