package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/mymoney-app/mymoney-api/internal/domain"
)

// ============================================================
// Savings sources (running balances + deposit history)
// ============================================================

// savingsSourceRow maps the savings_sources table. The deposit history
// lives in a jsonb column written and read by this service.
type savingsSourceRow struct {
	ID             string                  `json:"id"`
	UserID         string                  `json:"user_id"`
	Name           string                  `json:"name"`
	Amount         int64                   `json:"amount"`
	CurrentBalance int64                   `json:"current_balance"`
	Deposits       []domain.SavingsDeposit `json:"deposits"`
	CreatedAt      string                  `json:"created_at,omitempty"`
}

func (r savingsSourceRow) toDomain() domain.SavingsSource {
	deposits := r.Deposits
	if deposits == nil {
		deposits = []domain.SavingsDeposit{}
	}
	return domain.SavingsSource{
		ID:             r.ID,
		UserID:         r.UserID,
		Name:           r.Name,
		Amount:         r.Amount,
		CurrentBalance: r.CurrentBalance,
		Deposits:       deposits,
		CreatedAt:      parseTimestamp(r.CreatedAt),
	}
}

// GetSavingsSource fetches a source by id. Returns (nil, nil) when the id
// does not exist; callers treat that as a fatal input error.
func (c *Client) GetSavingsSource(ctx context.Context, id string) (*domain.SavingsSource, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSavingsSource")
	defer span.End()
	span.SetAttributes(attribute.String("savings.source_id", id))

	path := fmt.Sprintf("savings_sources?id=eq.%s&limit=1", id)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/savings_sources", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []savingsSourceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode savings_source: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	src := rows[0].toDomain()
	return &src, nil
}

// ListSavingsSources returns all of a user's savings sources.
func (c *Client) ListSavingsSources(ctx context.Context, userID string) ([]domain.SavingsSource, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSavingsSources")
	defer span.End()

	path := fmt.Sprintf("savings_sources?user_id=eq.%s&order=created_at.asc", userID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/savings_sources", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.SavingsSource{}, nil
	}

	var rows []savingsSourceRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode savings_sources: %w", err)
	}

	out := make([]domain.SavingsSource, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CreateSavingsSource stores a new source; the initial amount seeds the
// running balance.
func (c *Client) CreateSavingsSource(ctx context.Context, src *domain.SavingsSource) (*domain.SavingsSource, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateSavingsSource")
	defer span.End()

	row := savingsSourceRow{
		ID:             src.ID,
		UserID:         src.UserID,
		Name:           src.Name,
		Amount:         src.Amount,
		CurrentBalance: src.CurrentBalance,
		Deposits:       src.Deposits,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}
	if row.Deposits == nil {
		row.Deposits = []domain.SavingsDeposit{}
	}

	body, err := c.doPost(ctx, "savings_sources", row)
	if err != nil {
		return nil, err
	}

	var rows []savingsSourceRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return src, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

// UpdateSavingsBalance writes the running balance and the deposit list in
// one call, so the pair never diverges within a single write.
func (c *Client) UpdateSavingsBalance(ctx context.Context, id string, currentBalance int64, deposits []domain.SavingsDeposit) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateSavingsBalance")
	defer span.End()

	if deposits == nil {
		deposits = []domain.SavingsDeposit{}
	}
	patch := map[string]any{
		"current_balance": currentBalance,
		"deposits":        deposits,
	}
	return c.doPatch(ctx, fmt.Sprintf("savings_sources?id=eq.%s", id), patch)
}

// DeleteSavingsSource removes a source.
func (c *Client) DeleteSavingsSource(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteSavingsSource")
	defer span.End()

	body, err := c.doDelete(ctx, fmt.Sprintf("savings_sources?id=eq.%s", id))
	if err != nil {
		return err
	}
	if body == nil || string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "savings_source", ID: id}
	}
	return nil
}
