package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mymoney-app/mymoney-api/internal/domain"
)

// ============================================================
// Recurring templates — fixed expenses & expected incomes
// ============================================================

type fixedExpenseRow struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Amount     int64  `json:"amount"`
	DayOfMonth int    `json:"day_of_month"`
	CategoryID string `json:"category_id,omitempty"`
	Months     []int  `json:"months"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func (r fixedExpenseRow) toDomain() domain.FixedExpense {
	return domain.FixedExpense{
		ID:         r.ID,
		UserID:     r.UserID,
		Name:       r.Name,
		Amount:     r.Amount,
		DayOfMonth: r.DayOfMonth,
		CategoryID: r.CategoryID,
		Months:     r.Months,
		CreatedAt:  parseTimestamp(r.CreatedAt),
	}
}

type expectedIncomeRow struct {
	ID         string `json:"id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Amount     int64  `json:"amount"`
	DayOfMonth int    `json:"day_of_month"`
	Months     []int  `json:"months"`
	CreatedAt  string `json:"created_at,omitempty"`
}

func (r expectedIncomeRow) toDomain() domain.ExpectedIncome {
	return domain.ExpectedIncome{
		ID:         r.ID,
		UserID:     r.UserID,
		Name:       r.Name,
		Amount:     r.Amount,
		DayOfMonth: r.DayOfMonth,
		Months:     r.Months,
		CreatedAt:  parseTimestamp(r.CreatedAt),
	}
}

// ListFixedExpenses returns a user's recurring expense templates.
func (c *Client) ListFixedExpenses(ctx context.Context, userID string) ([]domain.FixedExpense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListFixedExpenses")
	defer span.End()

	path := fmt.Sprintf("fixed_expenses?user_id=eq.%s&order=day_of_month.asc", userID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/fixed_expenses", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.FixedExpense{}, nil
	}

	var rows []fixedExpenseRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode fixed_expenses: %w", err)
	}

	out := make([]domain.FixedExpense, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CreateFixedExpense stores a new recurring expense template.
func (c *Client) CreateFixedExpense(ctx context.Context, fe *domain.FixedExpense) (*domain.FixedExpense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateFixedExpense")
	defer span.End()

	row := fixedExpenseRow{
		ID:         fe.ID,
		UserID:     fe.UserID,
		Name:       fe.Name,
		Amount:     fe.Amount,
		DayOfMonth: fe.DayOfMonth,
		CategoryID: fe.CategoryID,
		Months:     fe.Months,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	body, err := c.doPost(ctx, "fixed_expenses", row)
	if err != nil {
		return nil, err
	}

	var rows []fixedExpenseRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return fe, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

// UpdateFixedExpense patches a template's editable fields.
func (c *Client) UpdateFixedExpense(ctx context.Context, fe *domain.FixedExpense) (*domain.FixedExpense, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateFixedExpense")
	defer span.End()

	patch := map[string]any{
		"name":         fe.Name,
		"amount":       fe.Amount,
		"day_of_month": fe.DayOfMonth,
		"category_id":  fe.CategoryID,
		"months":       fe.Months,
	}
	if err := c.doPatch(ctx, fmt.Sprintf("fixed_expenses?id=eq.%s", fe.ID), patch); err != nil {
		return nil, err
	}
	return fe, nil
}

// DeleteFixedExpense removes a template.
func (c *Client) DeleteFixedExpense(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteFixedExpense")
	defer span.End()

	body, err := c.doDelete(ctx, fmt.Sprintf("fixed_expenses?id=eq.%s", id))
	if err != nil {
		return err
	}
	if body == nil || string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "fixed_expense", ID: id}
	}
	return nil
}

// ListExpectedIncomes returns a user's recurring income templates.
func (c *Client) ListExpectedIncomes(ctx context.Context, userID string) ([]domain.ExpectedIncome, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListExpectedIncomes")
	defer span.End()

	path := fmt.Sprintf("expected_incomes?user_id=eq.%s&order=day_of_month.asc", userID)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/expected_incomes", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.ExpectedIncome{}, nil
	}

	var rows []expectedIncomeRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode expected_incomes: %w", err)
	}

	out := make([]domain.ExpectedIncome, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CreateExpectedIncome stores a new recurring income template.
func (c *Client) CreateExpectedIncome(ctx context.Context, ei *domain.ExpectedIncome) (*domain.ExpectedIncome, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateExpectedIncome")
	defer span.End()

	row := expectedIncomeRow{
		ID:         ei.ID,
		UserID:     ei.UserID,
		Name:       ei.Name,
		Amount:     ei.Amount,
		DayOfMonth: ei.DayOfMonth,
		Months:     ei.Months,
		CreatedAt:  time.Now().UTC().Format(time.RFC3339),
	}
	body, err := c.doPost(ctx, "expected_incomes", row)
	if err != nil {
		return nil, err
	}

	var rows []expectedIncomeRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		return ei, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

// UpdateExpectedIncome patches a template's editable fields.
func (c *Client) UpdateExpectedIncome(ctx context.Context, ei *domain.ExpectedIncome) (*domain.ExpectedIncome, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateExpectedIncome")
	defer span.End()

	patch := map[string]any{
		"name":         ei.Name,
		"amount":       ei.Amount,
		"day_of_month": ei.DayOfMonth,
		"months":       ei.Months,
	}
	if err := c.doPatch(ctx, fmt.Sprintf("expected_incomes?id=eq.%s", ei.ID), patch); err != nil {
		return nil, err
	}
	return ei, nil
}

// DeleteExpectedIncome removes a template.
func (c *Client) DeleteExpectedIncome(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteExpectedIncome")
	defer span.End()

	body, err := c.doDelete(ctx, fmt.Sprintf("expected_incomes?id=eq.%s", id))
	if err != nil {
		return err
	}
	if body == nil || string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "expected_income", ID: id}
	}
	return nil
}
