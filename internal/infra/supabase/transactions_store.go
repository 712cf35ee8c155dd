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
// Transactions (monthly ledger)
// ============================================================

// transactionRow maps the transactions table columns.
type transactionRow struct {
	ID               string `json:"id"`
	UserID           string `json:"user_id"`
	Type             string `json:"type"`
	Value            int64  `json:"value"`
	ExpectedAmount   int64  `json:"expected_amount"`
	Concept          string `json:"concept"`
	PaymentMethod    string `json:"payment_method"`
	Date             string `json:"date"`
	MonthPeriod      string `json:"month_period"`
	FixedExpenseID   string `json:"fixed_expense_id,omitempty"`
	ExpectedIncomeID string `json:"expected_income_id,omitempty"`
	SavingsSourceID  string `json:"savings_source_id,omitempty"`
	OriginSource     string `json:"origin_source,omitempty"`
	CreatedAt        string `json:"created_at,omitempty"`
	UpdatedAt        string `json:"updated_at,omitempty"`
}

func (r transactionRow) toDomain() domain.Transaction {
	return domain.Transaction{
		ID:               r.ID,
		UserID:           r.UserID,
		Type:             domain.TransactionType(r.Type),
		Value:            r.Value,
		ExpectedAmount:   r.ExpectedAmount,
		Concept:          r.Concept,
		PaymentMethod:    r.PaymentMethod,
		Date:             parseTimestamp(r.Date),
		MonthPeriod:      r.MonthPeriod,
		FixedExpenseID:   r.FixedExpenseID,
		ExpectedIncomeID: r.ExpectedIncomeID,
		SavingsSourceID:  r.SavingsSourceID,
		OriginSource:     r.OriginSource,
		CreatedAt:        parseTimestamp(r.CreatedAt),
		UpdatedAt:        parseTimestamp(r.UpdatedAt),
	}
}

func transactionToRow(t *domain.Transaction) transactionRow {
	return transactionRow{
		ID:               t.ID,
		UserID:           t.UserID,
		Type:             string(t.Type),
		Value:            t.Value,
		ExpectedAmount:   t.ExpectedAmount,
		Concept:          t.Concept,
		PaymentMethod:    t.PaymentMethod,
		Date:             t.Date.Format(time.RFC3339),
		MonthPeriod:      t.MonthPeriod,
		FixedExpenseID:   t.FixedExpenseID,
		ExpectedIncomeID: t.ExpectedIncomeID,
		SavingsSourceID:  t.SavingsSourceID,
		OriginSource:     t.OriginSource,
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        t.UpdatedAt.Format(time.RFC3339),
	}
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t, _ = time.Parse("2006-01-02", s)
	}
	return t
}

// ListTransactions returns all transactions stored against (user, period).
// Grouping is by the stored month_period column, never by date.
func (c *Client) ListTransactions(ctx context.Context, userID, monthPeriod string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()
	span.SetAttributes(attribute.String("month.period", monthPeriod))

	path := fmt.Sprintf("transactions?user_id=eq.%s&month_period=eq.%s&order=date.desc&limit=1000", userID, monthPeriod)
	return c.listTransactions(ctx, path)
}

// ListTransactionsByType narrows the period listing to one movement type.
func (c *Client) ListTransactionsByType(ctx context.Context, userID, monthPeriod string, txType domain.TransactionType) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactionsByType")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s&month_period=eq.%s&type=eq.%s&order=date.desc&limit=1000",
		userID, monthPeriod, txType)
	return c.listTransactions(ctx, path)
}

// ListSavingsTransactions returns every savings transaction referencing a
// source, across all periods. Used by the savings reconciliation path.
func (c *Client) ListSavingsTransactions(ctx context.Context, savingsSourceID string) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListSavingsTransactions")
	defer span.End()

	path := fmt.Sprintf("transactions?savings_source_id=eq.%s&type=eq.%s&order=date.asc&limit=10000",
		savingsSourceID, domain.TypeSavings)
	return c.listTransactions(ctx, path)
}

func (c *Client) listTransactions(ctx context.Context, path string) ([]domain.Transaction, error) {
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return []domain.Transaction{}, nil
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}

	txns := make([]domain.Transaction, 0, len(rows))
	for _, r := range rows {
		txns = append(txns, r.toDomain())
	}
	return txns, nil
}

// GetTransaction fetches a single transaction. Returns (nil, nil) when the
// id does not exist.
func (c *Client) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s&limit=1", id)
	body, err := c.getWithRetry(ctx, path)
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "supabase/transactions", Err: err}
	}
	if body == nil || string(body) == "[]" {
		return nil, nil
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	t := rows[0].toDomain()
	return &t, nil
}

// InsertTransaction stores a new ledger transaction.
func (c *Client) InsertTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.InsertTransaction")
	defer span.End()

	body, err := c.doPost(ctx, "transactions", transactionToRow(tx))
	if err != nil {
		return nil, err
	}

	var rows []transactionRow
	if err := json.Unmarshal(body, &rows); err != nil || len(rows) == 0 {
		// Write succeeded; fall back to what we sent.
		return tx, nil
	}
	created := rows[0].toDomain()
	return &created, nil
}

// UpdateTransaction patches the allowed fields of a transaction and
// returns the stored record. Type, user and period are not updatable.
func (c *Client) UpdateTransaction(ctx context.Context, id string, update *domain.TransactionUpdate) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()

	patch := map[string]any{
		"updated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if update.Value != nil {
		patch["value"] = *update.Value
	}
	if update.ExpectedAmount != nil {
		patch["expected_amount"] = *update.ExpectedAmount
	}
	if update.Concept != nil {
		patch["concept"] = *update.Concept
	}
	if update.PaymentMethod != nil {
		patch["payment_method"] = *update.PaymentMethod
	}
	if update.Date != nil {
		patch["date"] = update.Date.Format(time.RFC3339)
	}

	path := fmt.Sprintf("transactions?id=eq.%s", id)
	if err := c.doPatch(ctx, path, patch); err != nil {
		return nil, err
	}

	updated, err := c.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	return updated, nil
}

// DeleteTransaction removes a transaction. Deleting an id that does not
// exist is an error, so callers can trust a confirmed delete before they
// trigger a balance recompute.
func (c *Client) DeleteTransaction(ctx context.Context, id string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	body, err := c.doDelete(ctx, fmt.Sprintf("transactions?id=eq.%s", id))
	if err != nil {
		return err
	}
	if body == nil || string(body) == "[]" {
		return &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	return nil
}
