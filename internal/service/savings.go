package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/mymoney-app/mymoney-api/internal/domain"
	"github.com/mymoney-app/mymoney-api/internal/period"
	"github.com/mymoney-app/mymoney-api/internal/port"
)

var savingsTracer = otel.Tracer("service/savings")

// Savings manages the savings source running balances and the paired
// savings-type ledger transactions. A deposit touches two documents — the
// transaction and the source — with no cross-document transaction
// available, so the writes are sequenced (transaction first) and a failure
// of the second step surfaces as a distinct partial-write error. Drift
// from an interrupted pair is repaired by Recalculate.
type Savings struct {
	transactions port.TransactionStore
	sources      port.SavingsStore
	updater      *BalanceUpdater
	cutoffDay    int
	logger       *zap.Logger
}

// NewSavings creates the savings service.
func NewSavings(transactions port.TransactionStore, sources port.SavingsStore, updater *BalanceUpdater, cutoffDay int, logger *zap.Logger) *Savings {
	return &Savings{
		transactions: transactions,
		sources:      sources,
		updater:      updater,
		cutoffDay:    cutoffDay,
		logger:       logger,
	}
}

// ============================================================
// Savings sources
// ============================================================

// CreateSource registers a savings source. The initial amount seeds the
// running balance.
func (s *Savings) CreateSource(ctx context.Context, src *domain.SavingsSource) (*domain.SavingsSource, error) {
	ctx, span := savingsTracer.Start(ctx, "Savings.CreateSource")
	defer span.End()

	if src.UserID == "" {
		return nil, &domain.ErrValidation{Field: "userId", Message: "required"}
	}
	if src.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "required"}
	}
	if src.Amount < 0 {
		return nil, &domain.ErrValidation{Field: "amount", Message: "must not be negative"}
	}

	src.ID = uuid.NewString()
	src.CurrentBalance = src.Amount
	src.Deposits = []domain.SavingsDeposit{}
	return s.sources.CreateSavingsSource(ctx, src)
}

// GetSource returns a savings source by id.
func (s *Savings) GetSource(ctx context.Context, id string) (*domain.SavingsSource, error) {
	ctx, span := savingsTracer.Start(ctx, "Savings.GetSource")
	defer span.End()

	src, err := s.sources.GetSavingsSource(ctx, id)
	if err != nil {
		return nil, err
	}
	if src == nil {
		return nil, &domain.ErrNotFound{Resource: "savings_source", ID: id}
	}
	return src, nil
}

// ListSources returns the user's savings sources.
func (s *Savings) ListSources(ctx context.Context, userID string) ([]domain.SavingsSource, error) {
	ctx, span := savingsTracer.Start(ctx, "Savings.ListSources")
	defer span.End()

	return s.sources.ListSavingsSources(ctx, userID)
}

// DeleteSource removes a savings source. The paired ledger transactions
// stay in their periods; only the running balance entity goes away.
func (s *Savings) DeleteSource(ctx context.Context, id string) error {
	ctx, span := savingsTracer.Start(ctx, "Savings.DeleteSource")
	defer span.End()

	return s.sources.DeleteSavingsSource(ctx, id)
}

// ============================================================
// Deposits (paired transaction + balance writes)
// ============================================================

// DepositInput carries the fields for a new savings deposit.
type DepositInput struct {
	UserID          string    `json:"userId"`
	MonthPeriod     string    `json:"monthPeriod"`
	SavingsSourceID string    `json:"savingsSourceId"`
	OriginSource    string    `json:"originSource"`
	Value           int64     `json:"value"`
	Concept         string    `json:"concept"`
	Date            time.Time `json:"date"`
}

// CreateDeposit logs a savings movement: a savings-type transaction in the
// ledger plus a deposit entry and balance increment on the source. The
// transaction is written first; if the balance update then fails, the
// error names that step so the caller can reconcile instead of blindly
// retrying the whole pair.
func (s *Savings) CreateDeposit(ctx context.Context, in *DepositInput) (*domain.Transaction, error) {
	ctx, span := savingsTracer.Start(ctx, "Savings.CreateDeposit")
	defer span.End()
	span.SetAttributes(attribute.String("savings.source_id", in.SavingsSourceID))

	if in.UserID == "" {
		return nil, &domain.ErrValidation{Field: "userId", Message: "required"}
	}
	if in.SavingsSourceID == "" {
		return nil, &domain.ErrValidation{Field: "savingsSourceId", Message: "required"}
	}
	if in.Value < 0 {
		return nil, &domain.ErrValidation{Field: "value", Message: "must not be negative"}
	}

	src, err := s.GetSource(ctx, in.SavingsSourceID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	date := in.Date
	if date.IsZero() {
		date = now
	}
	monthPeriod := in.MonthPeriod
	if monthPeriod == "" {
		monthPeriod = period.ForDate(date, s.cutoffDay)
	} else if _, _, err := period.Parse(monthPeriod); err != nil {
		return nil, &domain.ErrValidation{Field: "monthPeriod", Message: err.Error()}
	}
	concept := in.Concept
	if concept == "" {
		concept = src.Name
	}

	tx := &domain.Transaction{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Type:            domain.TypeSavings,
		Value:           in.Value,
		Concept:         concept,
		Date:            date,
		MonthPeriod:     monthPeriod,
		SavingsSourceID: in.SavingsSourceID,
		OriginSource:    in.OriginSource,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	created, err := s.transactions.InsertTransaction(ctx, tx)
	if err != nil {
		return nil, err
	}

	deposits := append(src.Deposits, domain.SavingsDeposit{
		ID:            uuid.NewString(),
		Date:          date,
		Amount:        in.Value,
		OriginSource:  in.OriginSource,
		TransactionID: created.ID,
		MonthPeriod:   monthPeriod,
	})
	if err := s.sources.UpdateSavingsBalance(ctx, src.ID, src.CurrentBalance+in.Value, deposits); err != nil {
		s.logger.Error("deposit balance update failed after transaction insert",
			zap.String("transaction_id", created.ID),
			zap.String("savings_source_id", src.ID),
			zap.Error(err))
		return nil, &domain.ErrPartialWrite{Operation: "savings_create", Step: "balance_update", Err: err}
	}

	if _, err := s.updater.Recompute(ctx, in.UserID, monthPeriod, "savings_create"); err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateDeposit patches a savings transaction and applies the value delta
// to the source balance and the matching deposit entry.
func (s *Savings) UpdateDeposit(ctx context.Context, transactionID string, update *domain.TransactionUpdate, originSource *string) (*domain.Transaction, error) {
	ctx, span := savingsTracer.Start(ctx, "Savings.UpdateDeposit")
	defer span.End()

	tx, err := s.getSavingsTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	src, err := s.GetSource(ctx, tx.SavingsSourceID)
	if err != nil {
		return nil, err
	}
	if update.Value != nil && *update.Value < 0 {
		return nil, &domain.ErrValidation{Field: "value", Message: "must not be negative"}
	}

	updated, err := s.transactions.UpdateTransaction(ctx, transactionID, update)
	if err != nil {
		return nil, err
	}

	var delta int64
	if update.Value != nil {
		delta = *update.Value - tx.Value
	}
	deposits := append([]domain.SavingsDeposit(nil), src.Deposits...)
	for i := range deposits {
		if deposits[i].TransactionID != transactionID {
			continue
		}
		if update.Value != nil {
			deposits[i].Amount = *update.Value
		}
		if update.Date != nil {
			deposits[i].Date = *update.Date
		}
		if originSource != nil {
			deposits[i].OriginSource = *originSource
		}
		break
	}
	if err := s.sources.UpdateSavingsBalance(ctx, src.ID, src.CurrentBalance+delta, deposits); err != nil {
		return nil, &domain.ErrPartialWrite{Operation: "savings_update", Step: "balance_update", Err: err}
	}

	if _, err := s.updater.Recompute(ctx, updated.UserID, updated.MonthPeriod, "savings_update"); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteDeposit reverses a savings transaction: subtracts its value from
// the balance (floored at 0 so accumulated drift never produces a negative
// balance), drops the matching deposit entry, then deletes the transaction.
func (s *Savings) DeleteDeposit(ctx context.Context, transactionID string) error {
	ctx, span := savingsTracer.Start(ctx, "Savings.DeleteDeposit")
	defer span.End()

	tx, err := s.getSavingsTransaction(ctx, transactionID)
	if err != nil {
		return err
	}
	src, err := s.GetSource(ctx, tx.SavingsSourceID)
	if err != nil {
		return err
	}

	balance := src.CurrentBalance - tx.Value
	if balance < 0 {
		balance = 0
	}
	deposits := make([]domain.SavingsDeposit, 0, len(src.Deposits))
	for _, d := range src.Deposits {
		if d.TransactionID == transactionID {
			continue
		}
		deposits = append(deposits, d)
	}
	if err := s.sources.UpdateSavingsBalance(ctx, src.ID, balance, deposits); err != nil {
		return err
	}

	if err := s.transactions.DeleteTransaction(ctx, transactionID); err != nil {
		s.logger.Error("transaction delete failed after balance reversal",
			zap.String("transaction_id", transactionID),
			zap.String("savings_source_id", src.ID),
			zap.Error(err))
		return &domain.ErrPartialWrite{Operation: "savings_delete", Step: "transaction_delete", Err: err}
	}

	_, err = s.updater.Recompute(ctx, tx.UserID, tx.MonthPeriod, "savings_delete")
	return err
}

// Recalculate rebuilds a source from the ledger: the deposit list is
// reconstructed from all savings transactions referencing the source and
// the balance is set to the initial amount plus their sum. This is the
// reconciliation path when the incremental updates are suspected to have
// drifted.
func (s *Savings) Recalculate(ctx context.Context, sourceID string) (*domain.SavingsSource, error) {
	ctx, span := savingsTracer.Start(ctx, "Savings.Recalculate")
	defer span.End()
	span.SetAttributes(attribute.String("savings.source_id", sourceID))

	src, err := s.GetSource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	txns, err := s.transactions.ListSavingsTransactions(ctx, sourceID)
	if err != nil {
		return nil, err
	}

	deposits := make([]domain.SavingsDeposit, 0, len(txns))
	balance := src.Amount
	for _, tx := range txns {
		deposits = append(deposits, domain.SavingsDeposit{
			ID:            uuid.NewString(),
			Date:          tx.Date,
			Amount:        tx.Value,
			OriginSource:  tx.OriginSource,
			TransactionID: tx.ID,
			MonthPeriod:   tx.MonthPeriod,
		})
		balance += tx.Value
	}
	if err := s.sources.UpdateSavingsBalance(ctx, sourceID, balance, deposits); err != nil {
		return nil, err
	}

	s.logger.Info("savings source rebuilt",
		zap.String("savings_source_id", sourceID),
		zap.Int("deposits", len(deposits)),
		zap.Int64("current_balance", balance))
	return s.GetSource(ctx, sourceID)
}

// GetDeposit returns the ledger transaction behind a deposit. Callers use
// it to check ownership before mutating a deposit by transaction id.
func (s *Savings) GetDeposit(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	ctx, span := savingsTracer.Start(ctx, "Savings.GetDeposit")
	defer span.End()

	return s.getSavingsTransaction(ctx, transactionID)
}

// getSavingsTransaction loads a transaction and enforces that it is a
// savings movement tied to a source.
func (s *Savings) getSavingsTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	tx, err := s.transactions.GetTransaction(ctx, id)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: id}
	}
	if tx.Type != domain.TypeSavings {
		return nil, &domain.ErrValidation{Field: "transactionId", Message: "not a savings transaction"}
	}
	return tx, nil
}
