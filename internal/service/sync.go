package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/money"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// SyncRecord is one externally-sourced transaction as handed to the bulk
// sync path: the provider's stable id plus the raw fields to classify.
type SyncRecord struct {
	ProviderID  string
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	RawCategory string
}

// SyncResult summarizes one committed batch.
type SyncResult struct {
	Transactions   int `json:"transactions"`
	BudgetsTouched int `json:"budgetsTouched"`
}

// SyncCoordinator imports a batch of provider transactions: classify each,
// upsert the ledger rows keyed by provider id, and fold the whole batch
// into one delta map per budget instead of updating aggregates row by row.
//
// Deltas are signed against whatever the ledger already holds for the same
// provider id, so re-running a sync over already-seen transactions
// converges instead of double-counting.
type SyncCoordinator struct {
	ledger     Ledger
	classifier Classifier
	aggregator *Aggregator
	metrics    metrics.Collector
	logger     *zap.Logger
}

func NewSyncCoordinator(
	ledger Ledger,
	classifier Classifier,
	aggregator *Aggregator,
	collector metrics.Collector,
	logger *zap.Logger,
) *SyncCoordinator {
	if collector == nil {
		collector = metrics.NoOp{}
	}
	return &SyncCoordinator{
		ledger:     ledger,
		classifier: classifier,
		aggregator: aggregator,
		metrics:    collector,
		logger:     logger,
	}
}

// Sync runs the import. The ledger upserts commit as one batch, then the
// accumulated aggregate deltas as a second; a crash between the two leaves
// the ledger correct and the aggregates stale until the owning budgets are
// next recomputed.
func (s *SyncCoordinator) Sync(ctx context.Context, userID string, records []SyncRecord) (*SyncResult, error) {
	start := time.Now()

	upserts := make([]*models.Transaction, 0, len(records))
	deltas := make(map[string]map[models.Category]decimal.Decimal)

	for _, rec := range records {
		category := s.classifier.Classify(rec.RawCategory)
		amount := money.Normalize(rec.Amount)

		existing, err := s.ledger.Get(ctx, rec.ProviderID)
		if err != nil && !errors.Is(err, ErrTransactionNotFound) {
			return nil, fmt.Errorf("look up transaction %s: %w", rec.ProviderID, err)
		}

		now := time.Now()
		txn := &models.Transaction{
			ID:          rec.ProviderID,
			UserID:      userID,
			Amount:      amount,
			Description: rec.Description,
			Date:        rec.Date,
			Category:    category,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		if existing != nil {
			// Already in the ledger: keep the stamp and contribute only the
			// signed difference from what was counted before.
			txn.BudgetID = existing.BudgetID
			txn.CreatedAt = existing.CreatedAt
			if existing.BudgetID != nil {
				addDelta(deltas, *existing.BudgetID, existing.Category, existing.Amount.Neg())
				addDelta(deltas, *existing.BudgetID, category, amount)
			}
		} else {
			budget, err := s.aggregator.ResolveBudget(ctx, userID, rec.Date)
			if err != nil {
				return nil, err
			}
			if budget != nil {
				txn.BudgetID = &budget.ID
				addDelta(deltas, budget.ID, category, amount)
			}
		}

		upserts = append(upserts, txn)
	}

	if err := s.ledger.UpsertBatch(ctx, upserts); err != nil {
		return nil, fmt.Errorf("commit ledger batch: %w", err)
	}
	if err := s.aggregator.ApplyBatchDeltas(ctx, userID, deltas); err != nil {
		return nil, fmt.Errorf("commit aggregate batch: %w", err)
	}

	touched := 0
	for _, delta := range deltas {
		for _, d := range delta {
			if !d.IsZero() {
				touched++
				break
			}
		}
	}

	s.metrics.ObserveSyncBatch(len(records), touched, time.Since(start))
	s.logger.Info("sync batch committed",
		zap.String("user_id", userID),
		zap.Int("transactions", len(records)),
		zap.Int("budgets_touched", touched),
	)

	return &SyncResult{Transactions: len(records), BudgetsTouched: touched}, nil
}

func addDelta(deltas map[string]map[models.Category]decimal.Decimal, budgetID string, c models.Category, d decimal.Decimal) {
	m, ok := deltas[budgetID]
	if !ok {
		m = make(map[models.Category]decimal.Decimal)
		deltas[budgetID] = m
	}
	m[c] = m[c].Add(d)
}
