package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/metrics"
	"fintrack/internal/models"
	"fintrack/internal/money"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Aggregator keeps each budget's per-category totals consistent with the
// ledger. Cheap mutations (a single transaction changing) go through
// incremental deltas; anything that changes which transactions a budget
// covers triggers a full recompute from the ledger.
//
// All aggregate mutations for a given budget are serialized through a
// per-budget mutex, so two concurrent writers cannot both read stale totals
// and clobber each other.
type Aggregator struct {
	ledger     Ledger
	budgets    BudgetStore
	aggregates AggregateStore
	metrics    metrics.Collector
	logger     *zap.Logger
	locks      *keyedMutex
}

func NewAggregator(
	ledger Ledger,
	budgets BudgetStore,
	aggregates AggregateStore,
	collector metrics.Collector,
	logger *zap.Logger,
) *Aggregator {
	if collector == nil {
		collector = metrics.NoOp{}
	}
	return &Aggregator{
		ledger:     ledger,
		budgets:    budgets,
		aggregates: aggregates,
		metrics:    collector,
		logger:     logger,
		locks:      newKeyedMutex(),
	}
}

// BudgetChanges carries the fields a budget update may touch. Nil fields
// keep their prior values.
type BudgetChanges struct {
	Title    *string
	Amount   *decimal.Decimal
	FromDate *time.Time
	ToDate   *time.Time
}

// CreateBudget stores the budget and seeds its aggregate with a full
// recompute over the new period, so a budget created after transactions
// already exist starts with correct totals.
func (a *Aggregator) CreateBudget(ctx context.Context, b *models.Budget) (*models.BudgetAggregate, error) {
	if b.FromDate.After(b.ToDate) {
		return nil, ErrInvalidPeriod
	}
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	b.Amount = money.Normalize(b.Amount)
	now := time.Now()
	b.CreatedAt = now
	b.UpdatedAt = now

	if err := a.budgets.Create(ctx, b); err != nil {
		return nil, fmt.Errorf("create budget: %w", err)
	}

	unlock := a.locks.Lock(b.ID)
	defer unlock()

	agg, err := a.recomputeAggregate(ctx, b)
	if err != nil {
		return nil, err
	}

	a.logger.Info("budget created",
		zap.String("budget_id", b.ID),
		zap.String("user_id", b.UserID),
	)
	return agg, nil
}

// UpdateBudget applies the partial changes, then rebuilds the aggregate
// over the (possibly new) period using the budget's original user scope.
// The aggregate is replaced wholesale rather than merged, so stale prior
// totals cannot drift in.
func (a *Aggregator) UpdateBudget(ctx context.Context, budgetID string, changes BudgetChanges) (*models.Budget, error) {
	b, err := a.budgets.Get(ctx, budgetID)
	if err != nil {
		return nil, err
	}

	if changes.Title != nil {
		b.Title = *changes.Title
	}
	if changes.Amount != nil {
		b.Amount = money.Normalize(*changes.Amount)
	}
	if changes.FromDate != nil {
		b.FromDate = *changes.FromDate
	}
	if changes.ToDate != nil {
		b.ToDate = *changes.ToDate
	}
	if b.FromDate.After(b.ToDate) {
		return nil, ErrInvalidPeriod
	}
	b.UpdatedAt = time.Now()

	if err := a.budgets.Update(ctx, b); err != nil {
		return nil, fmt.Errorf("update budget: %w", err)
	}

	unlock := a.locks.Lock(b.ID)
	defer unlock()

	if _, err := a.recomputeAggregate(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// DeleteBudget removes the budget and its aggregate and releases the
// membership stamps on its transactions. Ledger entries themselves are
// untouched. Deleting an absent budget is a no-op.
func (a *Aggregator) DeleteBudget(ctx context.Context, budgetID string) error {
	unlock := a.locks.Lock(budgetID)
	defer unlock()

	if err := a.budgets.Delete(ctx, budgetID); err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	if err := a.aggregates.Delete(ctx, budgetID); err != nil && !errors.Is(err, ErrAggregateNotFound) {
		return fmt.Errorf("delete aggregate: %w", err)
	}
	if err := a.ledger.ClearBudget(ctx, budgetID); err != nil {
		return fmt.Errorf("release transactions: %w", err)
	}
	return nil
}

// CreateTransaction inserts the transaction into the ledger, stamped with
// the budget its date resolves to, and adds its amount to that budget's
// category total. A transaction matching no budget only touches the ledger.
func (a *Aggregator) CreateTransaction(ctx context.Context, txn *models.Transaction) error {
	txn.Amount = money.Normalize(txn.Amount)
	now := time.Now()
	txn.CreatedAt = now
	txn.UpdatedAt = now

	budget, err := a.ResolveBudget(ctx, txn.UserID, txn.Date)
	if err != nil {
		return err
	}
	if budget != nil {
		txn.BudgetID = &budget.ID
	}

	if err := a.ledger.Upsert(ctx, txn); err != nil {
		return fmt.Errorf("upsert transaction: %w", err)
	}

	if budget == nil {
		return nil
	}

	unlock := a.locks.Lock(budget.ID)
	defer unlock()

	delta := map[models.Category]decimal.Decimal{txn.Category: txn.Amount}
	if err := a.aggregates.ApplyDelta(ctx, budget.ID, txn.UserID, delta); err != nil {
		return fmt.Errorf("apply aggregate delta: %w", err)
	}
	a.metrics.RecordAggregateDelta("create")
	return nil
}

// UpdateTransactionCategory moves the transaction's amount from its old
// category bucket to the new one within the stamped budget's aggregate.
// When the transaction matches no budget, or the aggregate is missing, the
// ledger row is still updated and the aggregate step is skipped.
func (a *Aggregator) UpdateTransactionCategory(ctx context.Context, transactionID string, category models.Category) error {
	txn, err := a.ledger.Get(ctx, transactionID)
	if err != nil {
		return err
	}

	if err := a.ledger.UpdateCategory(ctx, transactionID, category); err != nil {
		return fmt.Errorf("update transaction category: %w", err)
	}

	if txn.BudgetID == nil || txn.Category == category {
		return nil
	}

	unlock := a.locks.Lock(*txn.BudgetID)
	defer unlock()

	if _, err := a.aggregates.Get(ctx, *txn.BudgetID); err != nil {
		if errors.Is(err, ErrAggregateNotFound) {
			a.logger.Warn("aggregate missing on category update, skipping",
				zap.String("budget_id", *txn.BudgetID),
				zap.String("transaction_id", transactionID),
			)
			return nil
		}
		return err
	}

	delta := map[models.Category]decimal.Decimal{
		txn.Category: txn.Amount.Neg(),
		category:     txn.Amount,
	}
	if err := a.aggregates.ApplyDelta(ctx, *txn.BudgetID, txn.UserID, delta); err != nil {
		return fmt.Errorf("apply aggregate delta: %w", err)
	}
	a.metrics.RecordAggregateDelta("update")
	return nil
}

// DeleteTransaction subtracts the transaction's amount from its stamped
// budget's category total, then removes the ledger row.
func (a *Aggregator) DeleteTransaction(ctx context.Context, transactionID string) error {
	txn, err := a.ledger.Get(ctx, transactionID)
	if err != nil {
		return err
	}

	if txn.BudgetID != nil {
		unlock := a.locks.Lock(*txn.BudgetID)
		if _, err := a.aggregates.Get(ctx, *txn.BudgetID); err == nil {
			delta := map[models.Category]decimal.Decimal{txn.Category: txn.Amount.Neg()}
			if err := a.aggregates.ApplyDelta(ctx, *txn.BudgetID, txn.UserID, delta); err != nil {
				unlock()
				return fmt.Errorf("apply aggregate delta: %w", err)
			}
			a.metrics.RecordAggregateDelta("delete")
		} else if !errors.Is(err, ErrAggregateNotFound) {
			unlock()
			return err
		}
		unlock()
	}

	if err := a.ledger.Delete(ctx, transactionID); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// ApplyBatchDeltas merges per-budget category deltas accumulated by a bulk
// sync, serializing on each budget in turn. Zero deltas are dropped.
func (a *Aggregator) ApplyBatchDeltas(ctx context.Context, userID string, deltas map[string]map[models.Category]decimal.Decimal) error {
	for budgetID, delta := range deltas {
		nonZero := make(map[models.Category]decimal.Decimal, len(delta))
		for c, d := range delta {
			if !d.IsZero() {
				nonZero[c] = money.Normalize(d)
			}
		}
		if len(nonZero) == 0 {
			continue
		}

		unlock := a.locks.Lock(budgetID)
		err := a.aggregates.ApplyDelta(ctx, budgetID, userID, nonZero)
		unlock()
		if err != nil {
			return fmt.Errorf("apply aggregate delta for budget %s: %w", budgetID, err)
		}
		a.metrics.RecordAggregateDelta("sync")
	}
	return nil
}

// ResolveBudget decides which single budget, if any, a transaction dated
// date counts against. Among the user's budgets whose period contains the
// date, the shortest period wins; ties break on the smaller id, so the
// outcome never depends on store ordering.
func (a *Aggregator) ResolveBudget(ctx context.Context, userID string, date time.Time) (*models.Budget, error) {
	budgets, err := a.budgets.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}

	var match *models.Budget
	for _, b := range budgets {
		if !b.Contains(date) {
			continue
		}
		if match == nil ||
			b.PeriodDays() < match.PeriodDays() ||
			(b.PeriodDays() == match.PeriodDays() && b.ID < match.ID) {
			match = b
		}
	}
	return match, nil
}

// RecomputeTotals is the authoritative re-derivation: it zero-initializes
// every category and sums the amounts of all the user's ledger entries
// dated within [from, to]. Transactions carrying a category outside the
// fixed set are bucketed under Other.
func (a *Aggregator) RecomputeTotals(ctx context.Context, userID string, from, to time.Time) (map[models.Category]decimal.Decimal, []*models.Transaction, error) {
	start := time.Now()
	txns, err := a.ledger.ListByUserDateRange(ctx, userID, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("query ledger: %w", err)
	}

	totals := models.ZeroTotals()
	for _, txn := range txns {
		cat := txn.Category
		if !cat.IsValid() {
			cat = models.CategoryOther
		}
		totals[cat] = money.Add(totals[cat], money.Normalize(txn.Amount))
	}

	a.metrics.ObserveRecompute(time.Since(start), len(txns))
	return totals, txns, nil
}

// recomputeAggregate rebuilds and stores b's aggregate wholesale, then
// refreshes membership stamps: in-range transactions that are unassigned
// (or already ours) are claimed, and rows stamped to b whose dates fell out
// of the period are released. Callers hold the budget's lock.
func (a *Aggregator) recomputeAggregate(ctx context.Context, b *models.Budget) (*models.BudgetAggregate, error) {
	totals, txns, err := a.RecomputeTotals(ctx, b.UserID, b.FromDate, b.ToDate)
	if err != nil {
		return nil, err
	}

	agg := &models.BudgetAggregate{
		BudgetID:       b.ID,
		UserID:         b.UserID,
		CategoryTotals: totals,
	}
	if err := a.aggregates.Replace(ctx, agg); err != nil {
		return nil, fmt.Errorf("replace aggregate: %w", err)
	}

	var claim []string
	for _, txn := range txns {
		if txn.BudgetID == nil {
			claim = append(claim, txn.ID)
		}
	}
	if len(claim) > 0 {
		if err := a.ledger.AssignBudget(ctx, claim, &b.ID); err != nil {
			return nil, fmt.Errorf("stamp transactions: %w", err)
		}
	}

	stamped, err := a.ledger.ListByBudget(ctx, b.ID)
	if err != nil {
		return nil, fmt.Errorf("list stamped transactions: %w", err)
	}
	var release []string
	for _, txn := range stamped {
		if !b.Contains(txn.Date) {
			release = append(release, txn.ID)
		}
	}
	if len(release) > 0 {
		if err := a.ledger.AssignBudget(ctx, release, nil); err != nil {
			return nil, fmt.Errorf("release transactions: %w", err)
		}
	}

	return agg, nil
}
