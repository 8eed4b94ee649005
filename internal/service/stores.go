package service

import (
	"context"
	"time"

	"fintrack/internal/models"

	"github.com/shopspring/decimal"
)

// Ledger is the authoritative store of individual transactions. Rows are
// keyed by an opaque string id; Upsert semantics on that id are what make
// provider re-syncs overwrite instead of duplicate.
type Ledger interface {
	Get(ctx context.Context, id string) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Transaction, error)
	// ListByUserDateRange returns the user's transactions with date in
	// [from, to], both bounds inclusive.
	ListByUserDateRange(ctx context.Context, userID string, from, to time.Time) ([]*models.Transaction, error)
	ListByBudget(ctx context.Context, budgetID string) ([]*models.Transaction, error)
	Upsert(ctx context.Context, txn *models.Transaction) error
	UpsertBatch(ctx context.Context, txns []*models.Transaction) error
	UpdateCategory(ctx context.Context, id string, category models.Category) error
	// AssignBudget stamps budgetID (nil to unstamp) on the given rows.
	AssignBudget(ctx context.Context, ids []string, budgetID *string) error
	// ClearBudget unstamps every row pointing at budgetID.
	ClearBudget(ctx context.Context, budgetID string) error
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// BudgetStore holds budget definitions.
type BudgetStore interface {
	Get(ctx context.Context, id string) (*models.Budget, error)
	// ListByUser returns the user's budgets ordered by fromDate descending.
	ListByUser(ctx context.Context, userID string) ([]*models.Budget, error)
	Create(ctx context.Context, b *models.Budget) error
	Update(ctx context.Context, b *models.Budget) error
	// Delete is idempotent: deleting an absent budget is a no-op.
	Delete(ctx context.Context, id string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// AggregateStore holds the derived per-category totals, one document per
// budget. ApplyDelta must be an atomic increment on each category bucket,
// never a whole-map read-modify-write.
type AggregateStore interface {
	Get(ctx context.Context, budgetID string) (*models.BudgetAggregate, error)
	ListByUser(ctx context.Context, userID string) ([]*models.BudgetAggregate, error)
	// Replace swaps in the aggregate wholesale, discarding prior totals.
	Replace(ctx context.Context, agg *models.BudgetAggregate) error
	// ApplyDelta increments each category bucket by the given signed
	// amount, creating buckets (and the aggregate) as needed.
	ApplyDelta(ctx context.Context, budgetID, userID string, delta map[models.Category]decimal.Decimal) error
	Delete(ctx context.Context, budgetID string) error
	DeleteByUser(ctx context.Context, userID string) error
}

// UserStore holds registered users.
type UserStore interface {
	Get(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context) ([]*models.User, error)
	Create(ctx context.Context, u *models.User) error
	Delete(ctx context.Context, id string) error
}
