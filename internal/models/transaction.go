package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transaction is a single ledger entry. The ID is an opaque string: either
// a client-supplied id for manual entries or the provider's stable
// transaction id for synced ones, which is what makes re-syncing upsert
// instead of duplicate.
//
// BudgetID caches the budget this transaction counts against, resolved once
// when the transaction enters the ledger. Nil means no budget period
// contained the transaction's date at that time.
type Transaction struct {
	ID          string          `db:"id"`
	UserID      string          `db:"user_id"`
	BudgetID    *string         `db:"budget_id"`
	Amount      decimal.Decimal `db:"amount"`
	Description string          `db:"description"`
	Date        time.Time       `db:"date"`
	Category    Category        `db:"category"`
	CreatedAt   time.Time       `db:"created_at"`
	UpdatedAt   time.Time       `db:"updated_at"`
}
