package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Budget is a time-boxed spending target. FromDate and ToDate form an
// inclusive calendar-date range, FromDate <= ToDate. Budgets of the same
// user may overlap; the membership tie-break lives in the aggregation
// engine.
type Budget struct {
	ID        string          `db:"id"`
	UserID    string          `db:"user_id"`
	Title     string          `db:"title"`
	Amount    decimal.Decimal `db:"amount"`
	FromDate  time.Time       `db:"from_date"`
	ToDate    time.Time       `db:"to_date"`
	CreatedAt time.Time       `db:"created_at"`
	UpdatedAt time.Time       `db:"updated_at"`
}

// Contains reports whether date falls inside the budget's inclusive period.
func (b *Budget) Contains(date time.Time) bool {
	return !date.Before(b.FromDate) && !date.After(b.ToDate)
}

// PeriodDays is the period length in days, used as the membership
// tie-break between overlapping budgets.
func (b *Budget) PeriodDays() int {
	return int(b.ToDate.Sub(b.FromDate).Hours()/24) + 1
}

// BudgetAggregate holds the derived per-category spend totals for one
// budget. It is co-created with the budget and replaced wholesale on every
// recompute.
type BudgetAggregate struct {
	BudgetID       string
	UserID         string
	CategoryTotals map[Category]decimal.Decimal
}

// NewBudgetAggregate returns an aggregate with every category zeroed.
func NewBudgetAggregate(budgetID, userID string) *BudgetAggregate {
	return &BudgetAggregate{
		BudgetID:       budgetID,
		UserID:         userID,
		CategoryTotals: ZeroTotals(),
	}
}

// ZeroTotals returns a fresh totals map with every category present at 0.
func ZeroTotals() map[Category]decimal.Decimal {
	totals := make(map[Category]decimal.Decimal, len(Categories()))
	for _, c := range Categories() {
		totals[c] = decimal.Zero
	}
	return totals
}

// Total sums every category bucket.
func (a *BudgetAggregate) Total() decimal.Decimal {
	sum := decimal.Zero
	for _, v := range a.CategoryTotals {
		sum = sum.Add(v)
	}
	return sum
}
