package dto

import (
	"github.com/shopspring/decimal"
)

// Dates travel as YYYY-MM-DD strings.
type CreateBudgetRequest struct {
	UserID   string          `json:"userId"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	FromDate string          `json:"fromDate"`
	ToDate   string          `json:"toDate"`
}

type UpdateBudgetRequest struct {
	Title    *string          `json:"title"`
	Amount   *decimal.Decimal `json:"amount"`
	FromDate *string          `json:"fromDate"`
	ToDate   *string          `json:"toDate"`
}

type BudgetResponse struct {
	ID       string          `json:"id"`
	UserID   string          `json:"userId"`
	Title    string          `json:"title"`
	Amount   decimal.Decimal `json:"amount"`
	FromDate string          `json:"fromDate"`
	ToDate   string          `json:"toDate"`
}

// AggregateResponse carries a budget's per-category totals together with the
// budget fields clients render next to them.
type AggregateResponse struct {
	BudgetID       string                     `json:"budgetId"`
	UserID         string                     `json:"userId"`
	Title          string                     `json:"title"`
	Amount         decimal.Decimal            `json:"amount"`
	FromDate       string                     `json:"fromDate"`
	ToDate         string                     `json:"toDate"`
	CategoryTotals map[string]decimal.Decimal `json:"categoryTotals"`
}
