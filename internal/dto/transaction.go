package dto

import (
	"github.com/shopspring/decimal"
)

type TransactionRecord struct {
	UserID        string          `json:"userId"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	Description   string          `json:"description"`
	Date          string          `json:"date"`
	Category      string          `json:"category"`
}

type CreateTransactionsRequest struct {
	Transactions []TransactionRecord `json:"transactions"`
}

type UpdateTransactionRequest struct {
	Category string `json:"category"`
}

type TransactionResponse struct {
	ID          string          `json:"id"`
	UserID      string          `json:"userId"`
	BudgetID    *string         `json:"budgetId,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Date        string          `json:"date"`
	Category    string          `json:"category"`
}
