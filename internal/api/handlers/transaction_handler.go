package handlers

import (
	"errors"
	"fmt"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

type TransactionHandler struct {
	engine *service.Aggregator
	ledger service.Ledger
	logger *zap.Logger
}

func NewTransactionHandler(engine *service.Aggregator, ledger service.Ledger, logger *zap.Logger) *TransactionHandler {
	return &TransactionHandler{
		engine: engine,
		ledger: ledger,
		logger: logger,
	}
}

// CreateBatch records a batch of transactions. Validation runs over the
// whole batch before anything is written.
func (h *TransactionHandler) CreateBatch(c *fiber.Ctx) error {
	var req dto.CreateTransactionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if len(req.Transactions) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Transactions array is required",
		})
	}

	txns := make([]*models.Transaction, 0, len(req.Transactions))
	for _, rec := range req.Transactions {
		if rec.UserID == "" || rec.TransactionID == "" || rec.Description == "" || rec.Date == "" || rec.Category == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Missing required fields in transaction %s", rec.TransactionID),
			})
		}
		date, err := time.Parse(dateLayout, rec.Date)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": fmt.Sprintf("Invalid date in transaction %s", rec.TransactionID),
			})
		}
		txns = append(txns, &models.Transaction{
			ID:          rec.TransactionID,
			UserID:      rec.UserID,
			Amount:      rec.Amount,
			Description: rec.Description,
			Date:        date,
			Category:    models.Category(rec.Category),
		})
	}

	for _, txn := range txns {
		if err := h.engine.CreateTransaction(c.Context(), txn); err != nil {
			h.logger.Error("transaction creation failed",
				zap.Error(err),
				zap.String("transaction_id", txn.ID),
			)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to record transactions",
			})
		}
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Transactions added successfully and budgets updated",
	})
}

func (h *TransactionHandler) UpdateCategory(c *fiber.Ctx) error {
	var req dto.UpdateTransactionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Category == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing category",
		})
	}

	transactionID := c.Params("transactionId")
	err := h.engine.UpdateTransactionCategory(c.Context(), transactionID, models.Category(req.Category))
	if err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Transaction not found",
			})
		}
		h.logger.Error("transaction update failed", zap.Error(err), zap.String("transaction_id", transactionID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update transaction",
		})
	}

	return c.JSON(fiber.Map{"message": "Transaction updated"})
}

func (h *TransactionHandler) Delete(c *fiber.Ctx) error {
	transactionID := c.Params("transactionId")
	if err := h.engine.DeleteTransaction(c.Context(), transactionID); err != nil {
		if errors.Is(err, service.ErrTransactionNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Transaction not found",
			})
		}
		h.logger.Error("transaction deletion failed", zap.Error(err), zap.String("transaction_id", transactionID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete transaction",
		})
	}
	return c.JSON(fiber.Map{"message": "Transaction deleted"})
}

func (h *TransactionHandler) ListByUser(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing userId",
		})
	}

	txns, err := h.ledger.ListByUser(c.Context(), userID)
	if err != nil {
		h.logger.Error("list transactions failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list transactions",
		})
	}

	return c.JSON(toTransactionResponses(txns))
}

// ListByDateRange returns the user's transactions dated within
// [fromDate, toDate].
func (h *TransactionHandler) ListByDateRange(c *fiber.Ctx) error {
	userID := c.Query("userId")
	fromDate := c.Query("fromDate")
	toDate := c.Query("toDate")
	if userID == "" || fromDate == "" || toDate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing userId, fromDate or toDate",
		})
	}

	from, err := time.Parse(dateLayout, fromDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid fromDate",
		})
	}
	to, err := time.Parse(dateLayout, toDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid toDate",
		})
	}

	txns, err := h.ledger.ListByUserDateRange(c.Context(), userID, from, to)
	if err != nil {
		h.logger.Error("list transactions by range failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list transactions",
		})
	}

	return c.JSON(toTransactionResponses(txns))
}

func toTransactionResponses(txns []*models.Transaction) []dto.TransactionResponse {
	out := make([]dto.TransactionResponse, 0, len(txns))
	for _, txn := range txns {
		out = append(out, dto.TransactionResponse{
			ID:          txn.ID,
			UserID:      txn.UserID,
			BudgetID:    txn.BudgetID,
			Amount:      txn.Amount,
			Description: txn.Description,
			Date:        txn.Date.Format(dateLayout),
			Category:    string(txn.Category),
		})
	}
	return out
}
