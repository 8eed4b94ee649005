package handlers

import (
	"errors"
	"time"

	"fintrack/internal/dto"
	"fintrack/internal/models"
	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

type BudgetHandler struct {
	engine     *service.Aggregator
	budgets    service.BudgetStore
	aggregates service.AggregateStore
	logger     *zap.Logger
}

func NewBudgetHandler(
	engine *service.Aggregator,
	budgets service.BudgetStore,
	aggregates service.AggregateStore,
	logger *zap.Logger,
) *BudgetHandler {
	return &BudgetHandler{
		engine:     engine,
		budgets:    budgets,
		aggregates: aggregates,
		logger:     logger,
	}
}

func (h *BudgetHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateBudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.UserID == "" || req.Title == "" || req.FromDate == "" || req.ToDate == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing userId, title, fromDate or toDate",
		})
	}

	fromDate, err := time.Parse(dateLayout, req.FromDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid fromDate",
		})
	}
	toDate, err := time.Parse(dateLayout, req.ToDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid toDate",
		})
	}

	budget := &models.Budget{
		UserID:   req.UserID,
		Title:    req.Title,
		Amount:   req.Amount,
		FromDate: fromDate,
		ToDate:   toDate,
	}

	agg, err := h.engine.CreateBudget(c.Context(), budget)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPeriod) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "fromDate must not be after toDate",
			})
		}
		h.logger.Error("budget creation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create budget",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(toAggregateResponse(budget, agg))
}

func (h *BudgetHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateBudgetRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	changes := service.BudgetChanges{
		Title:  req.Title,
		Amount: req.Amount,
	}
	if req.FromDate != nil {
		fromDate, err := time.Parse(dateLayout, *req.FromDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid fromDate",
			})
		}
		changes.FromDate = &fromDate
	}
	if req.ToDate != nil {
		toDate, err := time.Parse(dateLayout, *req.ToDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "Invalid toDate",
			})
		}
		changes.ToDate = &toDate
	}

	budget, err := h.engine.UpdateBudget(c.Context(), c.Params("budgetId"), changes)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrBudgetNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Budget not found",
			})
		case errors.Is(err, service.ErrInvalidPeriod):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "fromDate must not be after toDate",
			})
		}
		h.logger.Error("budget update failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to update budget",
		})
	}

	return c.JSON(toBudgetResponse(budget))
}

func (h *BudgetHandler) Delete(c *fiber.Ctx) error {
	budgetID := c.Params("budgetId")
	if err := h.engine.DeleteBudget(c.Context(), budgetID); err != nil {
		h.logger.Error("budget deletion failed", zap.Error(err), zap.String("budget_id", budgetID))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to delete budget",
		})
	}
	return c.JSON(fiber.Map{"message": "Budget deleted"})
}

func (h *BudgetHandler) ListByUser(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing userId",
		})
	}

	budgets, err := h.budgets.ListByUser(c.Context(), userID)
	if err != nil {
		h.logger.Error("list budgets failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list budgets",
		})
	}

	out := make([]dto.BudgetResponse, 0, len(budgets))
	for _, b := range budgets {
		out = append(out, toBudgetResponse(b))
	}
	return c.JSON(out)
}

func (h *BudgetHandler) Get(c *fiber.Ctx) error {
	budget, err := h.budgets.Get(c.Context(), c.Params("budgetId"))
	if err != nil {
		if errors.Is(err, service.ErrBudgetNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Budget not found",
			})
		}
		h.logger.Error("get budget failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to get budget",
		})
	}
	return c.JSON(toBudgetResponse(budget))
}

// ListAggregates returns the user's budgets joined with their per-category
// totals.
func (h *BudgetHandler) ListAggregates(c *fiber.Ctx) error {
	userID := c.Query("userId")
	if userID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing userId",
		})
	}

	aggregates, err := h.aggregates.ListByUser(c.Context(), userID)
	if err != nil {
		h.logger.Error("list aggregates failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list budget totals",
		})
	}

	out := make([]dto.AggregateResponse, 0, len(aggregates))
	for _, agg := range aggregates {
		budget, err := h.budgets.Get(c.Context(), agg.BudgetID)
		if err != nil {
			if errors.Is(err, service.ErrBudgetNotFound) {
				continue
			}
			h.logger.Error("get budget for aggregate failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to list budget totals",
			})
		}
		out = append(out, toAggregateResponse(budget, agg))
	}
	return c.JSON(out)
}

func toBudgetResponse(b *models.Budget) dto.BudgetResponse {
	return dto.BudgetResponse{
		ID:       b.ID,
		UserID:   b.UserID,
		Title:    b.Title,
		Amount:   b.Amount,
		FromDate: b.FromDate.Format(dateLayout),
		ToDate:   b.ToDate.Format(dateLayout),
	}
}

func toAggregateResponse(b *models.Budget, agg *models.BudgetAggregate) dto.AggregateResponse {
	totals := make(map[string]decimal.Decimal, len(agg.CategoryTotals))
	for category, total := range agg.CategoryTotals {
		totals[string(category)] = total
	}
	return dto.AggregateResponse{
		BudgetID:       b.ID,
		UserID:         b.UserID,
		Title:          b.Title,
		Amount:         b.Amount,
		FromDate:       b.FromDate.Format(dateLayout),
		ToDate:         b.ToDate.Format(dateLayout),
		CategoryTotals: totals,
	}
}
