package handlers

import (
	"fintrack/internal/amqp"
	"fintrack/internal/dto"
	"fintrack/internal/provider"
	"fintrack/internal/service"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// PlaidHandler fronts the provider flows: link-token creation, public-token
// exchange, and the transaction pull that feeds the bulk sync. When an AMQP
// queue is configured the pull can run asynchronously on the worker.
type PlaidHandler struct {
	plaid  *provider.PlaidClient
	sync   *service.SyncCoordinator
	queue  *amqp.Client
	logger *zap.Logger
}

func NewPlaidHandler(
	plaid *provider.PlaidClient,
	sync *service.SyncCoordinator,
	queue *amqp.Client,
	logger *zap.Logger,
) *PlaidHandler {
	return &PlaidHandler{
		plaid:  plaid,
		sync:   sync,
		queue:  queue,
		logger: logger,
	}
}

func (h *PlaidHandler) CreateLinkToken(c *fiber.Ctx) error {
	var req dto.CreateLinkTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing userId",
		})
	}

	linkToken, err := h.plaid.CreateLinkToken(c.Context(), req.UserID)
	if err != nil {
		h.logger.Error("link token creation failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to create link token",
		})
	}

	return c.JSON(fiber.Map{"link_token": linkToken})
}

func (h *PlaidHandler) ExchangePublicToken(c *fiber.Ctx) error {
	var req dto.ExchangePublicTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	accessToken, err := h.plaid.ExchangePublicToken(c.Context(), req.PublicToken)
	if err != nil {
		h.logger.Error("token exchange failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to exchange token",
		})
	}

	return c.JSON(fiber.Map{"access_token": accessToken})
}

// GetTransactions pulls the trailing year of provider transactions and folds
// them into the ledger and aggregates. With async set and a queue available,
// the request is enqueued for the worker instead.
func (h *PlaidHandler) GetTransactions(c *fiber.Ctx) error {
	var req dto.GetTransactionsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.AccessToken == "" || req.UserID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Missing access_token or userId",
		})
	}

	if req.Async && h.queue != nil {
		msg := amqp.NewSyncRequestMessage(req.UserID, req.AccessToken)
		if err := h.queue.PublishSyncRequest(c.Context(), msg); err != nil {
			h.logger.Error("sync enqueue failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Failed to enqueue sync",
			})
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": true})
	}

	provided, err := h.plaid.GetTransactions(c.Context(), req.AccessToken)
	if err != nil {
		h.logger.Error("provider fetch failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch transactions",
		})
	}

	records, err := provider.ToSyncRecords(provided)
	if err != nil {
		h.logger.Error("provider records invalid", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch transactions",
		})
	}

	result, err := h.sync.Sync(c.Context(), req.UserID, records)
	if err != nil {
		h.logger.Error("sync failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to sync transactions",
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"result":  result,
	})
}
