package api

import (
	"fintrack/internal/api/handlers"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(
	userHandler *handlers.UserHandler,
	budgetHandler *handlers.BudgetHandler,
	transactionHandler *handlers.TransactionHandler,
	plaidHandler *handlers.PlaidHandler,
	registry *prometheus.Registry,
) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept",
	}))
	app.Use(logger.New())

	if registry != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	}

	api := app.Group("/api")

	api.Post("/register", userHandler.Register)
	users := api.Group("/users")
	users.Get("", userHandler.List)
	users.Get("/:userId", userHandler.Get)
	users.Delete("/:userId", userHandler.Delete)

	budgets := api.Group("/budgets")
	budgets.Post("", budgetHandler.Create)
	budgets.Get("", budgetHandler.ListByUser)
	budgets.Get("/:budgetId", budgetHandler.Get)
	budgets.Patch("/:budgetId", budgetHandler.Update)
	budgets.Delete("/:budgetId", budgetHandler.Delete)

	transactions := api.Group("/transactions")
	transactions.Post("", transactionHandler.CreateBatch)
	transactions.Get("", transactionHandler.ListByUser)
	transactions.Get("/by-budget", transactionHandler.ListByDateRange)
	transactions.Patch("/:transactionId", transactionHandler.UpdateCategory)
	transactions.Delete("/:transactionId", transactionHandler.Delete)

	api.Get("/budget-transactions", budgetHandler.ListAggregates)

	plaid := api.Group("/plaid")
	plaid.Post("/create_link_token", plaidHandler.CreateLinkToken)
	plaid.Post("/exchange_public_token", plaidHandler.ExchangePublicToken)
	plaid.Post("/get_transactions", plaidHandler.GetTransactions)

	return app
}
