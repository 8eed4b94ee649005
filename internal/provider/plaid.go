// Package provider implements the Plaid-shaped HTTP client used to pull
// externally-sourced transactions for bulk sync.
package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"fintrack/internal/metrics"
	"fintrack/pkg/config"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// pageSize is the count requested per transactions/get call.
const pageSize = 500

// Transaction is one provider row as returned by transactions/get.
type Transaction struct {
	TransactionID           string  `json:"transaction_id"`
	Amount                  float64 `json:"amount"`
	Name                    string  `json:"name"`
	Date                    string  `json:"date"`
	PersonalFinanceCategory struct {
		Primary string `json:"primary"`
	} `json:"personal_finance_category"`
}

// RawCategory returns the provider's primary category label, empty when the
// provider sent none.
func (t Transaction) RawCategory() string {
	return t.PersonalFinanceCategory.Primary
}

// PlaidClient talks to the Plaid REST API. All calls run through a circuit
// breaker so a misbehaving provider fails fast instead of tying up handlers.
type PlaidClient struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client
	cb         *gobreaker.CircuitBreaker
	metrics    metrics.Collector
	logger     *zap.Logger
}

func NewPlaidClient(cfg *config.PlaidConfig, collector metrics.Collector, logger *zap.Logger) *PlaidClient {
	if collector == nil {
		collector = metrics.NoOp{}
	}

	settings := gobreaker.Settings{
		Name:    "plaid",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("provider circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	}

	return &PlaidClient{
		baseURL:    cfg.BaseURL,
		clientID:   cfg.ClientID,
		secret:     cfg.Secret,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		cb:         gobreaker.NewCircuitBreaker(settings),
		metrics:    collector,
		logger:     logger,
	}
}

// CreateLinkToken starts a link flow for the given user.
func (c *PlaidClient) CreateLinkToken(ctx context.Context, userID string) (string, error) {
	body := map[string]interface{}{
		"client_id":     c.clientID,
		"secret":        c.secret,
		"user":          map[string]string{"client_user_id": userID},
		"client_name":   "fintrack",
		"products":      []string{"transactions"},
		"country_codes": []string{"US"},
		"language":      "en",
	}

	var resp struct {
		LinkToken string `json:"link_token"`
	}
	if err := c.post(ctx, "/link/token/create", body, &resp); err != nil {
		return "", fmt.Errorf("create link token: %w", err)
	}

	return resp.LinkToken, nil
}

// ExchangePublicToken swaps a public token from the link flow for a
// long-lived access token.
func (c *PlaidClient) ExchangePublicToken(ctx context.Context, publicToken string) (string, error) {
	body := map[string]interface{}{
		"client_id":    c.clientID,
		"secret":       c.secret,
		"public_token": publicToken,
	}

	var resp struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.post(ctx, "/item/public_token/exchange", body, &resp); err != nil {
		return "", fmt.Errorf("exchange public token: %w", err)
	}

	return resp.AccessToken, nil
}

// GetTransactions pulls the trailing 365 days of transactions for the item,
// paging until the provider's reported total is reached.
func (c *PlaidClient) GetTransactions(ctx context.Context, accessToken string) ([]Transaction, error) {
	endDate := time.Now()
	startDate := endDate.AddDate(-1, 0, 0)

	var all []Transaction
	offset := 0
	for {
		body := map[string]interface{}{
			"client_id":    c.clientID,
			"secret":       c.secret,
			"access_token": accessToken,
			"start_date":   startDate.Format("2006-01-02"),
			"end_date":     endDate.Format("2006-01-02"),
			"options": map[string]int{
				"count":  pageSize,
				"offset": offset,
			},
		}

		var resp struct {
			Transactions      []Transaction `json:"transactions"`
			TotalTransactions int           `json:"total_transactions"`
		}
		if err := c.post(ctx, "/transactions/get", body, &resp); err != nil {
			return nil, fmt.Errorf("get transactions at offset %d: %w", offset, err)
		}

		all = append(all, resp.Transactions...)
		offset += len(resp.Transactions)
		if offset >= resp.TotalTransactions || len(resp.Transactions) == 0 {
			break
		}
	}

	c.logger.Info("provider transactions fetched", zap.Int("count", len(all)))
	return all, nil
}

func (c *PlaidClient) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	start := time.Now()

	_, err := c.cb.Execute(func() (interface{}, error) {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			raw, _ := io.ReadAll(resp.Body)
			return nil, fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(raw))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}

		return nil, nil
	})

	c.metrics.RecordProviderRequest(err == nil, time.Since(start))
	if err != nil {
		c.logger.Error("provider request failed",
			zap.String("path", path),
			zap.Error(err),
		)
	}

	return err
}
