package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"fintrack/pkg/config"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *PlaidClient {
	cfg := &config.PlaidConfig{
		BaseURL:        baseURL,
		ClientID:       "client-id",
		Secret:         "secret",
		RequestTimeout: 5 * time.Second,
	}
	return NewPlaidClient(cfg, nil, zap.NewNop())
}

func TestCreateLinkToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/link/token/create" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body["client_id"] != "client-id" {
			t.Errorf("client_id = %v", body["client_id"])
		}
		user, _ := body["user"].(map[string]interface{})
		if user["client_user_id"] != "u1" {
			t.Errorf("client_user_id = %v", user["client_user_id"])
		}
		json.NewEncoder(w).Encode(map[string]string{"link_token": "link-abc"})
	}))
	defer srv.Close()

	token, err := newTestClient(srv.URL).CreateLinkToken(context.Background(), "u1")
	if err != nil {
		t.Fatalf("CreateLinkToken: %v", err)
	}
	if token != "link-abc" {
		t.Errorf("token = %q, want link-abc", token)
	}
}

func TestExchangePublicToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/item/public_token/exchange" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(map[string]string{"access_token": "access-xyz"})
	}))
	defer srv.Close()

	token, err := newTestClient(srv.URL).ExchangePublicToken(context.Background(), "public-123")
	if err != nil {
		t.Fatalf("ExchangePublicToken: %v", err)
	}
	if token != "access-xyz" {
		t.Errorf("token = %q, want access-xyz", token)
	}
}

func TestGetTransactionsPaging(t *testing.T) {
	const total = 3
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Options struct {
				Count  int `json:"count"`
				Offset int `json:"offset"`
			} `json:"options"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}

		// One row per page to force the client to page through.
		var page []Transaction
		if body.Options.Offset < total {
			txn := Transaction{
				TransactionID: fmt.Sprintf("txn-%d", body.Options.Offset),
				Amount:        10.50,
				Name:          "coffee",
				Date:          "2025-01-05",
			}
			txn.PersonalFinanceCategory.Primary = "FOOD_AND_DRINK"
			page = append(page, txn)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"transactions":       page,
			"total_transactions": total,
		})
	}))
	defer srv.Close()

	txns, err := newTestClient(srv.URL).GetTransactions(context.Background(), "access-xyz")
	if err != nil {
		t.Fatalf("GetTransactions: %v", err)
	}
	if len(txns) != total {
		t.Fatalf("got %d transactions, want %d", len(txns), total)
	}
	if txns[2].TransactionID != "txn-2" {
		t.Errorf("last id = %s, want txn-2", txns[2].TransactionID)
	}
	if txns[0].RawCategory() != "FOOD_AND_DRINK" {
		t.Errorf("raw category = %s", txns[0].RawCategory())
	}
}

func TestCircuitBreakerOpensAfterFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if _, err := client.CreateLinkToken(ctx, "u1"); err == nil {
			t.Fatalf("call %d unexpectedly succeeded", i)
		}
	}

	_, err := client.CreateLinkToken(ctx, "u1")
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open breaker, got %v", err)
	}
}

func TestToSyncRecords(t *testing.T) {
	txn := Transaction{
		TransactionID: "p1",
		Amount:        12.345,
		Name:          "groceries",
		Date:          "2025-02-10",
	}
	txn.PersonalFinanceCategory.Primary = "GENERAL_MERCHANDISE"

	records, err := ToSyncRecords([]Transaction{txn})
	if err != nil {
		t.Fatalf("ToSyncRecords: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records", len(records))
	}
	rec := records[0]
	if rec.ProviderID != "p1" || rec.RawCategory != "GENERAL_MERCHANDISE" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Date.Format("2006-01-02") != "2025-02-10" {
		t.Errorf("date = %s", rec.Date)
	}

	txn.Date = "not-a-date"
	if _, err := ToSyncRecords([]Transaction{txn}); err == nil {
		t.Error("expected error for unparseable date")
	}
}
