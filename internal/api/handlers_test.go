package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rahulvarma/upi-wallet-service/internal/ledger"
	"github.com/rahulvarma/upi-wallet-service/internal/storage/memory"
	"github.com/shopspring/decimal"
)

func newTestServer(t *testing.T) (*httptest.Server, *ledger.Ledger) {
	t.Helper()
	l := ledger.NewLedger(memory.NewMemoryWalletStore(), nil)
	handler := NewWalletHandler(l, 10)

	r := chi.NewRouter()
	handler.Routes(r)

	server := httptest.NewServer(r)
	t.Cleanup(server.Close)
	return server, l
}

func postJSON(t *testing.T, url string, body any, headers map[string]string) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request body: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func decodeErrorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()
	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error response: %v", err)
	}
	return body.Error
}

func TestRegisterValidation(t *testing.T) {
	server, _ := newTestServer(t)

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
		wantCode   string
	}{
		{"valid", map[string]string{"name": "Alice", "upi_id": "alice@upi", "pin": "1111"}, http.StatusCreated, ""},
		{"mixed case id accepted", map[string]string{"name": "Bob", "upi_id": "Bob@UPI", "pin": "2222"}, http.StatusCreated, ""},
		{"empty name", map[string]string{"name": "", "upi_id": "carol@upi", "pin": "3333"}, http.StatusBadRequest, "invalid_name"},
		{"bad upi id", map[string]string{"name": "Carol", "upi_id": "not-a-upi-id", "pin": "3333"}, http.StatusBadRequest, "invalid_upi_id"},
		{"short pin", map[string]string{"name": "Carol", "upi_id": "carol@upi", "pin": "33"}, http.StatusBadRequest, "invalid_pin"},
		{"non-numeric pin", map[string]string{"name": "Carol", "upi_id": "carol@upi", "pin": "abcd"}, http.StatusBadRequest, "invalid_pin"},
		{"duplicate", map[string]string{"name": "Alice", "upi_id": "alice@upi", "pin": "1111"}, http.StatusConflict, "duplicate_account"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, server.URL+"/register", tt.body, nil)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, expected %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if code := decodeErrorCode(t, resp); code != tt.wantCode {
					t.Errorf("error code = %q, expected %q", code, tt.wantCode)
				}
			} else {
				resp.Body.Close()
			}
		})
	}
}

func TestRegisterNeverReturnsPIN(t *testing.T) {
	server, _ := newTestServer(t)

	resp := postJSON(t, server.URL+"/register", map[string]string{
		"name": "Alice", "upi_id": "alice@upi", "pin": "1111",
	}, nil)
	defer resp.Body.Close()

	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if body["id"] != "alice@upi" {
		t.Errorf("id = %v, expected alice@upi", body["id"])
	}
	for key := range body {
		if key == "pin" || key == "PIN" {
			t.Error("response leaks the credential")
		}
	}
}

func TestLogin(t *testing.T) {
	server, l := newTestServer(t)
	if _, err := l.CreateAccount(context.Background(), "alice@upi", "Alice", "1111"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	resp := postJSON(t, server.URL+"/login", map[string]string{"upi_id": "alice@upi", "pin": "1111"}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status = %d, expected 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, server.URL+"/login", map[string]string{"upi_id": "alice@upi", "pin": "9999"}, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("wrong pin status = %d, expected 401", resp.StatusCode)
	}
	if code := decodeErrorCode(t, resp); code != "invalid_credential" {
		t.Errorf("error code = %q, expected invalid_credential", code)
	}

	resp = postJSON(t, server.URL+"/login", map[string]string{"upi_id": "ghost@upi", "pin": "1111"}, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown account status = %d, expected 404", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestDepositAndBalance(t *testing.T) {
	server, l := newTestServer(t)
	if _, err := l.CreateAccount(context.Background(), "alice@upi", "Alice", "1111"); err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}

	resp := postJSON(t, server.URL+"/accounts/deposit", map[string]any{
		"account_id": "alice@upi", "amount": "500",
	}, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("deposit status = %d, expected 200", resp.StatusCode)
	}
	var deposited balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&deposited); err != nil {
		t.Fatalf("decode deposit response: %v", err)
	}
	resp.Body.Close()
	if !deposited.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("deposit balance = %s, expected 500", deposited.Balance)
	}

	resp, err := http.Get(server.URL + "/accounts/balance?account_id=alice@upi")
	if err != nil {
		t.Fatalf("balance request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("balance status = %d, expected 200", resp.StatusCode)
	}
	var balance balanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&balance); err != nil {
		t.Fatalf("decode balance response: %v", err)
	}
	resp.Body.Close()
	if !balance.Balance.Equal(decimal.NewFromInt(500)) {
		t.Errorf("balance = %s, expected 500", balance.Balance)
	}

	// Invalid amounts surface as invalid_amount, not a generic failure.
	resp = postJSON(t, server.URL+"/accounts/deposit", map[string]any{
		"account_id": "alice@upi", "amount": "-5",
	}, nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("negative deposit status = %d, expected 400", resp.StatusCode)
	}
	if code := decodeErrorCode(t, resp); code != "invalid_amount" {
		t.Errorf("error code = %q, expected invalid_amount", code)
	}
}

func TestTransferStatusMapping(t *testing.T) {
	server, l := newTestServer(t)
	ctx := context.Background()
	l.CreateAccount(ctx, "alice@upi", "Alice", "1111")
	l.CreateAccount(ctx, "bob@upi", "Bob", "2222")
	l.Deposit(ctx, "alice@upi", decimal.NewFromInt(500))

	tests := []struct {
		name       string
		body       map[string]any
		wantStatus int
		wantCode   string
	}{
		{"success", map[string]any{"from_account": "alice@upi", "to_account": "bob@upi", "amount": "200", "pin": "1111"}, http.StatusCreated, ""},
		{"self transfer", map[string]any{"from_account": "alice@upi", "to_account": "alice@upi", "amount": "10", "pin": "1111"}, http.StatusBadRequest, "self_transfer"},
		{"unknown destination", map[string]any{"from_account": "alice@upi", "to_account": "ghost@upi", "amount": "10", "pin": "1111"}, http.StatusNotFound, "account_not_found"},
		{"insufficient funds", map[string]any{"from_account": "alice@upi", "to_account": "bob@upi", "amount": "100000", "pin": "1111"}, http.StatusUnprocessableEntity, "insufficient_balance"},
		{"wrong pin", map[string]any{"from_account": "alice@upi", "to_account": "bob@upi", "amount": "10", "pin": "9999"}, http.StatusUnauthorized, "invalid_credential"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, server.URL+"/transfers", tt.body, nil)
			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, expected %d", resp.StatusCode, tt.wantStatus)
			}
			if tt.wantCode != "" {
				if code := decodeErrorCode(t, resp); code != tt.wantCode {
					t.Errorf("error code = %q, expected %q", code, tt.wantCode)
				}
			} else {
				resp.Body.Close()
			}
		})
	}
}

func TestTransferIdempotencyHeader(t *testing.T) {
	server, l := newTestServer(t)
	ctx := context.Background()
	l.CreateAccount(ctx, "alice@upi", "Alice", "1111")
	l.CreateAccount(ctx, "bob@upi", "Bob", "2222")
	l.Deposit(ctx, "alice@upi", decimal.NewFromInt(500))

	body := map[string]any{"from_account": "alice@upi", "to_account": "bob@upi", "amount": "200", "pin": "1111"}
	headers := map[string]string{"Idempotency-Key": "req-42"}

	for i := 0; i < 2; i++ {
		resp := postJSON(t, server.URL+"/transfers", body, headers)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("attempt %d status = %d, expected 201", i, resp.StatusCode)
		}
		resp.Body.Close()
	}

	balance, err := l.GetBalance("bob@upi")
	if err != nil {
		t.Fatalf("GetBalance failed: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("destination balance = %s, retried transfer moved funds twice", balance)
	}
}

func TestHistoryEndpoint(t *testing.T) {
	server, l := newTestServer(t)
	ctx := context.Background()
	l.CreateAccount(ctx, "alice@upi", "Alice", "1111")
	for i := 1; i <= 12; i++ {
		l.Deposit(ctx, "alice@upi", decimal.NewFromInt(int64(i)))
	}

	resp, err := http.Get(server.URL + "/accounts/history?account_id=alice@upi")
	if err != nil {
		t.Fatalf("history request failed: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("history status = %d, expected 200", resp.StatusCode)
	}

	var body struct {
		AccountID string `json:"account_id"`
		Entries   []struct {
			Description string `json:"description"`
		} `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode history response: %v", err)
	}
	resp.Body.Close()

	// Configured default limit is 10, most recent first.
	if len(body.Entries) != 10 {
		t.Fatalf("history returned %d entries, expected 10", len(body.Entries))
	}
	if body.Entries[0].Description != "Deposited 12.00" {
		t.Errorf("first entry = %q, expected the latest deposit", body.Entries[0].Description)
	}

	resp, err = http.Get(server.URL + "/accounts/history?account_id=alice@upi&limit=3")
	if err != nil {
		t.Fatalf("history request failed: %v", err)
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode history response: %v", err)
	}
	resp.Body.Close()
	if len(body.Entries) != 3 {
		t.Errorf("history with limit=3 returned %d entries", len(body.Entries))
	}

	resp, err = http.Get(server.URL + "/accounts/history?account_id=ghost@upi")
	if err != nil {
		t.Fatalf("history request failed: %v", err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown account history status = %d, expected 404", resp.StatusCode)
	}
	resp.Body.Close()
}
