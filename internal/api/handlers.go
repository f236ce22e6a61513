package api

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rahulvarma/upi-wallet-service/internal/ledger"
	"github.com/rahulvarma/upi-wallet-service/internal/models"
	"github.com/shopspring/decimal"
)

// Input format rules from the reference client: a UPI-style id and a
// 4-digit PIN. These are presentation concerns; the ledger itself treats
// both as opaque strings.
var (
	upiIDPattern = regexp.MustCompile(`^[a-z0-9._+-]+@[a-z0-9.-]+$`)
	pinPattern   = regexp.MustCompile(`^\d{4}$`)
)

// WalletHandler exposes the ledger over HTTP. It owns request parsing,
// format validation and response shaping; all wallet semantics live in the
// ledger.
type WalletHandler struct {
	ledger       *ledger.Ledger
	historyLimit int
}

// NewWalletHandler creates a WalletHandler. historyLimit is the page size
// used when a history request does not specify one.
func NewWalletHandler(l *ledger.Ledger, historyLimit int) *WalletHandler {
	return &WalletHandler{ledger: l, historyLimit: historyLimit}
}

// Routes mounts all wallet endpoints on a chi router.
func (h *WalletHandler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Route("/accounts", func(r chi.Router) {
		r.Get("/balance", h.GetBalance)
		r.Post("/deposit", h.Deposit)
		r.Get("/history", h.History)
	})
	r.Post("/transfers", h.Transfer)
}

type balanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

// Register handles POST /register.
func (h *WalletHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name  string `json:"name"`
		UPIID string `json:"upi_id"`
		PIN   string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	if req.Name == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_name", "name must not be empty")
		return
	}
	id := ledger.NormalizeID(req.UPIID)
	if !upiIDPattern.MatchString(id) {
		writeJSONError(w, http.StatusBadRequest, "invalid_upi_id", "UPI ID must look like name@provider")
		return
	}
	if !pinPattern.MatchString(req.PIN) {
		writeJSONError(w, http.StatusBadRequest, "invalid_pin", "PIN must be exactly 4 digits")
		return
	}

	account, err := h.ledger.CreateAccount(r.Context(), id, req.Name, req.PIN)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(account)
}

// Login handles POST /login.
func (h *WalletHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UPIID string `json:"upi_id"`
		PIN   string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	account, err := h.ledger.Authenticate(req.UPIID, req.PIN)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(account)
}

// GetBalance handles GET /accounts/balance?account_id=.
func (h *WalletHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "account_id is a mandatory field")
		return
	}

	balance, err := h.ledger.GetBalance(accountID)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(balanceResponse{
		AccountID: ledger.NormalizeID(accountID),
		Balance:   balance,
	})
}

// Deposit handles POST /accounts/deposit.
func (h *WalletHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountID string          `json:"account_id"`
		Amount    decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	balance, err := h.ledger.Deposit(r.Context(), req.AccountID, req.Amount)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(balanceResponse{
		AccountID: ledger.NormalizeID(req.AccountID),
		Balance:   balance,
	})
}

// Transfer handles POST /transfers. An optional Idempotency-Key header makes
// retries safe: a replayed key moves no funds and returns the current
// balance.
func (h *WalletHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	idempotencyKey := r.Header.Get("Idempotency-Key")

	var req struct {
		FromAccount string          `json:"from_account"`
		ToAccount   string          `json:"to_account"`
		Amount      decimal.Decimal `json:"amount"`
		PIN         string          `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "invalid request body")
		return
	}

	balance, err := h.ledger.Transfer(r.Context(), req.FromAccount, req.ToAccount, req.Amount, req.PIN, idempotencyKey)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(balanceResponse{
		AccountID: ledger.NormalizeID(req.FromAccount),
		Balance:   balance,
	})
}

// History handles GET /accounts/history?account_id=&limit=. Entries come
// back most recent first.
func (h *WalletHandler) History(w http.ResponseWriter, r *http.Request) {
	accountID := r.URL.Query().Get("account_id")
	if accountID == "" {
		writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "account_id is a mandatory field")
		return
	}

	limit := h.historyLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid_parameter", "limit must be an integer")
			return
		}
		limit = parsed
	}

	entries, err := h.ledger.History(accountID, limit)
	if err != nil {
		writeLedgerError(w, err)
		return
	}

	response := struct {
		AccountID string               `json:"account_id"`
		Entries   []models.LedgerEntry `json:"entries"`
	}{
		AccountID: ledger.NormalizeID(accountID),
		Entries:   entries,
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}
