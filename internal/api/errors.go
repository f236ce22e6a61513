package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/rahulvarma/upi-wallet-service/internal/models"
)

// ErrorResponse represents an API error response.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:            code,
		ErrorDescription: description,
	})
}

// writeLedgerError maps each ledger error category to a fixed status and
// machine-readable code. Anything outside the taxonomy is a server fault.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrDuplicateAccount):
		writeJSONError(w, http.StatusConflict, "duplicate_account", err.Error())
	case errors.Is(err, models.ErrAccountNotFound):
		writeJSONError(w, http.StatusNotFound, "account_not_found", err.Error())
	case errors.Is(err, models.ErrInvalidCredential):
		writeJSONError(w, http.StatusUnauthorized, "invalid_credential", err.Error())
	case errors.Is(err, models.ErrSelfTransfer):
		writeJSONError(w, http.StatusBadRequest, "self_transfer", err.Error())
	case errors.Is(err, models.ErrInvalidAmount):
		writeJSONError(w, http.StatusBadRequest, "invalid_amount", err.Error())
	case errors.Is(err, models.ErrInsufficientBalance):
		writeJSONError(w, http.StatusUnprocessableEntity, "insufficient_balance", err.Error())
	default:
		slog.Error("wallet operation failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "server_error", "internal error")
	}
}
