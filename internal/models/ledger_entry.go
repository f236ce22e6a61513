package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LedgerEntry represents a single immutable ledger record for an account.
// Entries are append-only; storage order is chronological.
type LedgerEntry struct {
	ID          string          `json:"id"`          // unique identifier
	AccountID   string          `json:"account_id"`  // which account this entry belongs to
	Amount      decimal.Decimal `json:"amount"`      // signed: negative = debit, positive = credit
	Description string          `json:"description"` // human-readable summary of the event
	CreatedAt   time.Time       `json:"created_at"`  // timestamp
}
