package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a wallet account: a uniquely identified holder of a balance
// and an append-only transaction history.
type Account struct {
	ID          string          `json:"id"`           // lowercased UPI-style identifier, unique
	DisplayName string          `json:"display_name"` // not used for identity
	PIN         string          `json:"-"`            // opaque credential, never serialized or logged
	Balance     decimal.Decimal `json:"balance"`      // always >= 0
	CreatedAt   time.Time       `json:"created_at"`
}
