package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer represents an intent to move money between two accounts
type Transfer struct {
	ID             string
	IdempotencyKey string
	FromAccount    string
	ToAccount      string
	Amount         decimal.Decimal
	CreatedAt      time.Time
}
