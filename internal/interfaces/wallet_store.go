package interfaces

import (
	"context"

	"github.com/rahulvarma/upi-wallet-service/internal/models"
	"github.com/shopspring/decimal"
)

// WalletStore is the storage contract for accounts, balances and ledger
// entries. The Apply* methods are atomic: either every record they are given
// is persisted, or none is. Stores report missing/duplicate accounts with
// models.ErrAccountNotFound / models.ErrDuplicateAccount.
type WalletStore interface {
	// SaveAccount persists a new account together with its creation entry.
	SaveAccount(ctx context.Context, account models.Account, created models.LedgerEntry) error
	// GetAccount returns the stored account for an id, credential included.
	GetAccount(accountID string) (models.Account, error)
	// ApplyDeposit sets the account's balance and appends the deposit entry.
	ApplyDeposit(ctx context.Context, accountID string, balance decimal.Decimal, entry models.LedgerEntry) error
	// ApplyTransfer records the transfer, sets both balances and appends the
	// debit and credit entries as one unit.
	ApplyTransfer(ctx context.Context, transfer models.Transfer, fromBalance, toBalance decimal.Decimal, debit, credit models.LedgerEntry) error
	// TransferExists reports whether a transfer with this idempotency key
	// has already been applied.
	TransferExists(idempotencyKey string) (bool, error)
	// GetEntriesByAccount returns an account's entries in chronological order.
	GetEntriesByAccount(accountID string) ([]models.LedgerEntry, error)
}
