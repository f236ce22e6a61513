package models

import "errors"

// Error taxonomy for wallet operations. Every failed operation maps to
// exactly one of these so callers can branch with errors.Is; all are
// recoverable and caller-facing.
var (
	// ErrDuplicateAccount indicates the account id is already registered.
	ErrDuplicateAccount = errors.New("account already exists")
	// ErrAccountNotFound indicates no account exists for the given id.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredential indicates the supplied PIN does not match.
	ErrInvalidCredential = errors.New("invalid credential")
	// ErrSelfTransfer indicates source and destination are the same account.
	ErrSelfTransfer = errors.New("cannot transfer to the same account")
	// ErrInvalidAmount indicates a zero or negative amount.
	ErrInvalidAmount = errors.New("amount must be positive")
	// ErrInsufficientBalance indicates the source balance cannot cover the amount.
	ErrInsufficientBalance = errors.New("insufficient balance")
)
