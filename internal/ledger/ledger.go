package ledger

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	interfaces "github.com/rahulvarma/upi-wallet-service/internal/interfaces"
	"github.com/rahulvarma/upi-wallet-service/internal/models"
	"github.com/rahulvarma/upi-wallet-service/internal/models/events"
	"github.com/shopspring/decimal"
)

// TransferCompletedTopic is the broker topic for committed transfers.
const TransferCompletedTopic = "transfer_completed"

// Ledger is the single source of truth for accounts, balances and history.
// It serializes access per account: operations on different accounts may run
// in parallel, operations touching the same account are mutually exclusive,
// and a transfer holds both account locks so it appears atomic to every
// concurrent reader of either side.
type Ledger struct {
	store     interfaces.WalletStore
	publisher interfaces.EventPublisher // optional, may be nil
	muMap     map[string]*sync.Mutex    // one mutex per account id
	mapMu     sync.Mutex                // protects muMap itself
}

// NewLedger creates a Ledger on top of a storage implementation. The
// publisher may be nil when no broker is configured.
func NewLedger(store interfaces.WalletStore, publisher interfaces.EventPublisher) *Ledger {
	return &Ledger{
		store:     store,
		publisher: publisher,
		muMap:     make(map[string]*sync.Mutex),
	}
}

// NormalizeID maps an account identifier to its canonical form. Identity
// comparison is case-insensitive; the stored id is always lowercase.
func NormalizeID(accountID string) string {
	return strings.ToLower(strings.TrimSpace(accountID))
}

func (l *Ledger) getAccountLock(accountID string) *sync.Mutex {
	l.mapMu.Lock()
	defer l.mapMu.Unlock()

	if _, exists := l.muMap[accountID]; !exists {
		l.muMap[accountID] = &sync.Mutex{}
	}
	return l.muMap[accountID]
}

// CreateAccount registers a new account with a zero balance and a single
// "Account created" history entry, saved as one unit. The credential is
// opaque to the ledger; format rules belong to the caller.
func (l *Ledger) CreateAccount(ctx context.Context, accountID, displayName, pin string) (models.Account, error) {
	id := NormalizeID(accountID)
	if id == "" {
		return models.Account{}, fmt.Errorf("account id must not be empty")
	}

	mu := l.getAccountLock(id)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now()
	account := models.Account{
		ID:          id,
		DisplayName: displayName,
		PIN:         pin,
		Balance:     decimal.Zero,
		CreatedAt:   now,
	}
	created := models.LedgerEntry{
		ID:          uuid.New().String(),
		AccountID:   id,
		Amount:      decimal.Zero,
		Description: "Account created",
		CreatedAt:   now,
	}

	if err := l.store.SaveAccount(ctx, account, created); err != nil {
		return models.Account{}, err
	}
	return snapshot(account), nil
}

// Authenticate returns the account if the id exists and the credential
// matches. The comparison is constant-time so a mismatch reveals nothing
// about how much of the PIN was correct.
func (l *Ledger) Authenticate(accountID, pin string) (models.Account, error) {
	account, err := l.store.GetAccount(NormalizeID(accountID))
	if err != nil {
		return models.Account{}, err
	}
	if subtle.ConstantTimeCompare([]byte(account.PIN), []byte(pin)) != 1 {
		return models.Account{}, models.ErrInvalidCredential
	}
	return snapshot(account), nil
}

// GetBalance returns the current balance. It takes the account lock so a
// concurrent transfer is never observed half-applied.
func (l *Ledger) GetBalance(accountID string) (decimal.Decimal, error) {
	id := NormalizeID(accountID)

	mu := l.getAccountLock(id)
	mu.Lock()
	defer mu.Unlock()

	account, err := l.store.GetAccount(id)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Deposit adds a strictly positive amount to the account and appends the
// matching history entry; balance update and entry append are one unit.
func (l *Ledger) Deposit(ctx context.Context, accountID string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.Cmp(decimal.Zero) <= 0 {
		return decimal.Zero, models.ErrInvalidAmount
	}

	id := NormalizeID(accountID)
	mu := l.getAccountLock(id)
	mu.Lock()
	defer mu.Unlock()

	account, err := l.store.GetAccount(id)
	if err != nil {
		return decimal.Zero, err
	}

	balance := account.Balance.Add(amount)
	entry := models.LedgerEntry{
		ID:          uuid.New().String(),
		AccountID:   id,
		Amount:      amount,
		Description: fmt.Sprintf("Deposited %s", amount.StringFixed(2)),
		CreatedAt:   time.Now(),
	}

	if err := l.store.ApplyDeposit(ctx, id, balance, entry); err != nil {
		return decimal.Zero, err
	}
	return balance, nil
}

// Transfer atomically moves amount between two accounts: debit the source,
// credit the destination, append one entry on each side. Any validation
// failure leaves both accounts untouched. Validation order follows the
// reference protocol: destination, amount, funds, then credential — first
// failing check wins.
//
// An idempotencyKey that was already applied makes the call a no-op
// returning the source's current balance. An empty key disables the check.
func (l *Ledger) Transfer(ctx context.Context, fromID, toID string, amount decimal.Decimal, pin, idempotencyKey string) (decimal.Decimal, error) {
	from := NormalizeID(fromID)
	to := NormalizeID(toID)

	// Checked before locking: the ordered two-lock scheme below would
	// deadlock on from == to.
	if from == to {
		return decimal.Zero, models.ErrSelfTransfer
	}

	if idempotencyKey != "" {
		exists, err := l.store.TransferExists(idempotencyKey)
		if err != nil {
			return decimal.Zero, err
		}
		if exists {
			return l.GetBalance(from)
		}
	}

	debitMutex := l.getAccountLock(from)
	creditMutex := l.getAccountLock(to)

	// Lock in id order to avoid deadlocks when two transfers cross.
	if from < to {
		debitMutex.Lock()
		creditMutex.Lock()
	} else {
		creditMutex.Lock()
		debitMutex.Lock()
	}
	defer debitMutex.Unlock()
	defer creditMutex.Unlock()

	destination, err := l.store.GetAccount(to)
	if err != nil {
		return decimal.Zero, err
	}
	source, err := l.store.GetAccount(from)
	if err != nil {
		return decimal.Zero, err
	}

	if amount.Cmp(decimal.Zero) <= 0 {
		return decimal.Zero, models.ErrInvalidAmount
	}
	if amount.Cmp(source.Balance) > 0 {
		return decimal.Zero, models.ErrInsufficientBalance
	}
	if subtle.ConstantTimeCompare([]byte(source.PIN), []byte(pin)) != 1 {
		return decimal.Zero, models.ErrInvalidCredential
	}

	now := time.Now()
	transfer := models.Transfer{
		ID:             uuid.New().String(),
		IdempotencyKey: idempotencyKey,
		FromAccount:    from,
		ToAccount:      to,
		Amount:         amount,
		CreatedAt:      now,
	}

	debit := models.LedgerEntry{
		ID:          transfer.ID + "-debit",
		AccountID:   from,
		Amount:      amount.Neg(),
		Description: fmt.Sprintf("Sent %s to %s", amount.StringFixed(2), to),
		CreatedAt:   now,
	}
	credit := models.LedgerEntry{
		ID:          transfer.ID + "-credit",
		AccountID:   to,
		Amount:      amount,
		Description: fmt.Sprintf("Received %s from %s", amount.StringFixed(2), from),
		CreatedAt:   now,
	}

	fromBalance := source.Balance.Sub(amount)
	toBalance := destination.Balance.Add(amount)

	if err := l.store.ApplyTransfer(ctx, transfer, fromBalance, toBalance, debit, credit); err != nil {
		return decimal.Zero, err
	}

	// The transfer is committed; a broker failure must not undo it.
	if l.publisher != nil {
		event := events.TransferCompleted{
			TransferID:  transfer.ID,
			FromAccount: from,
			ToAccount:   to,
			Amount:      amount,
			OccurredAt:  now,
		}
		if err := l.publisher.Publish(TransferCompletedTopic, event); err != nil {
			slog.Error("failed to publish transfer event", "transfer_id", transfer.ID, "error", err)
		}
	}

	return fromBalance, nil
}

// History returns the account's most recent entries, newest first. A limit
// of zero or less returns the full history. Underlying storage order is
// untouched.
func (l *Ledger) History(accountID string, limit int) ([]models.LedgerEntry, error) {
	id := NormalizeID(accountID)

	mu := l.getAccountLock(id)
	mu.Lock()
	defer mu.Unlock()

	if _, err := l.store.GetAccount(id); err != nil {
		return nil, err
	}

	entries, err := l.store.GetEntriesByAccount(id)
	if err != nil {
		return nil, err
	}

	// Storage order is chronological; present most recent first.
	recent := make([]models.LedgerEntry, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		recent = append(recent, entries[i])
	}
	if limit > 0 && len(recent) > limit {
		recent = recent[:limit]
	}
	return recent, nil
}

// snapshot strips the credential before an account leaves the ledger.
func snapshot(account models.Account) models.Account {
	account.PIN = ""
	return account
}
