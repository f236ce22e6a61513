package memory

import (
	"context"
	"sync"

	interfaces "github.com/rahulvarma/upi-wallet-service/internal/interfaces"
	"github.com/rahulvarma/upi-wallet-service/internal/models"
	"github.com/shopspring/decimal"
)

// MemoryWalletStore is the in-memory implementation of interfaces.WalletStore.
// All maps are guarded by a single mutex, so each Apply* call is atomic:
// no reader can observe a balance without its entry or one side of a
// transfer without the other.
type MemoryWalletStore struct {
	mu        sync.Mutex
	accounts  map[string]models.Account       // keyed by account id
	entries   map[string][]models.LedgerEntry // per-account, chronological
	transfers map[string]models.Transfer      // keyed by idempotency key
}

// NewMemoryWalletStore creates an empty in-memory store.
func NewMemoryWalletStore() *MemoryWalletStore {
	return &MemoryWalletStore{
		accounts:  make(map[string]models.Account),
		entries:   make(map[string][]models.LedgerEntry),
		transfers: make(map[string]models.Transfer),
	}
}

func (m *MemoryWalletStore) SaveAccount(ctx context.Context, account models.Account, created models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.accounts[account.ID]; exists {
		return models.ErrDuplicateAccount
	}

	m.accounts[account.ID] = account
	m.entries[account.ID] = append(m.entries[account.ID], created)
	return nil
}

func (m *MemoryWalletStore) GetAccount(accountID string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, exists := m.accounts[accountID]
	if !exists {
		return models.Account{}, models.ErrAccountNotFound
	}
	return account, nil
}

func (m *MemoryWalletStore) ApplyDeposit(ctx context.Context, accountID string, balance decimal.Decimal, entry models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, exists := m.accounts[accountID]
	if !exists {
		return models.ErrAccountNotFound
	}

	account.Balance = balance
	m.accounts[accountID] = account
	m.entries[accountID] = append(m.entries[accountID], entry)
	return nil
}

func (m *MemoryWalletStore) ApplyTransfer(ctx context.Context, transfer models.Transfer, fromBalance, toBalance decimal.Decimal, debit, credit models.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	source, exists := m.accounts[transfer.FromAccount]
	if !exists {
		return models.ErrAccountNotFound
	}
	destination, exists := m.accounts[transfer.ToAccount]
	if !exists {
		return models.ErrAccountNotFound
	}

	source.Balance = fromBalance
	destination.Balance = toBalance
	m.accounts[transfer.FromAccount] = source
	m.accounts[transfer.ToAccount] = destination

	m.entries[transfer.FromAccount] = append(m.entries[transfer.FromAccount], debit)
	m.entries[transfer.ToAccount] = append(m.entries[transfer.ToAccount], credit)

	if transfer.IdempotencyKey != "" {
		m.transfers[transfer.IdempotencyKey] = transfer
	}
	return nil
}

func (m *MemoryWalletStore) TransferExists(idempotencyKey string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, exists := m.transfers[idempotencyKey]
	return exists, nil
}

// GetEntriesByAccount returns a copy of the account's entries so external
// code cannot mutate internal state.
func (m *MemoryWalletStore) GetEntriesByAccount(accountID string) ([]models.LedgerEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := m.entries[accountID]
	copied := make([]models.LedgerEntry, len(stored))
	copy(copied, stored)
	return copied, nil
}

// Compile-time check: ensure MemoryWalletStore implements WalletStore
var _ interfaces.WalletStore = (*MemoryWalletStore)(nil)
