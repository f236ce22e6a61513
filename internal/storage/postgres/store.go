package postgres

import (
	"context"
	"database/sql"

	interfaces "github.com/rahulvarma/upi-wallet-service/internal/interfaces"
	"github.com/rahulvarma/upi-wallet-service/internal/models"
	"github.com/shopspring/decimal"
)

// PostgresWalletStore implements interfaces.WalletStore on PostgreSQL.
// Each Apply* method runs inside a single database transaction.
//
// Expected schema:
//
//	accounts(id text primary key, display_name text, pin text,
//	         balance numeric not null check (balance >= 0), created_at timestamptz)
//	ledger_entries(id text primary key, account_id text references accounts(id),
//	               amount numeric, description text, created_at timestamptz)
//	transfers(id text primary key, idempotency_key text unique,
//	          from_account text, to_account text, amount numeric, created_at timestamptz)
type PostgresWalletStore struct {
	db *sql.DB
}

func NewPostgresWalletStore(db *sql.DB) *PostgresWalletStore {
	return &PostgresWalletStore{
		db: db,
	}
}

func (p *PostgresWalletStore) SaveAccount(ctx context.Context, account models.Account, created models.LedgerEntry) error {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const insertAccount = `INSERT INTO accounts (id, display_name, pin, balance, created_at)
	VALUES ($1,$2,$3,$4,$5)
	ON CONFLICT (id) DO NOTHING`

	var result sql.Result
	result, err = dbTx.ExecContext(ctx, insertAccount,
		account.ID, account.DisplayName, account.PIN, account.Balance, account.CreatedAt)
	if err != nil {
		return err
	}

	var rows int64
	rows, err = result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		err = models.ErrDuplicateAccount
		return err
	}

	if err = p.saveEntry(ctx, dbTx, created); err != nil {
		return err
	}
	return dbTx.Commit()
}

func (p *PostgresWalletStore) GetAccount(accountID string) (models.Account, error) {
	const query = `SELECT id, display_name, pin, balance, created_at FROM accounts WHERE id = $1`

	var account models.Account
	err := p.db.QueryRow(query, accountID).Scan(
		&account.ID,
		&account.DisplayName,
		&account.PIN,
		&account.Balance,
		&account.CreatedAt,
	)
	if err == sql.ErrNoRows {
		return models.Account{}, models.ErrAccountNotFound
	}
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (p *PostgresWalletStore) ApplyDeposit(ctx context.Context, accountID string, balance decimal.Decimal, entry models.LedgerEntry) error {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	if err = p.setBalance(ctx, dbTx, accountID, balance); err != nil {
		return err
	}

	if err = p.saveEntry(ctx, dbTx, entry); err != nil {
		return err
	}
	return dbTx.Commit()
}

func (p *PostgresWalletStore) ApplyTransfer(ctx context.Context, transfer models.Transfer, fromBalance, toBalance decimal.Decimal, debit, credit models.LedgerEntry) error {
	dbTx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			dbTx.Rollback()
		}
	}()

	const insertTransfer = `INSERT INTO transfers (id, idempotency_key, from_account, to_account, amount, created_at)
	VALUES ($1,$2,$3,$4,$5,$6)`

	key := sql.NullString{String: transfer.IdempotencyKey, Valid: transfer.IdempotencyKey != ""}
	_, err = dbTx.ExecContext(ctx, insertTransfer,
		transfer.ID, key, transfer.FromAccount, transfer.ToAccount, transfer.Amount, transfer.CreatedAt)
	if err != nil {
		return err
	}

	if err = p.setBalance(ctx, dbTx, transfer.FromAccount, fromBalance); err != nil {
		return err
	}
	if err = p.setBalance(ctx, dbTx, transfer.ToAccount, toBalance); err != nil {
		return err
	}

	if err = p.saveEntry(ctx, dbTx, debit); err != nil {
		return err
	}
	if err = p.saveEntry(ctx, dbTx, credit); err != nil {
		return err
	}
	return dbTx.Commit()
}

func (p *PostgresWalletStore) TransferExists(idempotencyKey string) (bool, error) {
	const query = `SELECT 1 FROM transfers WHERE idempotency_key = $1 LIMIT 1`

	var exists int
	err := p.db.QueryRow(query, idempotencyKey).Scan(&exists)

	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (p *PostgresWalletStore) GetEntriesByAccount(accountID string) ([]models.LedgerEntry, error) {
	const query = `SELECT id, account_id, amount, description, created_at FROM ledger_entries
	WHERE account_id = $1 ORDER BY created_at, id`

	rows, err := p.db.Query(query, accountID)
	if err != nil {
		return nil, err
	}

	defer rows.Close()

	var entries []models.LedgerEntry
	for rows.Next() {
		var entry models.LedgerEntry
		if err := rows.Scan(&entry.ID, &entry.AccountID, &entry.Amount, &entry.Description, &entry.CreatedAt); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (p *PostgresWalletStore) setBalance(ctx context.Context, dbTx *sql.Tx, accountID string, balance decimal.Decimal) error {
	const query = `UPDATE accounts SET balance = $1 WHERE id = $2`

	result, err := dbTx.ExecContext(ctx, query, balance, accountID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrAccountNotFound
	}
	return nil
}

func (p *PostgresWalletStore) saveEntry(ctx context.Context, dbTx *sql.Tx, entry models.LedgerEntry) error {
	const query = `INSERT INTO ledger_entries (id, account_id, amount, description, created_at)
	VALUES ($1,$2,$3,$4,$5)`

	_, err := dbTx.ExecContext(ctx, query, entry.ID, entry.AccountID, entry.Amount, entry.Description, entry.CreatedAt)
	return err
}

var _ interfaces.WalletStore = (*PostgresWalletStore)(nil)
