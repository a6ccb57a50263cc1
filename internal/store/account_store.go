// Package store holds the durable state of the wallet: the account table and
// the append-only transaction log. Each store operation is atomic for a
// single row; multi-account atomicity is the ledger service's job, which
// drives the Tx variants inside one database transaction.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dffdp/wallet-backend/internal/models"
	"github.com/lib/pq"
)

const pqUniqueViolation = "23505"

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

// Get returns the account with the given (normalized) id.
func (s *AccountStore) Get(ctx context.Context, id string) (*models.Account, error) {
	var account models.Account
	err := s.db.QueryRowContext(ctx, `
		SELECT id, password_hash, balance, flagged, role, version, created_at, updated_at
		FROM accounts
		WHERE id = $1`,
		models.NormalizeID(id)).
		Scan(&account.ID, &account.PasswordHash, &account.Balance, &account.Flagged,
			&account.Role, &account.Version, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error fetching account %s: %w", id, err)
	}
	return &account, nil
}

// Create inserts a new account. Returns ErrAlreadyExists if the id is taken.
func (s *AccountStore) Create(ctx context.Context, account *models.Account) error {
	account.ID = models.NormalizeID(account.ID)
	if account.Role == "" {
		account.Role = models.RoleUser
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO accounts (id, password_hash, balance, flagged, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING version, created_at, updated_at`,
		account.ID, account.PasswordHash, account.Balance, account.Flagged, account.Role).
		Scan(&account.Version, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == pqUniqueViolation {
			return models.ErrAlreadyExists
		}
		return fmt.Errorf("error creating account %s: %w", account.ID, err)
	}
	return nil
}

// AdjustBalance applies a delta (possibly negative) to a single account.
// The update is conditional on the resulting balance staying non-negative,
// so a lost-update race can never drive a balance below zero.
func (s *AccountStore) AdjustBalance(ctx context.Context, id string, delta int64) error {
	id = models.NormalizeID(id)
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET balance = balance + $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND balance + $1 >= 0`,
		delta, time.Now(), id)
	if err != nil {
		return fmt.Errorf("error adjusting balance for %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		if _, err := s.Get(ctx, id); err != nil {
			return err
		}
		return models.ErrInsufficientFunds
	}
	return nil
}

// SetFlag sets or clears the fraud flag on an account.
func (s *AccountStore) SetFlag(ctx context.Context, id string, flagged bool) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts
		SET flagged = $1, updated_at = $2
		WHERE id = $3`,
		flagged, time.Now(), models.NormalizeID(id))
	if err != nil {
		return fmt.Errorf("error setting flag for %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// GetForUpdate reads an account inside tx, taking a row lock that is held
// until the transaction commits. Callers must acquire locks in ascending id
// order to avoid deadlocks.
func (s *AccountStore) GetForUpdate(tx *sql.Tx, id string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRow(`
		SELECT id, password_hash, balance, flagged, role, version, created_at, updated_at
		FROM accounts
		WHERE id = $1
		FOR UPDATE`,
		models.NormalizeID(id)).
		Scan(&account.ID, &account.PasswordHash, &account.Balance, &account.Flagged,
			&account.Role, &account.Version, &account.CreatedAt, &account.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error locking account %s: %w", id, err)
	}
	return &account, nil
}

// UpdateBalanceTx writes a new balance inside tx. The version check is a
// belt-and-braces guard on top of the row lock.
func (s *AccountStore) UpdateBalanceTx(tx *sql.Tx, id string, newBalance int64, version int) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4`,
		newBalance, time.Now(), id, version)
	if err != nil {
		return fmt.Errorf("error updating balance for %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("optimistic lock failed for account %s", id)
	}
	return nil
}

// SetFlagTx sets the fraud flag inside an open transaction.
func (s *AccountStore) SetFlagTx(tx *sql.Tx, id string, flagged bool) error {
	result, err := tx.Exec(`
		UPDATE accounts
		SET flagged = $1, updated_at = $2
		WHERE id = $3`,
		flagged, time.Now(), id)
	if err != nil {
		return fmt.Errorf("error setting flag for %s: %w", id, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return models.ErrNotFound
	}
	return nil
}

// TotalBalance sums every account balance in the system.
func (s *AccountStore) TotalBalance(ctx context.Context) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(balance), 0) FROM accounts`).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("error computing total balance: %w", err)
	}
	return total, nil
}

// TopByBalance returns the n richest accounts, richest first.
func (s *AccountStore) TopByBalance(ctx context.Context, n int) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, balance, flagged, role, version, created_at, updated_at
		FROM accounts
		ORDER BY balance DESC, id ASC
		LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("error listing top accounts: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

// Suspicious returns accounts that are flagged, or that appear as the sender
// of any fraud-classified transaction.
func (s *AccountStore) Suspicious(ctx context.Context) ([]models.Account, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.balance, a.flagged, a.role, a.version, a.created_at, a.updated_at
		FROM accounts a
		WHERE a.flagged
		   OR EXISTS (
			SELECT 1 FROM transactions t
			WHERE t.sender = a.id AND t.status LIKE '%FRAUD%'
		   )
		ORDER BY a.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error listing suspicious accounts: %w", err)
	}
	defer rows.Close()
	return scanAccounts(rows)
}

func scanAccounts(rows *sql.Rows) ([]models.Account, error) {
	var accounts []models.Account
	for rows.Next() {
		var account models.Account
		if err := rows.Scan(&account.ID, &account.Balance, &account.Flagged,
			&account.Role, &account.Version, &account.CreatedAt, &account.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}
