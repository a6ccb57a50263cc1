package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dffdp/wallet-backend/internal/models"
)

// TransactionLog is the append-only history of transfers and top-ups.
// Records are inserted inside the same database transaction that moves the
// funds, so the log order always matches commit order.
type TransactionLog struct {
	db *sql.DB
}

func NewTransactionLog(db *sql.DB) *TransactionLog {
	return &TransactionLog{db: db}
}

const insertRecord = `
	INSERT INTO transactions (transaction_id, sender, receiver, amount, status, created_at)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING id`

// AppendTx appends a record inside an open transaction and fills in its
// assigned id and timestamp.
func (l *TransactionLog) AppendTx(tx *sql.Tx, record *models.TransactionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}
	err := tx.QueryRow(insertRecord,
		record.TransactionID, record.Sender, record.Receiver,
		record.Amount, record.Status, record.CreatedAt).
		Scan(&record.ID)
	if err != nil {
		return fmt.Errorf("error appending transaction record: %w", err)
	}
	return nil
}

// RecentBySenderTx returns the sender's records at or after since, read
// inside tx so fraud classification sees the same history the commit will
// extend.
func (l *TransactionLog) RecentBySenderTx(tx *sql.Tx, sender string, since time.Time) ([]models.TransactionRecord, error) {
	rows, err := tx.Query(`
		SELECT id, transaction_id, sender, receiver, amount, status, created_at
		FROM transactions
		WHERE sender = $1 AND created_at >= $2
		ORDER BY created_at ASC, id ASC`,
		sender, since)
	if err != nil {
		return nil, fmt.Errorf("error querying recent transactions for %s: %w", sender, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// HistoryFor returns every record where the account appears as sender or
// receiver, newest first.
func (l *TransactionLog) HistoryFor(ctx context.Context, accountID string) ([]models.TransactionRecord, error) {
	accountID = models.NormalizeID(accountID)
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, transaction_id, sender, receiver, amount, status, created_at
		FROM transactions
		WHERE sender = $1 OR receiver = $1
		ORDER BY created_at DESC, id DESC`,
		accountID)
	if err != nil {
		return nil, fmt.Errorf("error querying history for %s: %w", accountID, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Flagged returns every fraud-classified record, newest first.
func (l *TransactionLog) Flagged(ctx context.Context) ([]models.TransactionRecord, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT id, transaction_id, sender, receiver, amount, status, created_at
		FROM transactions
		WHERE status LIKE '%FRAUD%'
		ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("error querying flagged transactions: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows *sql.Rows) ([]models.TransactionRecord, error) {
	var records []models.TransactionRecord
	for rows.Next() {
		var record models.TransactionRecord
		if err := rows.Scan(&record.ID, &record.TransactionID, &record.Sender,
			&record.Receiver, &record.Amount, &record.Status, &record.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
