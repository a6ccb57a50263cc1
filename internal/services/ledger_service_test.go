package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dffdp/wallet-backend/internal/config"
	"github.com/dffdp/wallet-backend/internal/models"
	"github.com/dffdp/wallet-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLedger(t *testing.T) (*LedgerService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	accounts := store.NewAccountStore(db)
	txlog := store.NewTransactionLog(db)
	detector := NewFraudDetector(testFraudConfig())
	ledger := NewLedgerService(db, accounts, txlog, detector,
		config.LedgerConfig{StartingBalance: 100000, TopAccounts: 5})
	return ledger, mock, db
}

func accountRow(id string, balance int64, flagged bool, version int) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "password_hash", "balance", "flagged", "role", "version", "created_at", "updated_at",
	}).AddRow(id, "salt$hash", balance, flagged, "user", version, now, now)
}

func emptyRecordRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "transaction_id", "sender", "receiver", "amount", "status", "created_at",
	})
}

func expectLock(mock sqlmock.Sqlmock, id string, rows *sqlmock.Rows) {
	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 FOR UPDATE").
		WithArgs(id).
		WillReturnRows(rows)
}

func TestLedgerService_Transfer(t *testing.T) {
	sender := "alice@example.com"
	receiver := "bob@example.com"

	t.Run("successful transfer", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		mock.ExpectBegin()
		expectLock(mock, sender, accountRow(sender, 500000, false, 1))
		expectLock(mock, receiver, accountRow(receiver, 200000, false, 3))
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE sender = \\$1 AND created_at >= \\$2").
			WithArgs(sender, sqlmock.AnyArg()).
			WillReturnRows(emptyRecordRows())
		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(int64(400000), sqlmock.AnyArg(), sender, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(int64(300000), sqlmock.AnyArg(), receiver, 3).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), sender, receiver, int64(100000), "OK", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		result, err := ledger.Transfer(context.Background(), sender, receiver, 100000)
		require.NoError(t, err)
		assert.Equal(t, "OK", result.Record.Status)
		assert.False(t, result.SenderFlagged)
		assert.Equal(t, int64(100000), result.Record.Amount)
		assert.NotEmpty(t, result.Record.TransactionID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fraud-classified transfer still moves funds and flags sender", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		// 1500.00 exceeds the 1000.00 single-transfer threshold.
		mock.ExpectBegin()
		expectLock(mock, sender, accountRow(sender, 500000, false, 2))
		expectLock(mock, receiver, accountRow(receiver, 200000, false, 1))
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE sender = \\$1 AND created_at >= \\$2").
			WithArgs(sender, sqlmock.AnyArg()).
			WillReturnRows(emptyRecordRows())
		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(int64(350000), sqlmock.AnyArg(), sender, 2).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(int64(350000), sqlmock.AnyArg(), receiver, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE accounts SET flagged = \\$1, updated_at = \\$2 WHERE id = \\$3").
			WithArgs(true, sqlmock.AnyArg(), sender).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), sender, receiver, int64(150000), "AMOUNT_FRAUD - Exceeds 1000.00", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectCommit()

		result, err := ledger.Transfer(context.Background(), sender, receiver, 150000)
		require.NoError(t, err)
		assert.True(t, result.SenderFlagged)
		assert.Equal(t, KindAmountFraud, result.Classification.Kind)
		assert.True(t, models.IsFraudStatus(result.Record.Status))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insufficient balance leaves state unchanged", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		mock.ExpectBegin()
		expectLock(mock, sender, accountRow(sender, 50000, false, 1))
		expectLock(mock, receiver, accountRow(receiver, 200000, false, 1))
		mock.ExpectRollback()

		result, err := ledger.Transfer(context.Background(), sender, receiver, 100000)
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)
		assert.Nil(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown recipient", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		// The missing recipient sorts before the sender, so its lock is
		// attempted first.
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 FOR UPDATE").
			WithArgs("alice@example.com").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		result, err := ledger.Transfer(context.Background(), "bob@example.com", "alice@example.com", 1000)
		assert.ErrorIs(t, err, models.ErrRecipientNotFound)
		assert.Nil(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive amount", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		for _, amount := range []int64{0, -500} {
			result, err := ledger.Transfer(context.Background(), sender, receiver, amount)
			assert.ErrorIs(t, err, models.ErrInvalidAmount)
			assert.Nil(t, result)
		}
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("self transfer", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		result, err := ledger.Transfer(context.Background(), sender, "Alice@Example.com ", 1000)
		assert.ErrorIs(t, err, models.ErrSelfTransfer)
		assert.Nil(t, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ids are normalized before locking", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		mock.ExpectBegin()
		expectLock(mock, sender, accountRow(sender, 500000, false, 1))
		expectLock(mock, receiver, accountRow(receiver, 0, false, 1))
		mock.ExpectQuery("SELECT (.+) FROM transactions WHERE sender = \\$1 AND created_at >= \\$2").
			WithArgs(sender, sqlmock.AnyArg()).
			WillReturnRows(emptyRecordRows())
		mock.ExpectExec("UPDATE accounts SET balance = (.+)").
			WithArgs(int64(499000), sqlmock.AnyArg(), sender, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec("UPDATE accounts SET balance = (.+)").
			WithArgs(int64(1000), sqlmock.AnyArg(), receiver, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), sender, receiver, int64(1000), "OK", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(2))
		mock.ExpectCommit()

		_, err := ledger.Transfer(context.Background(), " ALICE@example.com", "Bob@Example.COM", 1000)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_TopUp(t *testing.T) {
	account := "carol@example.com"

	t.Run("successful top-up", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		mock.ExpectBegin()
		expectLock(mock, account, accountRow(account, 10000, false, 1))
		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(int64(260000), sqlmock.AnyArg(), account, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), models.SenderSystem, account, int64(250000), models.StatusTopUp, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectCommit()

		record, err := ledger.TopUp(context.Background(), account, 250000)
		require.NoError(t, err)
		assert.Equal(t, models.SenderSystem, record.Sender)
		assert.Equal(t, models.StatusTopUp, record.Status)
		assert.Equal(t, int64(250000), record.Amount)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("non-positive amount", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		record, err := ledger.TopUp(context.Background(), account, 0)
		assert.ErrorIs(t, err, models.ErrInvalidAmount)
		assert.Nil(t, record)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown account", func(t *testing.T) {
		ledger, mock, db := newTestLedger(t)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 FOR UPDATE").
			WithArgs("ghost@example.com").
			WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		record, err := ledger.TopUp(context.Background(), "ghost@example.com", 1000)
		assert.ErrorIs(t, err, models.ErrNotFound)
		assert.Nil(t, record)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLedgerService_Register(t *testing.T) {
	ledger, mock, db := newTestLedger(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("INSERT INTO accounts").
		WithArgs("dave@example.com", "salt$hash", int64(100000), false, "user").
		WillReturnRows(sqlmock.NewRows([]string{"version", "created_at", "updated_at"}).
			AddRow(1, now, now))

	account, err := ledger.Register(context.Background(), "Dave@Example.com", "salt$hash")
	require.NoError(t, err)
	assert.Equal(t, "dave@example.com", account.ID)
	assert.Equal(t, int64(100000), account.Balance)
	assert.Equal(t, models.RoleUser, account.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerService_SystemSummary(t *testing.T) {
	ledger, mock, db := newTestLedger(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT COALESCE\\(SUM\\(balance\\), 0\\) FROM accounts").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(750000))
	mock.ExpectQuery("SELECT (.+) FROM accounts ORDER BY balance DESC").
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "balance", "flagged", "role", "version", "created_at", "updated_at",
		}).
			AddRow("rich@example.com", 500000, false, "user", 1, now, now).
			AddRow("poor@example.com", 250000, true, "user", 4, now, now))

	summary, err := ledger.SystemSummary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(750000), summary.TotalBalance)
	require.Len(t, summary.TopAccounts, 2)
	assert.Equal(t, "rich@example.com", summary.TopAccounts[0].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
