package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dffdp/wallet-backend/internal/audit"
	"github.com/dffdp/wallet-backend/internal/config"
	"github.com/dffdp/wallet-backend/internal/services"
	"github.com/dffdp/wallet-backend/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWalletHandler(t *testing.T) (*WalletHandler, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	accounts := store.NewAccountStore(db)
	txlog := store.NewTransactionLog(db)
	detector := services.NewFraudDetector(config.FraudConfig{
		AmountThreshold:      100000,
		FrequencyThreshold:   5,
		TimeWindow:           10 * time.Minute,
		LargeWithdrawalRatio: 0.5,
	})
	ledger := services.NewLedgerService(db, accounts, txlog, detector,
		config.LedgerConfig{StartingBalance: 100000, TopAccounts: 5})
	handler := NewWalletHandler(ledger, services.NewQRService(), audit.NewLogger(nil))
	return handler, mock, db
}

func authedRequest(method, target string, body []byte, accountID string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, target, bytes.NewBuffer(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	ctx := context.WithValue(r.Context(), "accountID", accountID)
	return r.WithContext(ctx)
}

func TestWalletHandler_GetAccount(t *testing.T) {
	handler, mock, db := newTestWalletHandler(t)
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1").
		WithArgs("alice@example.com").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "password_hash", "balance", "flagged", "role", "version", "created_at", "updated_at",
		}).AddRow("alice@example.com", "hash", 25050, false, "user", 1, now, now))

	w := httptest.NewRecorder()
	handler.GetAccount(w, authedRequest("GET", "/wallet", nil, "alice@example.com"))

	assert.Equal(t, http.StatusOK, w.Code)
	var view services.AccountView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Equal(t, "alice@example.com", view.ID)
	assert.Equal(t, "250.50", view.Balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWalletHandler_TopUp(t *testing.T) {
	t.Run("successful top-up", func(t *testing.T) {
		handler, mock, db := newTestWalletHandler(t)
		defer db.Close()

		now := time.Now()
		mock.ExpectBegin()
		mock.ExpectQuery("SELECT (.+) FROM accounts WHERE id = \\$1 FOR UPDATE").
			WithArgs("alice@example.com").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "password_hash", "balance", "flagged", "role", "version", "created_at", "updated_at",
			}).AddRow("alice@example.com", "hash", 100000, false, "user", 1, now, now))
		mock.ExpectExec("UPDATE accounts SET balance = \\$1, version = version \\+ 1, updated_at = \\$2 WHERE id = \\$3 AND version = \\$4").
			WithArgs(int64(125000), sqlmock.AnyArg(), "alice@example.com", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO transactions").
			WithArgs(sqlmock.AnyArg(), "SYSTEM", "alice@example.com", int64(25000), "TOP-UP", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectCommit()

		body, _ := json.Marshal(TopUpRequest{Amount: "250.00"})
		w := httptest.NewRecorder()
		handler.TopUp(w, authedRequest("POST", "/wallet/topup", body, "alice@example.com"))

		assert.Equal(t, http.StatusOK, w.Code)
		var view RecordView
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
		assert.Equal(t, "SYSTEM", view.Sender)
		assert.Equal(t, "250.00", view.Amount)
		assert.Equal(t, "TOP-UP", view.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects malformed amount", func(t *testing.T) {
		handler, _, db := newTestWalletHandler(t)
		defer db.Close()

		body, _ := json.Marshal(TopUpRequest{Amount: "12.three"})
		w := httptest.NewRecorder()
		handler.TopUp(w, authedRequest("POST", "/wallet/topup", body, "alice@example.com"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects sub-cent precision", func(t *testing.T) {
		handler, _, db := newTestWalletHandler(t)
		defer db.Close()

		body, _ := json.Marshal(TopUpRequest{Amount: "10.005"})
		w := httptest.NewRecorder()
		handler.TopUp(w, authedRequest("POST", "/wallet/topup", body, "alice@example.com"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWalletHandler_Transfer_Validation(t *testing.T) {
	handler, _, db := newTestWalletHandler(t)
	defer db.Close()

	t.Run("missing receiver", func(t *testing.T) {
		body, _ := json.Marshal(TransferRequest{Amount: "10.00"})
		w := httptest.NewRecorder()
		handler.Transfer(w, authedRequest("POST", "/wallet/transfer", body, "alice@example.com"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.Transfer(w, authedRequest("POST", "/wallet/transfer",
			[]byte(`{"receiver":"bob@example.com","amount":"10.00","extra":true}`), "alice@example.com"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestWalletHandler_ReceiveQR(t *testing.T) {
	handler, _, db := newTestWalletHandler(t)
	defer db.Close()

	t.Run("returns a PNG", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ReceiveQR(w, authedRequest("GET", "/wallet/receive-qr?amount=25.00", nil, "alice@example.com"))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
		assert.Equal(t, []byte{0x89, 0x50, 0x4E, 0x47}, w.Body.Bytes()[:4])
	})

	t.Run("rejects bad amount", func(t *testing.T) {
		w := httptest.NewRecorder()
		handler.ReceiveQR(w, authedRequest("GET", "/wallet/receive-qr?amount=-5", nil, "alice@example.com"))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
