package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dffdp/wallet-backend/internal/config"
	"github.com/dffdp/wallet-backend/internal/models"
	"github.com/dffdp/wallet-backend/internal/store"
	"github.com/google/uuid"
)

// LedgerService orchestrates every balance mutation. A transfer is a single
// database transaction: both accounts are locked in ascending id order, the
// fraud detector classifies against the history visible inside that
// transaction, then debit, credit, flag and log append commit together.
// Transfers touching disjoint account pairs proceed concurrently; transfers
// sharing an account serialize on its row lock.
type LedgerService struct {
	db       *sql.DB
	accounts *store.AccountStore
	txlog    *store.TransactionLog
	detector *FraudDetector
	cfg      config.LedgerConfig
}

func NewLedgerService(db *sql.DB, accounts *store.AccountStore, txlog *store.TransactionLog, detector *FraudDetector, cfg config.LedgerConfig) *LedgerService {
	return &LedgerService{
		db:       db,
		accounts: accounts,
		txlog:    txlog,
		detector: detector,
		cfg:      cfg,
	}
}

// TransferResult reports the outcome of an accepted transfer. A fraud
// classification is not an error: the funds moved and the sender was
// flagged.
type TransferResult struct {
	Record         models.TransactionRecord
	Classification Classification
	SenderFlagged  bool
}

// Transfer moves amount cents from sender to receiver.
//
// Rejections (ErrInvalidAmount, ErrSelfTransfer, ErrRecipientNotFound,
// ErrInsufficientFunds) leave all state untouched and append nothing.
func (s *LedgerService) Transfer(ctx context.Context, senderID, receiverID string, amount int64) (*TransferResult, error) {
	senderID = models.NormalizeID(senderID)
	receiverID = models.NormalizeID(receiverID)

	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}
	if senderID == receiverID {
		return nil, models.ErrSelfTransfer
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting transfer transaction: %w", err)
	}
	defer tx.Rollback()

	// Lock both accounts in consistent order to prevent deadlocks.
	firstLock, secondLock := senderID, receiverID
	if senderID > receiverID {
		firstLock, secondLock = receiverID, senderID
	}

	first, err := s.lockAccount(tx, firstLock, senderID)
	if err != nil {
		return nil, err
	}
	second, err := s.lockAccount(tx, secondLock, senderID)
	if err != nil {
		return nil, err
	}

	sender, receiver := first, second
	if firstLock != senderID {
		sender, receiver = second, first
	}

	if sender.Balance < amount {
		return nil, models.ErrInsufficientFunds
	}

	// Classify before the debit, against the same consistent view the
	// commit will extend.
	now := time.Now()
	recent, err := s.txlog.RecentBySenderTx(tx, senderID, now.Add(-s.detector.cfg.TimeWindow))
	if err != nil {
		return nil, err
	}
	classification := s.detector.Classify(senderID, amount, sender.Balance, recent, now)

	if err := s.accounts.UpdateBalanceTx(tx, sender.ID, sender.Balance-amount, sender.Version); err != nil {
		return nil, err
	}
	if err := s.accounts.UpdateBalanceTx(tx, receiver.ID, receiver.Balance+amount, receiver.Version); err != nil {
		return nil, err
	}

	if classification.IsFraud() {
		if err := s.accounts.SetFlagTx(tx, sender.ID, true); err != nil {
			return nil, err
		}
	}

	record := models.TransactionRecord{
		TransactionID: uuid.NewString(),
		Sender:        senderID,
		Receiver:      receiverID,
		Amount:        amount,
		Status:        classification.Status(),
		CreatedAt:     now,
	}
	if err := s.txlog.AppendTx(tx, &record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing transfer: %w", err)
	}

	if classification.IsFraud() {
		log.Printf("[LEDGER] Transfer %s flagged: %s", record.TransactionID, record.Status)
	}

	return &TransferResult{
		Record:         record,
		Classification: classification,
		SenderFlagged:  classification.IsFraud(),
	}, nil
}

// lockAccount reads one account under FOR UPDATE, translating a missing row
// into the right rejection for the caller: an unknown counterparty is
// ErrRecipientNotFound, an unknown sender is ErrNotFound.
func (s *LedgerService) lockAccount(tx *sql.Tx, id, senderID string) (*models.Account, error) {
	account, err := s.accounts.GetForUpdate(tx, id)
	if errors.Is(err, models.ErrNotFound) && id != senderID {
		return nil, models.ErrRecipientNotFound
	}
	return account, err
}

// TopUp credits an account from the SYSTEM sender. Top-ups are never fraud
// checked.
func (s *LedgerService) TopUp(ctx context.Context, accountID string, amount int64) (*models.TransactionRecord, error) {
	accountID = models.NormalizeID(accountID)
	if amount <= 0 {
		return nil, models.ErrInvalidAmount
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error starting top-up transaction: %w", err)
	}
	defer tx.Rollback()

	account, err := s.accounts.GetForUpdate(tx, accountID)
	if err != nil {
		return nil, err
	}

	if err := s.accounts.UpdateBalanceTx(tx, account.ID, account.Balance+amount, account.Version); err != nil {
		return nil, err
	}

	record := models.TransactionRecord{
		TransactionID: uuid.NewString(),
		Sender:        models.SenderSystem,
		Receiver:      accountID,
		Amount:        amount,
		Status:        models.StatusTopUp,
		CreatedAt:     time.Now(),
	}
	if err := s.txlog.AppendTx(tx, &record); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("error committing top-up: %w", err)
	}
	return &record, nil
}

// Register creates an account credited with the configured starting balance.
// The password hash is opaque to the ledger.
func (s *LedgerService) Register(ctx context.Context, id, passwordHash string) (*models.Account, error) {
	account := &models.Account{
		ID:           models.NormalizeID(id),
		PasswordHash: passwordHash,
		Balance:      s.cfg.StartingBalance,
		Role:         models.RoleUser,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	return account, nil
}

// GetAccount returns the account with the given id.
func (s *LedgerService) GetAccount(ctx context.Context, id string) (*models.Account, error) {
	return s.accounts.Get(ctx, id)
}

// History returns the account's transactions, newest first.
func (s *LedgerService) History(ctx context.Context, id string) ([]models.TransactionRecord, error) {
	return s.txlog.HistoryFor(ctx, id)
}

// FlaggedTransactions returns every fraud-classified record, newest first.
func (s *LedgerService) FlaggedTransactions(ctx context.Context) ([]models.TransactionRecord, error) {
	return s.txlog.Flagged(ctx)
}

// SuspiciousAccounts returns accounts that are flagged or have sent a
// fraud-classified transfer.
func (s *LedgerService) SuspiciousAccounts(ctx context.Context) ([]models.Account, error) {
	return s.accounts.Suspicious(ctx)
}

// SetFlag sets or clears an account's fraud flag (admin action).
func (s *LedgerService) SetFlag(ctx context.Context, id string, flagged bool) error {
	return s.accounts.SetFlag(ctx, id, flagged)
}

// Summary describes system-wide holdings for the admin dashboard.
type Summary struct {
	TotalBalance int64            `json:"total_balance"`
	TopAccounts  []models.Account `json:"top_accounts"`
}

// SystemSummary returns the total balance held and the richest accounts.
func (s *LedgerService) SystemSummary(ctx context.Context) (*Summary, error) {
	total, err := s.accounts.TotalBalance(ctx)
	if err != nil {
		return nil, err
	}
	top, err := s.accounts.TopByBalance(ctx, s.cfg.TopAccounts)
	if err != nil {
		return nil, err
	}
	return &Summary{TotalBalance: total, TopAccounts: top}, nil
}
