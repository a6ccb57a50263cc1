// Package audit records every ledger-affecting action: who did it, what it
// was, and enough detail (amount, parties, status) to reconstruct the event.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"time"
)

// Actions recorded in the audit log.
const (
	ActionRegister    = "REGISTER"
	ActionLogin       = "LOGIN"
	ActionLogout      = "LOGOUT"
	ActionAddMoney    = "ADD_MONEY"
	ActionSendMoney   = "SEND_MONEY"
	ActionReportFraud = "REPORT_FRAUD"
	ActionClearFlag   = "CLEAR_FLAG"
)

type Event struct {
	AccountID string    `json:"account_id"`
	Action    string    `json:"action"`
	Details   string    `json:"details"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger appends audit events to the audit_log table and mirrors each one to
// the process log. A failed append is logged, never surfaced: audit must not
// roll back a committed transfer.
type Logger struct {
	db *sql.DB
}

func NewLogger(db *sql.DB) *Logger {
	return &Logger{db: db}
}

func (l *Logger) Record(ctx context.Context, accountID, action, details string) {
	event := Event{
		AccountID: accountID,
		Action:    action,
		Details:   details,
		Timestamp: time.Now(),
	}

	data, _ := json.Marshal(event)
	log.Printf("AUDIT: %s", string(data))

	if l.db == nil {
		return
	}
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO audit_log (account_id, action, details, created_at)
		VALUES ($1, $2, $3, $4)`,
		event.AccountID, event.Action, event.Details, event.Timestamp)
	if err != nil {
		log.Printf("AUDIT: failed to persist event for %s: %v", accountID, err)
	}
}
