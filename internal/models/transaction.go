package models

import (
	"strings"
	"time"
)

const (
	// SenderSystem is the sentinel sender recorded on top-ups.
	SenderSystem = "SYSTEM"

	StatusOK    = "OK"
	StatusTopUp = "TOP-UP"

	fraudMarker = "FRAUD"
)

// TransactionRecord is one committed transfer or top-up. Records are
// append-only: once written they are never edited or removed.
type TransactionRecord struct {
	ID            int64     `json:"id" db:"id"`
	TransactionID string    `json:"transaction_id" db:"transaction_id"`
	Sender        string    `json:"sender" db:"sender"`
	Receiver      string    `json:"receiver" db:"receiver"`
	Amount        int64     `json:"amount" db:"amount"` // in cents
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// IsFraudStatus reports whether a status string carries a fraud
// classification. Substring match is the contract: any non-OK, non-TOP-UP
// status containing the marker is fraud.
func IsFraudStatus(status string) bool {
	return strings.Contains(status, fraudMarker)
}
