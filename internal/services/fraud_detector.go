package services

import (
	"fmt"
	"time"

	"github.com/dffdp/wallet-backend/internal/config"
	"github.com/dffdp/wallet-backend/internal/models"
	"github.com/dffdp/wallet-backend/internal/money"
)

// FraudKind tags the heuristic that matched a proposed transfer.
type FraudKind string

const (
	KindOK              FraudKind = "OK"
	KindFrequencyFraud  FraudKind = "FREQUENCY_FRAUD"
	KindAmountFraud     FraudKind = "AMOUNT_FRAUD"
	KindWithdrawalFraud FraudKind = "WITHDRAWAL_FRAUD"
)

// Classification is the detector's verdict on a proposed transfer. A non-OK
// classification flags the sender but never blocks the transfer.
type Classification struct {
	Kind   FraudKind `json:"kind"`
	Detail string    `json:"detail"`
}

func (c Classification) IsFraud() bool {
	return c.Kind != KindOK
}

// Status renders the classification as the status string recorded on the
// transaction, e.g. "AMOUNT_FRAUD - Exceeds 1000.00".
func (c Classification) Status() string {
	if !c.IsFraud() {
		return models.StatusOK
	}
	return fmt.Sprintf("%s - %s", c.Kind, c.Detail)
}

// FraudDetector evaluates a proposed transfer against the configured
// heuristics. It is a pure function of its inputs: it reads no state and
// takes the clock as a parameter.
type FraudDetector struct {
	cfg config.FraudConfig
}

func NewFraudDetector(cfg config.FraudConfig) *FraudDetector {
	return &FraudDetector{cfg: cfg}
}

// Classify checks the three patterns in fixed priority order and returns the
// first match:
//
//  1. frequency: transfers from the sender inside the time window, counting
//     the proposed one, reach the frequency threshold
//  2. amount: the proposed amount exceeds the single-transfer threshold
//  3. withdrawal ratio: the proposed amount exceeds the configured fraction
//     of the sender's balance before the debit
//
// recent must be the sender's records no older than the window; balance is
// the sender's balance as observed before this transfer's debit.
func (d *FraudDetector) Classify(sender string, amount, balance int64, recent []models.TransactionRecord, now time.Time) Classification {
	windowStart := now.Add(-d.cfg.TimeWindow)
	count := 0
	for _, record := range recent {
		if record.Sender == sender && !record.CreatedAt.Before(windowStart) {
			count++
		}
	}
	if count+1 >= d.cfg.FrequencyThreshold {
		return Classification{
			Kind: KindFrequencyFraud,
			Detail: fmt.Sprintf("%d transactions in last %d minutes",
				count+1, int(d.cfg.TimeWindow.Minutes())),
		}
	}

	if amount > d.cfg.AmountThreshold {
		return Classification{
			Kind:   KindAmountFraud,
			Detail: fmt.Sprintf("Exceeds %s", money.Format(d.cfg.AmountThreshold)),
		}
	}

	if balance > 0 {
		ratio := float64(amount) / float64(balance)
		if ratio > d.cfg.LargeWithdrawalRatio {
			return Classification{
				Kind:   KindWithdrawalFraud,
				Detail: fmt.Sprintf("Withdrawal of %.0f%% of total balance", ratio*100),
			}
		}
	}

	return Classification{Kind: KindOK}
}
