package config

import (
	"time"

	"github.com/spf13/viper"
)

// FraudConfig holds the thresholds for the fraud heuristics. Amounts are in
// cents.
type FraudConfig struct {
	// AmountThreshold: a single transfer above this amount classifies as
	// AMOUNT_FRAUD. Default 1000.00 units.
	AmountThreshold int64
	// FrequencyThreshold: this many transfers from one sender inside
	// TimeWindow (counting the proposed one) classifies as FREQUENCY_FRAUD.
	// Default 5.
	FrequencyThreshold int
	// TimeWindow for the frequency check. Default 10 minutes.
	TimeWindow time.Duration
	// LargeWithdrawalRatio: a transfer exceeding this fraction of the
	// sender's balance classifies as WITHDRAWAL_FRAUD. Default 0.5.
	LargeWithdrawalRatio float64
}

// LedgerConfig holds wallet-level settings.
type LedgerConfig struct {
	// StartingBalance credited to every new account, in cents. Default
	// 1000.00 units.
	StartingBalance int64
	// TopAccounts is how many accounts the system summary ranks by balance.
	TopAccounts int
}

// LoadFraudConfig returns fraud detection configuration with defaults.
func LoadFraudConfig() FraudConfig {
	viper.SetDefault("fraud.amount_threshold", int64(100000))
	viper.SetDefault("fraud.frequency_threshold", 5)
	viper.SetDefault("fraud.time_window", 10*time.Minute)
	viper.SetDefault("fraud.large_withdrawal_ratio", 0.5)

	return FraudConfig{
		AmountThreshold:      viper.GetInt64("fraud.amount_threshold"),
		FrequencyThreshold:   viper.GetInt("fraud.frequency_threshold"),
		TimeWindow:           viper.GetDuration("fraud.time_window"),
		LargeWithdrawalRatio: viper.GetFloat64("fraud.large_withdrawal_ratio"),
	}
}

// LoadLedgerConfig returns ledger configuration with defaults.
func LoadLedgerConfig() LedgerConfig {
	viper.SetDefault("ledger.starting_balance", int64(100000))
	viper.SetDefault("ledger.top_accounts", 5)

	return LedgerConfig{
		StartingBalance: viper.GetInt64("ledger.starting_balance"),
		TopAccounts:     viper.GetInt("ledger.top_accounts"),
	}
}
