package models

import "errors"

// Validation errors returned by the ledger service. Each rejection is a
// distinct sentinel so callers can render an accurate message.
var (
	ErrInvalidAmount     = errors.New("amount must be greater than zero")
	ErrSelfTransfer      = errors.New("cannot send money to yourself")
	ErrRecipientNotFound = errors.New("recipient does not exist")
	ErrInsufficientFunds = errors.New("insufficient balance")
)

// Store errors.
var (
	ErrNotFound      = errors.New("account not found")
	ErrAlreadyExists = errors.New("account already exists")
)
