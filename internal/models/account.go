package models

import (
	"strings"
	"time"
)

// Role distinguishes ordinary wallet holders from administrators. Admin
// capability is an explicit field on the account, never inferred from the
// account id.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Account is one wallet. Balance is kept in minor units (cents) as int64;
// currency amounts never touch binary floats.
type Account struct {
	ID           string    `json:"id" db:"id"`
	PasswordHash string    `json:"-" db:"password_hash"` // opaque to the ledger core
	Balance      int64     `json:"balance" db:"balance"` // in cents
	Flagged      bool      `json:"flagged" db:"flagged"`
	Role         Role      `json:"role" db:"role"`
	Version      int       `json:"version" db:"version"` // for optimistic locking
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

func (a *Account) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// NormalizeID canonicalizes an account identifier. All lookups and writes go
// through this so "Alice@Example.com " and "alice@example.com" are the same
// account.
func NormalizeID(id string) string {
	return strings.ToLower(strings.TrimSpace(id))
}
