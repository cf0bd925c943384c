// internal/models/account.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Account maps an opaque external identity to a balance the ledger can
// credit and debit. Balances are in the smallest currency unit.
type Account struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Balance   int64     `json:"balance" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LedgerEntry records one signed balance movement. Ref carries the
// transaction id and leg name; its unique index makes credit/debit
// idempotent under retry.
type LedgerEntry struct {
	ID        uint64    `json:"id" gorm:"primaryKey;autoIncrement"`
	Ref       string    `json:"ref" gorm:"size:80;not null;uniqueIndex"`
	AccountID uuid.UUID `json:"account_id" gorm:"type:uuid;not null;index"`
	Amount    int64     `json:"amount" gorm:"not null"`
	Kind      EntryKind `json:"kind" gorm:"type:varchar(20);not null;index"`
	CreatedAt time.Time `json:"created_at"`
}
