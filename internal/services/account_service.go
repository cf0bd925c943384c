// internal/services/account_service.go
package services

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/mintforge/assetledger/internal/database"
	"github.com/mintforge/assetledger/internal/models"
)

// AccountService is the ledger's account registry collaborator: it maps
// opaque account ids to balances and moves value with idempotent,
// append-only ledger entries. Credit and Debit take the surrounding
// transaction handle so a payment is never recorded without the state
// change it accompanies.
type AccountService struct {
	db *gorm.DB
}

func NewAccountService(db *gorm.DB) *AccountService {
	return &AccountService{db: db}
}

// Credit adds amount to the account, creating it on first use. A ref
// that was already applied is a no-op, so retries are safe.
func (s *AccountService) Credit(tx *gorm.DB, account uuid.UUID, amount int64, ref string, kind models.EntryKind) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative credit amount", ErrInvalidInput)
	}
	if amount == 0 {
		return nil
	}

	applied, err := s.appendEntry(tx, account, amount, ref, kind)
	if err != nil || !applied {
		return err
	}

	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.Account{ID: account}).Error; err != nil {
		return fmt.Errorf("failed to ensure account: %w", err)
	}

	if err := tx.Model(&models.Account{}).Where("id = ?", account).
		UpdateColumn("balance", gorm.Expr("balance + ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to credit account: %w", err)
	}

	return nil
}

// Debit removes amount from the account, failing with
// ErrInsufficientFunds if the balance does not cover it.
func (s *AccountService) Debit(tx *gorm.DB, account uuid.UUID, amount int64, ref string, kind models.EntryKind) error {
	if amount < 0 {
		return fmt.Errorf("%w: negative debit amount", ErrInvalidInput)
	}
	if amount == 0 {
		return nil
	}

	applied, err := s.appendEntry(tx, account, -amount, ref, kind)
	if err != nil || !applied {
		return err
	}

	var acct models.Account
	if err := database.LockForUpdate(tx).First(&acct, "id = ?", account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInsufficientFunds
		}
		return fmt.Errorf("failed to load account: %w", err)
	}

	if acct.Balance < amount {
		return ErrInsufficientFunds
	}

	if err := tx.Model(&models.Account{}).Where("id = ?", account).
		UpdateColumn("balance", gorm.Expr("balance - ?", amount)).Error; err != nil {
		return fmt.Errorf("failed to debit account: %w", err)
	}

	return nil
}

// appendEntry writes the movement record. Returns false when the ref
// was already applied by an earlier attempt.
func (s *AccountService) appendEntry(tx *gorm.DB, account uuid.UUID, amount int64, ref string, kind models.EntryKind) (bool, error) {
	var count int64
	if err := tx.Model(&models.LedgerEntry{}).Where("ref = ?", ref).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check ledger ref: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	entry := &models.LedgerEntry{
		Ref:       ref,
		AccountID: account,
		Amount:    amount,
		Kind:      kind,
	}
	if err := tx.Create(entry).Error; err != nil {
		return false, fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return true, nil
}

func (s *AccountService) GetBalance(account uuid.UUID) (int64, error) {
	var acct models.Account
	if err := s.db.First(&acct, "id = ?", account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to load account: %w", err)
	}
	return acct.Balance, nil
}

func (s *AccountService) GetEntries(account uuid.UUID, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var entries []models.LedgerEntry
	if err := s.db.Where("account_id = ?", account).
		Order("id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch ledger entries: %w", err)
	}
	return entries, nil
}

// settlementRef builds the per-leg idempotency ref for a value transfer
// inside one settlement transaction.
func settlementRef(txnID uuid.UUID, leg string) string {
	return txnID.String() + ":" + leg
}
