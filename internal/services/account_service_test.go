// internal/services/account_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mintforge/assetledger/internal/database"
	"github.com/mintforge/assetledger/internal/models"
)

func TestCreditAndDebit(t *testing.T) {
	env := newTestEnv(t)
	account := uuid.New()

	env.fund(t, account, 1000)
	assert.Equal(t, int64(1000), env.balance(t, account))

	err := database.WithTransaction(env.db, func(tx *gorm.DB) error {
		return env.accounts.Debit(tx, account, 400, "test:debit", models.EntryKindPayment)
	})
	require.NoError(t, err)
	assert.Equal(t, int64(600), env.balance(t, account))
}

func TestDebitInsufficientFunds(t *testing.T) {
	env := newTestEnv(t)
	account := uuid.New()
	env.fund(t, account, 100)

	err := database.WithTransaction(env.db, func(tx *gorm.DB) error {
		return env.accounts.Debit(tx, account, 101, "test:over", models.EntryKindPayment)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
	assert.Equal(t, int64(100), env.balance(t, account))
}

func TestDebitUnknownAccount(t *testing.T) {
	env := newTestEnv(t)

	err := database.WithTransaction(env.db, func(tx *gorm.DB) error {
		return env.accounts.Debit(tx, uuid.New(), 1, "test:unknown", models.EntryKindPayment)
	})
	assert.ErrorIs(t, err, ErrInsufficientFunds)
}

func TestUnknownAccountBalanceIsZero(t *testing.T) {
	env := newTestEnv(t)
	assert.Equal(t, int64(0), env.balance(t, uuid.New()))
}

func TestDuplicateRefAppliesOnce(t *testing.T) {
	env := newTestEnv(t)
	account := uuid.New()

	for i := 0; i < 3; i++ {
		err := database.WithTransaction(env.db, func(tx *gorm.DB) error {
			return env.accounts.Credit(tx, account, 500, "test:once", models.EntryKindDeposit)
		})
		require.NoError(t, err)
	}

	assert.Equal(t, int64(500), env.balance(t, account))

	var entries int64
	require.NoError(t, env.db.Model(&models.LedgerEntry{}).
		Where("ref = ?", "test:once").Count(&entries).Error)
	assert.Equal(t, int64(1), entries)
}

func TestNegativeAmountsRejected(t *testing.T) {
	env := newTestEnv(t)
	account := uuid.New()

	err := database.WithTransaction(env.db, func(tx *gorm.DB) error {
		return env.accounts.Credit(tx, account, -5, "test:neg-credit", models.EntryKindDeposit)
	})
	assert.ErrorIs(t, err, ErrInvalidInput)

	err = database.WithTransaction(env.db, func(tx *gorm.DB) error {
		return env.accounts.Debit(tx, account, -5, "test:neg-debit", models.EntryKindPayment)
	})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestZeroAmountWritesNoEntry(t *testing.T) {
	env := newTestEnv(t)
	account := uuid.New()

	err := database.WithTransaction(env.db, func(tx *gorm.DB) error {
		return env.accounts.Credit(tx, account, 0, "test:zero", models.EntryKindDeposit)
	})
	require.NoError(t, err)

	var entries int64
	require.NoError(t, env.db.Model(&models.LedgerEntry{}).
		Where("ref = ?", "test:zero").Count(&entries).Error)
	assert.Equal(t, int64(0), entries)
}

func TestGetEntriesNewestFirst(t *testing.T) {
	env := newTestEnv(t)
	account := uuid.New()
	env.fund(t, account, 100)
	env.fund(t, account, 200)

	entries, err := env.accounts.GetEntries(account, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, int64(200), entries[0].Amount)
	assert.Equal(t, int64(100), entries[1].Amount)
}
