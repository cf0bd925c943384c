// internal/services/payment_service.go
package services

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
	"github.com/stripe/stripe-go/v74/payout"
	"gorm.io/gorm"

	"github.com/mintforge/assetledger/internal/config"
	"github.com/mintforge/assetledger/internal/database"
	"github.com/mintforge/assetledger/internal/models"
	"github.com/mintforge/assetledger/internal/utils"
)

// PaymentService moves value between the outside world and ledger
// accounts. Deposits go through a Stripe payment intent; withdrawals
// debit the ledger first and then issue a payout.
type PaymentService struct {
	db       *gorm.DB
	accounts *AccountService
	events   *EventService
	config   *config.Config
}

type CreateDepositRequest struct {
	Amount   int64  `json:"amount" validate:"required,gt=0"`
	Currency string `json:"currency,omitempty"`
}

type DepositIntentResponse struct {
	ClientSecret string `json:"client_secret"`
	PaymentID    string `json:"payment_id"`
	Status       string `json:"status"`
	Amount       int64  `json:"amount"`
}

type ConfirmDepositRequest struct {
	PaymentIntentID string `json:"payment_intent_id" validate:"required"`
}

type WithdrawRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0"`
	Destination string `json:"destination,omitempty"`
}

func NewPaymentService(db *gorm.DB, accounts *AccountService, events *EventService, cfg *config.Config) *PaymentService {
	stripe.Key = cfg.Payment.StripeSecretKey

	return &PaymentService{
		db:       db,
		accounts: accounts,
		events:   events,
		config:   cfg,
	}
}

// CreateDeposit opens a Stripe payment intent for the amount. The
// ledger account is only credited once ConfirmDeposit sees the intent
// succeed.
func (s *PaymentService) CreateDeposit(accountID uuid.UUID, req *CreateDepositRequest) (*DepositIntentResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.Amount < s.config.Payment.MinimumDeposit {
		return nil, fmt.Errorf("%w: minimum deposit is %d", ErrInvalidInput, s.config.Payment.MinimumDeposit)
	}

	currency := req.Currency
	if currency == "" {
		currency = "usd"
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.Amount),
		Currency: stripe.String(currency),
	}
	params.AddMetadata("account_id", accountID.String())

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &DepositIntentResponse{
		ClientSecret: pi.ClientSecret,
		PaymentID:    pi.ID,
		Status:       string(pi.Status),
		Amount:       req.Amount,
	}, nil
}

// ConfirmDeposit checks the payment intent with Stripe and, on
// success, credits the account. The intent ID doubles as the entry
// reference so replayed confirmations credit at most once.
func (s *PaymentService) ConfirmDeposit(accountID uuid.UUID, req *ConfirmDepositRequest) (int64, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	pi, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to get payment intent: %w", err)
	}

	if pi.Metadata["account_id"] != accountID.String() {
		return 0, fmt.Errorf("%w: payment intent belongs to another account", ErrInvalidInput)
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return 0, fmt.Errorf("%w: payment intent status %s", ErrInsufficientPayment, pi.Status)
	}

	amount := pi.Amount
	err = database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.accounts.Credit(tx, accountID, amount, "stripe:"+pi.ID, models.EntryKindDeposit); err != nil {
			return err
		}
		return s.events.Emit(tx, &models.Event{
			Type:  models.EventAccountDeposited,
			Actor: accountID,
			Data: models.JSONB{
				"amount":    amount,
				"reference": pi.ID,
			},
		})
	})
	if err != nil {
		return 0, err
	}

	return amount, nil
}

// Withdraw debits the ledger account and issues a Stripe payout. The
// debit happens inside the transaction so an account can never pay out
// more than its confirmed balance.
func (s *PaymentService) Withdraw(accountID uuid.UUID, req *WithdrawRequest) error {
	if err := utils.ValidateStruct(req); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if req.Amount < s.config.Payment.MinimumPayout {
		return fmt.Errorf("%w: minimum payout is %d", ErrInvalidInput, s.config.Payment.MinimumPayout)
	}

	txnID := uuid.New()
	return database.WithTransaction(s.db, func(tx *gorm.DB) error {
		if err := s.accounts.Debit(tx, accountID, req.Amount, settlementRef(txnID, "payout"), models.EntryKindWithdraw); err != nil {
			return err
		}

		params := &stripe.PayoutParams{
			Amount:   stripe.Int64(req.Amount),
			Currency: stripe.String("usd"),
		}
		params.AddMetadata("account_id", accountID.String())
		if req.Destination != "" {
			params.Destination = stripe.String(req.Destination)
		}
		if _, err := payout.New(params); err != nil {
			return fmt.Errorf("failed to create payout: %w", err)
		}

		return s.events.Emit(tx, &models.Event{
			Type:  models.EventAccountWithdrawn,
			Actor: accountID,
			Data: models.JSONB{
				"amount": req.Amount,
			},
		})
	})
}

// GetBalance returns the current confirmed balance for the account.
func (s *PaymentService) GetBalance(accountID uuid.UUID) (int64, error) {
	return s.accounts.GetBalance(accountID)
}

// GetHistory returns the account's ledger entries, newest first.
func (s *PaymentService) GetHistory(accountID uuid.UUID, params utils.PaginationParams) ([]models.LedgerEntry, int64, error) {
	query := s.db.Model(&models.LedgerEntry{}).Where("account_id = ?", accountID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	query = utils.ApplyPagination(query.Order("id DESC"), params)

	var entries []models.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to fetch ledger entries: %w", err)
	}

	return entries, total, nil
}
