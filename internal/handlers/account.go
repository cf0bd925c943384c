// internal/handlers/account.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mintforge/assetledger/internal/services"
	"github.com/mintforge/assetledger/internal/utils"
)

type AccountHandler struct {
	paymentService *services.PaymentService
}

func NewAccountHandler(paymentService *services.PaymentService) *AccountHandler {
	return &AccountHandler{
		paymentService: paymentService,
	}
}

// GET /account/balance
func (h *AccountHandler) GetBalance(c *gin.Context) {
	accountID, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	balance, err := h.paymentService.GetBalance(accountID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account_id": accountID,
		"balance":    balance,
	})
}

// GET /account/entries
func (h *AccountHandler) GetHistory(c *gin.Context) {
	accountID, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	params := utils.GetPaginationParams(c)
	entries, total, err := h.paymentService.GetHistory(accountID, params)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(entries, total, params)
	utils.PaginatedResponse(c, result)
}

// POST /account/deposits
func (h *AccountHandler) CreateDeposit(c *gin.Context) {
	accountID, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	intent, err := h.paymentService.CreateDeposit(accountID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"deposit": intent,
	})
}

// POST /account/deposits/confirm
func (h *AccountHandler) ConfirmDeposit(c *gin.Context) {
	accountID, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.ConfirmDepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	amount, err := h.paymentService.ConfirmDeposit(accountID, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"amount": amount,
	})
}

// POST /account/withdrawals
func (h *AccountHandler) Withdraw(c *gin.Context) {
	accountID, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if err := h.paymentService.Withdraw(accountID, &req); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Withdrawal submitted",
	})
}
