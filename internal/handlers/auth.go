// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mintforge/assetledger/internal/utils"
)

// AuthHandler issues bearer tokens for ledger accounts. Accounts are
// opaque identifiers with no profile attached, so a fresh account is
// just a fresh UUID bound into a token.
type AuthHandler struct {
	tokenTTLHours int
}

func NewAuthHandler(tokenTTLHours int) *AuthHandler {
	return &AuthHandler{
		tokenTTLHours: tokenTTLHours,
	}
}

// POST /auth/accounts
func (h *AuthHandler) CreateAccount(c *gin.Context) {
	accountID := uuid.New()

	token, err := utils.GenerateJWT(accountID, h.tokenTTLHours)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.CreatedResponse(c, gin.H{
		"account_id": accountID,
		"token":      token,
	})
}

type refreshTokenRequest struct {
	AccountID uuid.UUID `json:"account_id" binding:"required"`
}

// POST /auth/tokens
//
// Re-issues a token for a known account. There is no password layer in
// front of the ledger; deployments front this endpoint with their own
// identity provider.
func (h *AuthHandler) IssueToken(c *gin.Context) {
	var req refreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}
	if req.AccountID == uuid.Nil {
		utils.BadRequestResponse(c, "Invalid account_id", nil)
		return
	}

	token, err := utils.GenerateJWT(req.AccountID, h.tokenTTLHours)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"account_id": req.AccountID,
		"token":      token,
	})
}
