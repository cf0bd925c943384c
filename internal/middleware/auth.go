// internal/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mintforge/assetledger/internal/utils"
)

// AuthRequired resolves the Bearer token to the caller's ledger account
// and stores it in the context under "account_id".
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "authorization required",
			})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid authorization header",
			})
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			c.Abort()
			return
		}

		accountID, err := uuid.Parse(claims.Subject)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "invalid token subject",
			})
			c.Abort()
			return
		}

		c.Set("account_id", accountID)
		c.Next()
	}
}

// OptionalAuth sets the account when a valid token is present but never
// rejects the request.
func OptionalAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.Next()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			c.Next()
			return
		}

		if accountID, err := uuid.Parse(claims.Subject); err == nil {
			c.Set("account_id", accountID)
		}
		c.Next()
	}
}

// AdminRequired compares the X-Admin-Key header against the configured
// bcrypt hash. Admin routes still require a normal Bearer token so the
// acting account is known.
func AdminRequired(adminKeyHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-Admin-Key")
		if key == "" || adminKeyHash == "" {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "admin access denied",
			})
			c.Abort()
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(adminKeyHash), []byte(key)); err != nil {
			c.JSON(http.StatusForbidden, gin.H{
				"error": "admin access denied",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
