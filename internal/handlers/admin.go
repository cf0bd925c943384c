// internal/handlers/admin.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/mintforge/assetledger/internal/services"
	"github.com/mintforge/assetledger/internal/utils"
)

type AdminHandler struct {
	adminService *services.AdminService
}

func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

type setFeeRequest struct {
	FeeBps int64 `json:"fee_bps" binding:"min=0"`
}

// PUT /admin/settings/fee
func (h *AdminHandler) SetFeeBps(c *gin.Context) {
	admin, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req setFeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if err := h.adminService.SetFeeBps(admin, req.FeeBps); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"fee_bps": req.FeeBps,
	})
}

type setOperationalRequest struct {
	Operational *bool `json:"operational" binding:"required"`
}

// PUT /admin/settings/operational
func (h *AdminHandler) SetOperational(c *gin.Context) {
	admin, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req setOperationalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if err := h.adminService.SetOperational(admin, *req.Operational); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"operational": *req.Operational,
	})
}

// GET /admin/settings
func (h *AdminHandler) GetSettings(c *gin.Context) {
	settings, err := h.adminService.GetSettings()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"settings": settings,
	})
}

type setLicensableRequest struct {
	AssetIDs   []uint64 `json:"asset_ids" binding:"required,min=1"`
	Licensable *bool    `json:"licensable" binding:"required"`
}

// PUT /admin/assets/licensable
func (h *AdminHandler) SetLicensable(c *gin.Context) {
	admin, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req setLicensableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if err := h.adminService.SetLicensableBatch(admin, req.AssetIDs, *req.Licensable); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset_ids":  req.AssetIDs,
		"licensable": *req.Licensable,
	})
}

// GET /admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.PlatformStats()
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"stats": stats,
	})
}
