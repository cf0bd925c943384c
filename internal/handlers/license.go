// internal/handlers/license.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mintforge/assetledger/internal/services"
	"github.com/mintforge/assetledger/internal/utils"
)

type LicenseHandler struct {
	licenseService *services.LicenseService
}

func NewLicenseHandler(licenseService *services.LicenseService) *LicenseHandler {
	return &LicenseHandler{
		licenseService: licenseService,
	}
}

// POST /licenses
// The authenticated caller purchases the license for themselves; funds
// only ever leave the caller's account.
func (h *LicenseHandler) CreateLicense(c *gin.Context) {
	licensee, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateLicenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	license, err := h.licenseService.CreateLicense(licensee, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"license": license,
	})
}

// GET /licenses
func (h *LicenseHandler) SearchLicenses(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.LicenseSearchParams{
		PaginationParams: params,
	}

	if assetID, ok := parseOptionalID(c, "asset_id"); ok {
		searchParams.AssetID = &assetID
	}
	if licenseeStr := c.Query("licensee"); licenseeStr != "" {
		if licensee, err := uuid.Parse(licenseeStr); err == nil {
			searchParams.Licensee = &licensee
		}
	}
	if licensorStr := c.Query("licensor"); licensorStr != "" {
		if licensor, err := uuid.Parse(licensorStr); err == nil {
			searchParams.Licensor = &licensor
		}
	}
	if activeStr := c.Query("active"); activeStr != "" {
		active := activeStr == "true"
		searchParams.Active = &active
	}

	licenses, total, err := h.licenseService.SearchLicenses(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(licenses, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /licenses/:id
func (h *LicenseHandler) GetLicense(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	license, err := h.licenseService.GetLicense(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license": license,
	})
}

// POST /licenses/:id/usage
func (h *LicenseHandler) RecordUsage(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	caller, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.RecordUsageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	record, err := h.licenseService.RecordUsage(id, caller, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"usage_record": record,
	})
}

// GET /licenses/:id/usage
func (h *LicenseHandler) GetUsageRecords(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	records, total, err := h.licenseService.GetUsageRecords(id, params)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result := utils.CreatePaginationResult(records, total, params)
	utils.PaginatedResponse(c, result)
}

// DELETE /licenses/:id
func (h *LicenseHandler) DeactivateLicense(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	caller, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	license, err := h.licenseService.DeactivateLicense(id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"license": license,
	})
}

// GET /licenses/check
func (h *LicenseHandler) CheckLicense(c *gin.Context) {
	assetID, ok := parseOptionalID(c, "asset_id")
	if !ok {
		utils.BadRequestResponse(c, "Invalid asset_id", nil)
		return
	}

	user, exists := utils.GetAccountIDFromContext(c)
	if userStr := c.Query("user"); userStr != "" {
		if parsed, err := uuid.Parse(userStr); err == nil {
			user = parsed
			exists = true
		}
	}
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	valid, err := h.licenseService.HasValidLicense(user, assetID)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset_id": assetID,
		"user":     user,
		"valid":    valid,
	})
}
