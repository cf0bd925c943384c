// internal/handlers/asset.go
package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mintforge/assetledger/internal/models"
	"github.com/mintforge/assetledger/internal/services"
	"github.com/mintforge/assetledger/internal/utils"
)

type AssetHandler struct {
	assetService *services.AssetService
}

func NewAssetHandler(assetService *services.AssetService) *AssetHandler {
	return &AssetHandler{
		assetService: assetService,
	}
}

func parseEntityID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		utils.BadRequestResponse(c, "Invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func parseOptionalID(c *gin.Context, name string) (uint64, bool) {
	value := c.Query(name)
	if value == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(value, 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

// POST /assets
func (h *AssetHandler) Mint(c *gin.Context) {
	creator, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.MintRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	asset, err := h.assetService.Mint(creator, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"asset": asset,
	})
}

// GET /assets
func (h *AssetHandler) SearchAssets(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.AssetSearchParams{
		PaginationParams: params,
	}

	if ownerStr := c.Query("owner"); ownerStr != "" {
		if owner, err := uuid.Parse(ownerStr); err == nil {
			searchParams.Owner = &owner
		}
	}
	if creatorStr := c.Query("creator"); creatorStr != "" {
		if creator, err := uuid.Parse(creatorStr); err == nil {
			searchParams.Creator = &creator
		}
	}
	if kindStr := c.Query("kind"); kindStr != "" {
		kind := models.AssetKind(kindStr)
		searchParams.Kind = &kind
	}
	if forSaleStr := c.Query("for_sale"); forSaleStr != "" {
		forSale := forSaleStr == "true"
		searchParams.ForSale = &forSale
	}

	assets, total, err := h.assetService.SearchAssets(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(assets, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /assets/:id
func (h *AssetHandler) GetAsset(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	asset, err := h.assetService.GetAsset(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset": asset,
	})
}

// GET /assets/:id/versions
func (h *AssetHandler) GetVersions(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	versions, err := h.assetService.GetVersions(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"versions": versions,
	})
}

// POST /assets/:id/versions
func (h *AssetHandler) UpdateVersion(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	caller, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.UpdateVersionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	asset, err := h.assetService.UpdateVersion(id, caller, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset": asset,
	})
}

// PUT /assets/:id/sale-terms
func (h *AssetHandler) SetSaleTerms(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	caller, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.SaleTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	asset, err := h.assetService.SetSaleTerms(id, caller, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset": asset,
	})
}

type directBuyRequest struct {
	Payment int64 `json:"payment" binding:"required,gt=0"`
}

// POST /assets/:id/buy
func (h *AssetHandler) DirectBuy(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	buyer, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req directBuyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	asset, err := h.assetService.DirectBuy(id, buyer, req.Payment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"asset": asset,
	})
}
