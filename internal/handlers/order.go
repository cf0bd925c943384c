// internal/handlers/order.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mintforge/assetledger/internal/models"
	"github.com/mintforge/assetledger/internal/services"
	"github.com/mintforge/assetledger/internal/utils"
)

type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{
		orderService: orderService,
	}
}

// POST /orders/fixed
func (h *OrderHandler) CreateFixedPriceOrder(c *gin.Context) {
	seller, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateFixedPriceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, err := h.orderService.CreateFixedPriceOrder(seller, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"order": order,
	})
}

// POST /orders/auction
func (h *OrderHandler) CreateAuctionOrder(c *gin.Context) {
	seller, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req services.CreateAuctionOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	if validationErrors := utils.GetValidationErrors(utils.ValidateStruct(&req)); len(validationErrors) > 0 {
		utils.ValidationErrorResponse(c, validationErrors)
		return
	}

	order, err := h.orderService.CreateAuctionOrder(seller, &req)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.CreatedResponse(c, gin.H{
		"order": order,
	})
}

// GET /orders
func (h *OrderHandler) SearchActiveOrders(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	searchParams := services.OrderSearchParams{
		PaginationParams: params,
	}

	if assetID, ok := parseOptionalID(c, "asset_id"); ok {
		searchParams.AssetID = &assetID
	}
	if sellerStr := c.Query("seller"); sellerStr != "" {
		if seller, err := uuid.Parse(sellerStr); err == nil {
			searchParams.Seller = &seller
		}
	}
	if kindStr := c.Query("kind"); kindStr != "" {
		kind := models.OrderKind(kindStr)
		searchParams.Kind = &kind
	}

	orders, total, err := h.orderService.SearchActiveOrders(searchParams)
	if err != nil {
		utils.InternalErrorResponse(c, err.Error())
		return
	}

	result := utils.CreatePaginationResult(orders, total, params)
	utils.PaginatedResponse(c, result)
}

// GET /orders/:id
func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetOrder(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// GET /orders/:id/bids
func (h *OrderHandler) GetBids(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	bids, err := h.orderService.GetBids(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"bids": bids,
	})
}

type buyOrderRequest struct {
	Payment int64 `json:"payment" binding:"required,gt=0"`
}

// POST /orders/:id/buy
func (h *OrderHandler) BuyFixedPrice(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	buyer, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req buyOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	order, err := h.orderService.BuyFixedPrice(id, buyer, req.Payment)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

type placeBidRequest struct {
	Amount int64 `json:"amount" binding:"required,gt=0"`
}

// POST /orders/:id/bids
func (h *OrderHandler) PlaceBid(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	bidder, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	var req placeBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid input", err.Error())
		return
	}

	order, err := h.orderService.PlaceBid(id, bidder, req.Amount)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// DELETE /orders/:id/bids
func (h *OrderHandler) WithdrawBid(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	bidder, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	if err := h.orderService.WithdrawBid(id, bidder); err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": "Bid withdrawn",
	})
}

// POST /orders/:id/end
func (h *OrderHandler) EndAuction(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	caller, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	order, err := h.orderService.EndAuction(id, caller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}

// DELETE /orders/:id
func (h *OrderHandler) CancelOrder(c *gin.Context) {
	id, ok := parseEntityID(c, "id")
	if !ok {
		return
	}

	seller, exists := utils.GetAccountIDFromContext(c)
	if !exists {
		utils.UnauthorizedResponse(c, "")
		return
	}

	order, err := h.orderService.CancelOrder(id, seller)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"order": order,
	})
}
