// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mintforge/assetledger/internal/config"
	"github.com/mintforge/assetledger/internal/handlers"
	"github.com/mintforge/assetledger/internal/middleware"
	"github.com/mintforge/assetledger/internal/services"
	"github.com/mintforge/assetledger/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	accountService := services.NewAccountService(db)
	eventService := services.NewEventService(db)
	adminService := services.NewAdminService(db, eventService)
	assetService := services.NewAssetService(db, accountService, eventService)
	orderService := services.NewOrderService(db, accountService, eventService, cfg)
	licenseService := services.NewLicenseService(db, accountService, eventService)
	paymentService := services.NewPaymentService(db, accountService, eventService, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg.JWT.AccessTokenTTL)
	assetHandler := handlers.NewAssetHandler(assetService)
	orderHandler := handlers.NewOrderHandler(orderService)
	licenseHandler := handlers.NewLicenseHandler(licenseService)
	accountHandler := handlers.NewAccountHandler(paymentService)
	adminHandler := handlers.NewAdminHandler(adminService)
	eventHandler := handlers.NewEventHandler(eventService, cfg.Platform.EventFeedLimit)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Admin-Key"},
		ExposeHeaders:    []string{"X-Total-Count", "X-Page", "X-Per-Page", "X-Total-Pages"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.GeneralRateLimit())

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Account and token issuance
		auth := v1.Group("/auth")
		{
			auth.POST("/accounts", authHandler.CreateAccount)
			auth.POST("/tokens", authHandler.IssueToken)
		}

		// Asset routes
		assets := v1.Group("/assets")
		{
			assets.GET("", assetHandler.SearchAssets)
			assets.GET("/:id", assetHandler.GetAsset)
			assets.GET("/:id/versions", assetHandler.GetVersions)

			protected := assets.Group("")
			protected.Use(middleware.AuthRequired(), middleware.MutationRateLimit())
			{
				protected.POST("", assetHandler.Mint)
				protected.POST("/:id/versions", assetHandler.UpdateVersion)
				protected.PUT("/:id/sale-terms", assetHandler.SetSaleTerms)
				protected.POST("/:id/buy", assetHandler.DirectBuy)
			}
		}

		// Order routes
		orders := v1.Group("/orders")
		{
			orders.GET("", orderHandler.SearchActiveOrders)
			orders.GET("/:id", orderHandler.GetOrder)
			orders.GET("/:id/bids", orderHandler.GetBids)

			protected := orders.Group("")
			protected.Use(middleware.AuthRequired(), middleware.MutationRateLimit())
			{
				protected.POST("/fixed", orderHandler.CreateFixedPriceOrder)
				protected.POST("/auction", orderHandler.CreateAuctionOrder)
				protected.POST("/:id/buy", orderHandler.BuyFixedPrice)
				protected.POST("/:id/bids", orderHandler.PlaceBid)
				protected.DELETE("/:id/bids", orderHandler.WithdrawBid)
				protected.POST("/:id/end", orderHandler.EndAuction)
				protected.DELETE("/:id", orderHandler.CancelOrder)
			}
		}

		// License routes
		licenses := v1.Group("/licenses")
		{
			licenses.GET("", licenseHandler.SearchLicenses)
			licenses.GET("/check", middleware.OptionalAuth(), licenseHandler.CheckLicense)
			licenses.GET("/:id", licenseHandler.GetLicense)
			licenses.GET("/:id/usage", licenseHandler.GetUsageRecords)

			protected := licenses.Group("")
			protected.Use(middleware.AuthRequired(), middleware.MutationRateLimit())
			{
				protected.POST("", licenseHandler.CreateLicense)
				protected.POST("/:id/usage", licenseHandler.RecordUsage)
				protected.DELETE("/:id", licenseHandler.DeactivateLicense)
			}
		}

		// Account routes
		account := v1.Group("/account")
		account.Use(middleware.AuthRequired())
		{
			account.GET("/balance", accountHandler.GetBalance)
			account.GET("/entries", accountHandler.GetHistory)

			funding := account.Group("")
			funding.Use(middleware.MutationRateLimit())
			{
				funding.POST("/deposits", accountHandler.CreateDeposit)
				funding.POST("/deposits/confirm", accountHandler.ConfirmDeposit)
				funding.POST("/withdrawals", accountHandler.Withdraw)
			}
		}

		// Event feed (public, append-only)
		events := v1.Group("/events")
		{
			events.GET("", eventHandler.GetFeed)
		}

		// Admin routes
		admin := v1.Group("/admin")
		admin.Use(middleware.AuthRequired(), middleware.AdminRequired(cfg.Platform.AdminKeyHash))
		{
			admin.GET("/settings", adminHandler.GetSettings)
			admin.PUT("/settings/fee", adminHandler.SetFeeBps)
			admin.PUT("/settings/operational", adminHandler.SetOperational)
			admin.PUT("/assets/licensable", adminHandler.SetLicensable)
			admin.GET("/stats", adminHandler.GetStats)
		}
	}

	return r
}
