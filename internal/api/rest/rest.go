package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/feral-file/chain-estates/internal/api/middleware"
	"github.com/feral-file/chain-estates/internal/ratelimit"
)

// SetupRoutes configures all REST API routes. Writes are throttled by limiter when it is not nil.
func SetupRoutes(router *gin.Engine, handler Handler, authCfg middleware.AuthConfig, limiter ratelimit.Limiter) {
	asCaller := []gin.HandlerFunc{middleware.Auth(authCfg), middleware.RateLimit(limiter)}
	asOperator := []gin.HandlerFunc{middleware.APIKeyAuth(authCfg), middleware.RateLimit(limiter)}

	// Health check endpoint (no auth, no version prefix)
	router.GET("/health", handler.HealthCheck)

	// API v1 routes
	v1 := router.Group("/api/v1")
	{
		// Property reads (public)
		v1.GET("/properties", handler.ListProperties)
		v1.GET("/properties/count", handler.GetPropertyCount)
		v1.GET("/properties/:id", handler.GetProperty)

		// Property writes act on behalf of the JWT subject
		v1.POST("/properties", append(asCaller, handler.RegisterProperty)...)
		v1.POST("/properties/:id/listing", append(asCaller, handler.ListProperty)...)
		v1.DELETE("/properties/:id/listing", append(asCaller, handler.UnlistProperty)...)
		v1.POST("/properties/:id/purchase", append(asCaller, handler.BuyProperty)...)

		// Event log (public)
		v1.GET("/events", handler.QueryEvents)
		v1.GET("/events/verify", handler.VerifyHistory)
		v1.GET("/ledger", handler.GetLedgerInfo)

		// Accounts: reads are public, funding and freezing require an API key
		v1.GET("/accounts/:address", handler.GetAccount)
		v1.POST("/accounts/:address/deposits", append(asOperator, handler.Deposit)...)
		v1.PUT("/accounts/:address/frozen", append(asOperator, handler.SetFrozen)...)
	}
}
