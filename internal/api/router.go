package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fracbond-investment-ledger/internal/access"
	"github.com/fracbond-investment-ledger/internal/api/handler"
	"github.com/fracbond-investment-ledger/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application.
// Bond reads are public; everything touching a position requires an
// authenticated identity, and bond administration requires admin.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	tokens *access.TokenManager,
	gate *access.Gate,
	bondHandler *handler.BondHandler,
	positionHandler *handler.PositionHandler,
	portfolioHandler *handler.PortfolioHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	authenticated := middleware.Authenticate(logger, tokens)

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Bond catalog operations
		bonds := v1.Group("/bonds")
		{
			bonds.GET("", bondHandler.List)
			bonds.GET("/:id", bondHandler.GetByID)
			bonds.GET("/:id/stats", bondHandler.Stats)
			bonds.GET("/:id/yield", bondHandler.Yield)
			bonds.POST("", authenticated, middleware.RequireAdmin(gate), bondHandler.Create)
			bonds.POST("/:id/close", authenticated, middleware.RequireAdmin(gate), bondHandler.Close)
		}

		// Ledger operations on positions
		positions := v1.Group("/positions", authenticated)
		{
			positions.POST("/invest", positionHandler.Invest)
			positions.POST("/claim", positionHandler.Claim)
			positions.POST("/redeem", positionHandler.Redeem)
			positions.GET("/:id/:address", positionHandler.Get)
		}

		// Portfolio views
		v1.GET("/portfolio/:address", authenticated, portfolioHandler.Get)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
