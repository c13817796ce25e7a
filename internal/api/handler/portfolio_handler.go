package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fracbond-investment-ledger/internal/access"
	"github.com/fracbond-investment-ledger/internal/api/middleware"
	"github.com/fracbond-investment-ledger/internal/portfolio"
)

// PortfolioHandler handles HTTP requests for portfolio views
type PortfolioHandler struct {
	portfolios PortfolioService
	gate       *access.Gate
	logger     *slog.Logger
}

// NewPortfolioHandler creates a new portfolio handler
func NewPortfolioHandler(logger *slog.Logger, portfolios PortfolioService, gate *access.Gate) *PortfolioHandler {
	return &PortfolioHandler{
		portfolios: portfolios,
		gate:       gate,
		logger:     logger,
	}
}

// Get retrieves the aggregate portfolio for one investor address
func (h *PortfolioHandler) Get(c *gin.Context) {
	address := c.Param("address")
	if err := access.ValidateAddress(address); err != nil {
		RespondBadRequest(c, "Invalid investor address")
		return
	}

	err := h.gate.AuthorizeInvestor(middleware.GetIdentity(c), address)
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		RespondUnauthorized(c, "")
		return
	case errors.Is(err, access.ErrForbidden):
		RespondForbidden(c, "Identity is not bound to this investor address")
		return
	case err != nil:
		RespondInternalError(c)
		return
	}

	view, err := h.portfolios.Portfolio(c.Request.Context(), address, time.Now().UTC())
	if err != nil {
		h.logger.Error("Failed to build portfolio", "address", access.NormalizeAddress(address), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapPortfolioToResponse(view))
}

// mapPortfolioToResponse maps a portfolio view to its response DTO
func mapPortfolioToResponse(view *portfolio.View) PortfolioResponse {
	response := PortfolioResponse{
		InvestorKey:           view.InvestorKey,
		TotalInvested:         view.TotalInvested.String(),
		TotalAccruedUnclaimed: view.TotalAccruedUnclaimed.String(),
		TotalClaimed:          view.TotalClaimed.String(),
		TotalValue:            view.TotalValue.String(),
		Positions:             make([]PortfolioPositionResponse, 0, len(view.Positions)),
	}

	for _, p := range view.Positions {
		response.Positions = append(response.Positions, PortfolioPositionResponse{
			BondID:           p.BondID,
			BondName:         p.BondName,
			BondState:        string(p.BondState),
			CouponRateBps:    p.CouponRateBps,
			MaturityAt:       p.MaturityAt.Format(time.RFC3339),
			Principal:        p.Principal.String(),
			ClaimedInterest:  p.ClaimedInterest.String(),
			AccruedUnclaimed: p.AccruedUnclaimed.String(),
			Redeemed:         p.Redeemed,
		})
	}

	return response
}
