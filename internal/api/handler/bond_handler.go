package handler

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fracbond-investment-ledger/internal/access"
	"github.com/fracbond-investment-ledger/internal/domain/bond"
	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/registry"
)

// BondHandler handles HTTP requests for bond catalog operations
type BondHandler struct {
	bonds  BondService
	logger *slog.Logger
}

// NewBondHandler creates a new bond handler
func NewBondHandler(logger *slog.Logger, bonds BondService) *BondHandler {
	return &BondHandler{
		bonds:  bonds,
		logger: logger,
	}
}

// Create handles issuing a new bond. Admin only.
func (h *BondHandler) Create(c *gin.Context) {
	var req CreateBondRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	faceValue, err := money.Parse(req.FaceValue)
	if err != nil {
		RespondBadRequest(c, "Invalid face_value: "+err.Error())
		return
	}
	minimumInvestment, err := money.Parse(req.MinimumInvestment)
	if err != nil {
		RespondBadRequest(c, "Invalid minimum_investment: "+err.Error())
		return
	}
	maturityAt, err := time.Parse(time.RFC3339, req.MaturityAt)
	if err != nil {
		RespondBadRequest(c, "Invalid maturity_at, expected RFC 3339 timestamp")
		return
	}

	terms := bond.Terms{
		Name:              req.Name,
		Issuer:            req.Issuer,
		Description:       req.Description,
		FaceValue:         faceValue,
		CouponRateBps:     req.CouponRateBps,
		MaturityAt:        maturityAt,
		MinimumInvestment: minimumInvestment,
	}

	b, err := h.bonds.CreateBond(c.Request.Context(), terms, time.Now().UTC())
	if err != nil {
		if errors.Is(err, bond.ErrInvalidTerms) {
			RespondBadRequest(c, err.Error())
			return
		}
		h.logger.Error("Failed to create bond", "error", err)
		RespondInternalError(c)
		return
	}

	RespondCreated(c, mapBondToResponse(b))
}

// GetByID retrieves a bond by its ID, returning 404 if not found
func (h *BondHandler) GetByID(c *gin.Context) {
	id, ok := parseBondID(c)
	if !ok {
		return
	}

	b, err := h.bonds.GetBond(c.Request.Context(), id, time.Now().UTC())
	if err != nil {
		var notFound bond.ErrBondNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Bond not found")
			return
		}
		h.logger.Error("Failed to get bond", "id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapBondToResponse(b))
}

// List retrieves all bonds
func (h *BondHandler) List(c *gin.Context) {
	bonds, err := h.bonds.ListBonds(c.Request.Context(), time.Now().UTC())
	if err != nil {
		h.logger.Error("Failed to list bonds", "error", err)
		RespondInternalError(c)
		return
	}

	response := BondListResponse{Bonds: make([]BondResponse, 0, len(bonds))}
	for _, b := range bonds {
		response.Bonds = append(response.Bonds, mapBondToResponse(b))
	}
	RespondOK(c, response)
}

// Close stops a bond from accepting new investment. Admin only.
func (h *BondHandler) Close(c *gin.Context) {
	id, ok := parseBondID(c)
	if !ok {
		return
	}

	b, err := h.bonds.CloseForInvestment(c.Request.Context(), id, time.Now().UTC())
	if err != nil {
		var notFound bond.ErrBondNotFound
		switch {
		case errors.As(err, &notFound):
			RespondNotFound(c, "Bond not found")
		case errors.Is(err, bond.ErrAlreadyMatured):
			RespondConflict(c, "BOND_ALREADY_MATURED", "Bond has already matured")
		default:
			h.logger.Error("Failed to close bond", "id", id, "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, mapBondToResponse(b))
}

// Stats retrieves per-bond statistics
func (h *BondHandler) Stats(c *gin.Context) {
	id, ok := parseBondID(c)
	if !ok {
		return
	}

	stats, err := h.bonds.GetBondStats(c.Request.Context(), id, time.Now().UTC())
	if err != nil {
		var notFound bond.ErrBondNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Bond not found")
			return
		}
		h.logger.Error("Failed to get bond stats", "id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapStatsToResponse(stats))
}

// Yield quotes a bond's return profile. An optional address query
// parameter adds an investor-specific section computed on that
// investor's actual principal.
func (h *BondHandler) Yield(c *gin.Context) {
	id, ok := parseBondID(c)
	if !ok {
		return
	}

	address := c.Query("address")
	if address != "" {
		if err := access.ValidateAddress(address); err != nil {
			RespondBadRequest(c, "Invalid investor address")
			return
		}
	}

	quote, err := h.bonds.GetBondYield(c.Request.Context(), id, address, time.Now().UTC())
	if err != nil {
		var notFound bond.ErrBondNotFound
		if errors.As(err, &notFound) {
			RespondNotFound(c, "Bond not found")
			return
		}
		h.logger.Error("Failed to quote bond yield", "id", id, "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapYieldToResponse(quote))
}

func parseBondID(c *gin.Context) (int64, bool) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil || id <= 0 {
		RespondBadRequest(c, "Invalid bond ID")
		return 0, false
	}
	return id, true
}

// mapBondToResponse maps a bond entity to a bond response DTO
func mapBondToResponse(b *bond.Bond) BondResponse {
	return BondResponse{
		ID:                b.ID,
		Name:              b.Name,
		Issuer:            b.Issuer,
		Description:       b.Description,
		FaceValue:         b.FaceValue.String(),
		CouponRateBps:     b.CouponRateBps,
		IssueAt:           b.IssueAt.Format(time.RFC3339),
		MaturityAt:        b.MaturityAt.Format(time.RFC3339),
		MinimumInvestment: b.MinimumInvestment.String(),
		State:             string(b.State),
		TotalRaised:       b.TotalRaised.String(),
		CreatedAt:         b.CreatedAt.Format(time.RFC3339),
		UpdatedAt:         b.UpdatedAt.Format(time.RFC3339),
	}
}

func mapYieldToResponse(quote *registry.BondYield) BondYieldResponse {
	response := BondYieldResponse{
		BondID:            quote.BondID,
		State:             string(quote.State),
		CouponRateBps:     quote.CouponRateBps,
		ReferenceStake:    registry.ReferenceStake.String(),
		AnnualInterest:    quote.AnnualInterest.String(),
		AccruedSinceIssue: quote.AccruedSinceIssue.String(),
		DaysToMaturity:    quote.DaysToMaturity,
		MaturityAt:        quote.MaturityAt.Format(time.RFC3339),
	}
	if quote.Investor != nil {
		response.Investor = &InvestorYieldResponse{
			Principal:        quote.Investor.Principal.String(),
			AccruedUnclaimed: quote.Investor.AccruedUnclaimed.String(),
			AnnualInterest:   quote.Investor.AnnualInterest.String(),
		}
	}
	return response
}

func mapStatsToResponse(stats *registry.BondStats) BondStatsResponse {
	return BondStatsResponse{
		BondID:         stats.BondID,
		State:          string(stats.State),
		FaceValue:      stats.FaceValue.String(),
		CouponRateBps:  stats.CouponRateBps,
		TotalRaised:    stats.TotalRaised.String(),
		InvestorCount:  stats.InvestorCount,
		UtilizationBps: stats.UtilizationBps,
		DaysToMaturity: stats.DaysToMaturity,
		MaturityAt:     stats.MaturityAt.Format(time.RFC3339),
	}
}
