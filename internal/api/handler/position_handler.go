package handler

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fracbond-investment-ledger/internal/access"
	"github.com/fracbond-investment-ledger/internal/api/middleware"
	"github.com/fracbond-investment-ledger/internal/domain/bond"
	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/position"
)

// PositionHandler handles HTTP requests for ledger operations on positions
type PositionHandler struct {
	ledger LedgerService
	gate   *access.Gate
	logger *slog.Logger
}

// NewPositionHandler creates a new position handler
func NewPositionHandler(logger *slog.Logger, ledger LedgerService, gate *access.Gate) *PositionHandler {
	return &PositionHandler{
		ledger: ledger,
		gate:   gate,
		logger: logger,
	}
}

// Invest handles investing into a bond
func (h *PositionHandler) Invest(c *gin.Context) {
	var req InvestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if !h.authorize(c, req.Address) {
		return
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		RespondBadRequest(c, "Invalid amount: "+err.Error())
		return
	}

	p, err := h.ledger.Invest(c.Request.Context(), req.BondID, req.Address, amount, time.Now().UTC())
	if err != nil {
		h.respondLedgerError(c, err, req.BondID)
		return
	}

	RespondCreated(c, mapPositionToResponse(p))
}

// Claim handles claiming accrued interest on a position
func (h *PositionHandler) Claim(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if !h.authorize(c, req.Address) {
		return
	}

	claimed, err := h.ledger.ClaimInterest(c.Request.Context(), req.BondID, req.Address, time.Now().UTC())
	if err != nil {
		h.respondLedgerError(c, err, req.BondID)
		return
	}

	RespondOK(c, ClaimResponse{
		BondID:          req.BondID,
		InvestorKey:     access.NormalizeAddress(req.Address),
		ClaimedInterest: claimed.String(),
	})
}

// Redeem handles redeeming a position on a matured bond
func (h *PositionHandler) Redeem(c *gin.Context) {
	var req PositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if !h.authorize(c, req.Address) {
		return
	}

	payout, finalInterest, err := h.ledger.Redeem(c.Request.Context(), req.BondID, req.Address, time.Now().UTC())
	if err != nil {
		h.respondLedgerError(c, err, req.BondID)
		return
	}

	RespondOK(c, RedeemResponse{
		BondID:        req.BondID,
		InvestorKey:   access.NormalizeAddress(req.Address),
		Payout:        payout.String(),
		FinalInterest: finalInterest.String(),
	})
}

// Get retrieves one position by bond ID and investor address
func (h *PositionHandler) Get(c *gin.Context) {
	id, ok := parseBondID(c)
	if !ok {
		return
	}
	address := c.Param("address")

	if !h.authorize(c, address) {
		return
	}

	p, err := h.ledger.GetPosition(c.Request.Context(), id, address)
	if err != nil {
		h.respondLedgerError(c, err, id)
		return
	}

	RespondOK(c, mapPositionToResponse(p))
}

// authorize validates the address and checks the caller's entitlement to
// it, writing the error response itself when access is denied.
func (h *PositionHandler) authorize(c *gin.Context, address string) bool {
	if err := access.ValidateAddress(address); err != nil {
		RespondBadRequest(c, "Invalid investor address")
		return false
	}

	err := h.gate.AuthorizeInvestor(middleware.GetIdentity(c), address)
	switch {
	case errors.Is(err, access.ErrUnauthorized):
		RespondUnauthorized(c, "")
		return false
	case errors.Is(err, access.ErrForbidden):
		h.logger.Warn("Identity not entitled to investor address",
			"address", access.NormalizeAddress(address),
		)
		RespondForbidden(c, "Identity is not bound to this investor address")
		return false
	case err != nil:
		RespondInternalError(c)
		return false
	}
	return true
}

// respondLedgerError maps domain errors from ledger operations onto
// HTTP status codes and stable error codes.
func (h *PositionHandler) respondLedgerError(c *gin.Context, err error, bondID int64) {
	var bondNotFound bond.ErrBondNotFound
	var positionNotFound position.ErrPositionNotFound

	switch {
	case errors.As(err, &bondNotFound):
		RespondNotFound(c, "Bond not found")
	case errors.As(err, &positionNotFound):
		RespondNotFound(c, "Position not found")
	case errors.Is(err, bond.ErrNotAcceptingInvestment):
		RespondConflict(c, "BOND_NOT_ACCEPTING_INVESTMENT", "Bond is not accepting new investment")
	case errors.Is(err, bond.ErrBelowMinimumInvestment):
		RespondBadRequest(c, "Investment amount below bond minimum")
	case errors.Is(err, bond.ErrNotMatured):
		RespondConflict(c, "BOND_NOT_MATURED", "Bond has not matured yet")
	case errors.Is(err, position.ErrNoPrincipal):
		RespondConflict(c, "NO_PRINCIPAL", "Position has no outstanding principal")
	case errors.Is(err, position.ErrNothingToClaim):
		RespondConflict(c, "NOTHING_TO_CLAIM", "No interest has accrued since the last claim")
	default:
		h.logger.Error("Ledger operation failed", "bond_id", bondID, "error", err)
		RespondInternalError(c)
	}
}

// mapPositionToResponse maps a position entity to a position response DTO
func mapPositionToResponse(p *position.Position) PositionResponse {
	return PositionResponse{
		BondID:          p.BondID,
		InvestorKey:     p.InvestorKey,
		Principal:       p.Principal.String(),
		ClaimedInterest: p.ClaimedInterest.String(),
		LastAccrualAt:   p.LastAccrualAt.Format(time.RFC3339),
		CreatedAt:       p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       p.UpdatedAt.Format(time.RFC3339),
	}
}
