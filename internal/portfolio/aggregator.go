// Package portfolio builds read-only cross-bond views for one investor.
// The aggregator never mutates ledger state: accrued interest shown here
// is a preview computed at the requested time, realized only when the
// investor claims or redeems.
package portfolio

import (
	"context"
	"log/slog"
	"time"

	"github.com/fracbond-investment-ledger/internal/accrual"
	"github.com/fracbond-investment-ledger/internal/domain/bond"
	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/position"
	"github.com/fracbond-investment-ledger/internal/ledger"
)

// PositionView is one position enriched with bond terms and a
// point-in-time accrual preview
type PositionView struct {
	BondID           int64       `json:"bond_id"`
	BondName         string      `json:"bond_name"`
	BondState        bond.State  `json:"bond_state"`
	CouponRateBps    int64       `json:"coupon_rate_bps"`
	MaturityAt       time.Time   `json:"maturity_at"`
	Principal        money.Money `json:"principal"`
	ClaimedInterest  money.Money `json:"claimed_interest"`
	AccruedUnclaimed money.Money `json:"accrued_unclaimed"`
	Redeemed         bool        `json:"redeemed"`
}

// View is the aggregate portfolio of one investor
type View struct {
	InvestorKey           string         `json:"investor_key"`
	TotalInvested         money.Money    `json:"total_invested"`
	TotalAccruedUnclaimed money.Money    `json:"total_accrued_unclaimed"`
	TotalClaimed          money.Money    `json:"total_claimed"`
	TotalValue            money.Money    `json:"total_value"`
	Positions             []PositionView `json:"positions"`
}

// Aggregator assembles portfolio views from positions and bond terms
type Aggregator struct {
	bondRepo  bond.Repository
	positions position.Repository
	logger    *slog.Logger
}

// NewAggregator creates a new portfolio aggregator
func NewAggregator(logger *slog.Logger, bondRepo bond.Repository, positions position.Repository) *Aggregator {
	return &Aggregator{
		bondRepo:  bondRepo,
		positions: positions,
		logger:    logger,
	}
}

// Portfolio builds the investor's portfolio evaluated at the given time.
// Redeemed positions appear with zero principal and no further accrual;
// their claimed interest stays in the lifetime totals.
func (a *Aggregator) Portfolio(ctx context.Context, investorKey string, now time.Time) (*View, error) {
	investorKey = ledger.NormalizeInvestorKey(investorKey)

	positions, err := a.positions.ListByInvestor(ctx, investorKey)
	if err != nil {
		return nil, err
	}

	view := &View{
		InvestorKey: investorKey,
		Positions:   make([]PositionView, 0, len(positions)),
	}

	for _, p := range positions {
		b, err := a.bondRepo.GetByID(ctx, p.BondID)
		if err != nil {
			return nil, err
		}

		var accrued money.Money
		if p.HasPrincipal() {
			accrued = accrual.Accrue(p.Principal, b.CouponRateBps, p.ElapsedSeconds(now))
		}

		view.Positions = append(view.Positions, PositionView{
			BondID:           b.ID,
			BondName:         b.Name,
			BondState:        b.StateAt(now),
			CouponRateBps:    b.CouponRateBps,
			MaturityAt:       b.MaturityAt,
			Principal:        p.Principal,
			ClaimedInterest:  p.ClaimedInterest,
			AccruedUnclaimed: accrued,
			Redeemed:         !p.HasPrincipal(),
		})

		view.TotalInvested = view.TotalInvested.Add(p.Principal)
		view.TotalAccruedUnclaimed = view.TotalAccruedUnclaimed.Add(accrued)
		view.TotalClaimed = view.TotalClaimed.Add(p.ClaimedInterest)
	}

	view.TotalValue = view.TotalInvested.Add(view.TotalAccruedUnclaimed).Add(view.TotalClaimed)
	return view, nil
}
