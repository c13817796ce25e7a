package registry

import (
	"context"
	"errors"
	"time"

	"github.com/fracbond-investment-ledger/internal/access"
	"github.com/fracbond-investment-ledger/internal/accrual"
	"github.com/fracbond-investment-ledger/internal/domain/bond"
	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/position"
)

// ReferenceStake is the $1,000.00 stake bond-level yield figures are
// quoted against, so quotes are comparable across bonds regardless of
// face value.
var ReferenceStake = money.FromMinorUnits(100_000)

// InvestorYield is the investor-specific section of a yield quote,
// computed on the investor's actual principal instead of the reference
// stake. Amounts are previews; nothing is realized until claim or redeem.
type InvestorYield struct {
	Principal        money.Money `json:"principal"`
	AccruedUnclaimed money.Money `json:"accrued_unclaimed"`
	AnnualInterest   money.Money `json:"annual_interest"`
}

// BondYield is a point-in-time quote of one bond's return profile.
type BondYield struct {
	BondID            int64          `json:"bond_id"`
	State             bond.State     `json:"state"`
	CouponRateBps     int64          `json:"coupon_rate_bps"`
	AnnualInterest    money.Money    `json:"annual_interest"`
	AccruedSinceIssue money.Money    `json:"accrued_since_issue"`
	DaysToMaturity    int64          `json:"days_to_maturity"`
	MaturityAt        time.Time      `json:"maturity_at"`
	Investor          *InvestorYield `json:"investor,omitempty"`
}

// GetBondYield quotes the bond's yield at now using the same accrual
// arithmetic the ledger settles with. When investorKey names an investor
// holding a position on the bond, the quote carries an investor section;
// an unknown investor yields a bond-level quote only.
func (r *BondRegistry) GetBondYield(ctx context.Context, id int64, investorKey string, now time.Time) (*BondYield, error) {
	b, err := r.bondRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sinceIssue := int64(now.Sub(b.IssueAt) / time.Second)
	if sinceIssue < 0 {
		sinceIssue = 0
	}

	var daysToMaturity int64
	if b.MaturityAt.After(now) {
		daysToMaturity = int64(b.MaturityAt.Sub(now).Hours() / 24)
	}

	quote := &BondYield{
		BondID:            b.ID,
		State:             b.StateAt(now),
		CouponRateBps:     b.CouponRateBps,
		AnnualInterest:    accrual.Accrue(ReferenceStake, b.CouponRateBps, accrual.SecondsPerYear),
		AccruedSinceIssue: accrual.Accrue(ReferenceStake, b.CouponRateBps, sinceIssue),
		DaysToMaturity:    daysToMaturity,
		MaturityAt:        b.MaturityAt,
	}

	if investorKey == "" {
		return quote, nil
	}

	p, err := r.positions.Get(ctx, id, access.NormalizeAddress(investorKey))
	if err != nil {
		var notFound position.ErrPositionNotFound
		if errors.As(err, &notFound) {
			return quote, nil
		}
		return nil, err
	}

	investor := &InvestorYield{Principal: p.Principal}
	if p.HasPrincipal() {
		investor.AccruedUnclaimed = accrual.Accrue(p.Principal, b.CouponRateBps, p.ElapsedSeconds(now))
		investor.AnnualInterest = accrual.Accrue(p.Principal, b.CouponRateBps, accrual.SecondsPerYear)
	}
	quote.Investor = investor

	return quote, nil
}
