package handler

import (
	"context"
	"time"

	"github.com/fracbond-investment-ledger/internal/domain/bond"
	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/position"
	"github.com/fracbond-investment-ledger/internal/portfolio"
	"github.com/fracbond-investment-ledger/internal/registry"
)

// BondService defines the bond catalog operations used by the handlers
type BondService interface {
	// CreateBond validates terms and stores a new ACTIVE bond.
	// Returns a wrapped ErrInvalidTerms when the terms are rejected.
	CreateBond(ctx context.Context, terms bond.Terms, now time.Time) (*bond.Bond, error)

	// GetBond retrieves a bond with state evaluated at now.
	// Returns ErrBondNotFound if the bond doesn't exist.
	GetBond(ctx context.Context, id int64, now time.Time) (*bond.Bond, error)

	// ListBonds retrieves all bonds with states evaluated at now.
	ListBonds(ctx context.Context, now time.Time) ([]*bond.Bond, error)

	// CloseForInvestment stops new investment into a bond.
	CloseForInvestment(ctx context.Context, id int64, now time.Time) (*bond.Bond, error)

	// GetBondStats computes a point-in-time summary for one bond.
	GetBondStats(ctx context.Context, id int64, now time.Time) (*registry.BondStats, error)

	// GetBondYield quotes the bond's yield at now, with an investor
	// section when investorKey is non-empty and holds a position.
	GetBondYield(ctx context.Context, id int64, investorKey string, now time.Time) (*registry.BondYield, error)
}

// LedgerService defines the position mutation operations used by the handlers
type LedgerService interface {
	// Invest adds amount to the investor's position, creating it on
	// first investment.
	Invest(ctx context.Context, bondID int64, investorKey string, amount money.Money, now time.Time) (*position.Position, error)

	// ClaimInterest realizes accrued interest and returns the amount.
	ClaimInterest(ctx context.Context, bondID int64, investorKey string, now time.Time) (money.Money, error)

	// Redeem pays out the principal of a matured bond; the final interest
	// is realized into claimed interest and returned separately.
	Redeem(ctx context.Context, bondID int64, investorKey string, now time.Time) (money.Money, money.Money, error)

	// GetPosition retrieves one position, tombstones included.
	GetPosition(ctx context.Context, bondID int64, investorKey string) (*position.Position, error)
}

// PortfolioService defines the read-only portfolio view used by the handlers
type PortfolioService interface {
	// Portfolio builds the investor's aggregate view evaluated at now.
	Portfolio(ctx context.Context, investorKey string, now time.Time) (*portfolio.View, error)
}
