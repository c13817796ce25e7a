// Package registry manages the bond catalog: issuing bonds, lifecycle
// transitions, and per-bond statistics. Ledger mutations on positions
// live in the ledger package, not here.
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/fracbond-investment-ledger/internal/domain/bond"
	"github.com/fracbond-investment-ledger/internal/domain/money"
	"github.com/fracbond-investment-ledger/internal/domain/position"
)

// TxRunner runs a function inside a database transaction
type TxRunner interface {
	ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error
}

// BondStats is a point-in-time summary of one bond
type BondStats struct {
	BondID         int64       `json:"bond_id"`
	State          bond.State  `json:"state"`
	FaceValue      money.Money `json:"face_value"`
	CouponRateBps  int64       `json:"coupon_rate_bps"`
	TotalRaised    money.Money `json:"total_raised"`
	InvestorCount  int64       `json:"investor_count"`
	UtilizationBps int64       `json:"utilization_bps"`
	DaysToMaturity int64       `json:"days_to_maturity"`
	MaturityAt     time.Time   `json:"maturity_at"`
}

// BondRegistry coordinates bond issuance and lifecycle
type BondRegistry struct {
	db        TxRunner
	bondRepo  bond.Repository
	positions position.Repository
	logger    *slog.Logger
}

// NewBondRegistry creates a new bond registry service
func NewBondRegistry(logger *slog.Logger, db TxRunner, bondRepo bond.Repository, positions position.Repository) *BondRegistry {
	return &BondRegistry{
		db:        db,
		bondRepo:  bondRepo,
		positions: positions,
		logger:    logger,
	}
}

// CreateBond validates the terms and stores a new bond in ACTIVE state.
// Returns ErrInvalidTerms (wrapped) when the terms are rejected.
func (r *BondRegistry) CreateBond(ctx context.Context, terms bond.Terms, now time.Time) (*bond.Bond, error) {
	b, err := bond.New(terms, now)
	if err != nil {
		return nil, err
	}

	if err := r.bondRepo.Create(ctx, b); err != nil {
		return nil, err
	}

	r.logger.Info("Bond created",
		"bond_id", b.ID,
		"issuer", b.Issuer,
		"coupon_rate_bps", b.CouponRateBps,
		"maturity_at", b.MaturityAt,
	)
	return b, nil
}

// GetBond retrieves a bond with its state evaluated at the given time.
// Maturity reached but not yet persisted is reflected in the returned
// value without a write; the stored row transitions lazily on the next
// ledger operation.
func (r *BondRegistry) GetBond(ctx context.Context, id int64, now time.Time) (*bond.Bond, error) {
	b, err := r.bondRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	b.State = b.StateAt(now)
	return b, nil
}

// ListBonds retrieves all bonds with states evaluated at the given time
func (r *BondRegistry) ListBonds(ctx context.Context, now time.Time) ([]*bond.Bond, error) {
	bonds, err := r.bondRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	for _, b := range bonds {
		b.State = b.StateAt(now)
	}
	return bonds, nil
}

// CloseForInvestment stops a bond from accepting new investment. Closing
// an already closed bond is a no-op; closing a matured bond returns
// ErrAlreadyMatured. Existing positions keep accruing either way.
func (r *BondRegistry) CloseForInvestment(ctx context.Context, id int64, now time.Time) (*bond.Bond, error) {
	var closed *bond.Bond
	err := r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		bonds := r.bondRepo.WithTx(tx)

		b, err := bonds.LockForUpdate(ctx, id)
		if err != nil {
			return err
		}

		// Persist a maturity transition even when the close is rejected.
		matured := b.MatureIfDue(now)

		if err := b.CloseForInvestment(now); err != nil {
			if matured {
				if updateErr := bonds.Update(ctx, b); updateErr != nil {
					return updateErr
				}
			}
			return err
		}

		if err := bonds.Update(ctx, b); err != nil {
			return err
		}
		closed = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.Info("Bond closed for investment", "bond_id", id)
	return closed, nil
}

// GetBondStats computes a point-in-time summary for one bond
func (r *BondRegistry) GetBondStats(ctx context.Context, id int64, now time.Time) (*BondStats, error) {
	b, err := r.bondRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	investorCount, err := r.positions.CountInvestorsByBond(ctx, id)
	if err != nil {
		return nil, err
	}

	var utilizationBps int64
	if b.FaceValue.IsPositive() {
		utilizationBps = b.TotalRaised.MinorUnits() * 10000 / b.FaceValue.MinorUnits()
	}

	var daysToMaturity int64
	if b.MaturityAt.After(now) {
		daysToMaturity = int64(b.MaturityAt.Sub(now).Hours() / 24)
	}

	return &BondStats{
		BondID:         b.ID,
		State:          b.StateAt(now),
		FaceValue:      b.FaceValue,
		CouponRateBps:  b.CouponRateBps,
		TotalRaised:    b.TotalRaised,
		InvestorCount:  investorCount,
		UtilizationBps: utilizationBps,
		DaysToMaturity: daysToMaturity,
		MaturityAt:     b.MaturityAt,
	}, nil
}
