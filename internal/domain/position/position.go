// Package position holds one investor's stake in one bond. The pair
// (bondID, investorKey) identifies a position; the investor key is the
// lowercase wallet address bound to an authenticated identity.
package position

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fracbond-investment-ledger/internal/domain/money"
)

var (
	// ErrNoPrincipal is returned when claiming or redeeming against a
	// zero-principal tombstone. The record exists for audit but carries
	// nothing to pay out.
	ErrNoPrincipal = errors.New("position has no outstanding principal")

	// ErrNothingToClaim is returned when no interest has accrued since
	// the last realization (e.g. two claims within the same second).
	ErrNothingToClaim = errors.New("no interest accrued since last claim")
)

// ErrPositionNotFound indicates a missing position record
type ErrPositionNotFound struct {
	BondID      int64
	InvestorKey string
}

func (e ErrPositionNotFound) Error() string {
	return fmt.Sprintf("position not found: bond %d, investor %s", e.BondID, e.InvestorKey)
}

// ErrConcurrentModification indicates optimistic lock failure
type ErrConcurrentModification struct {
	BondID      int64
	InvestorKey string
}

func (e ErrConcurrentModification) Error() string {
	return "concurrent modification detected for position: bond " +
		strconv.FormatInt(e.BondID, 10) + ", investor " + e.InvestorKey
}

// Position tracks principal, realized interest, and the accrual clock for
// one (bond, investor) pair. Principal only grows through invest and is
// reset to zero exactly once by redeem; a zero-principal record is kept
// as an audit tombstone, never deleted.
type Position struct {
	BondID          int64       `json:"bond_id"`
	InvestorKey     string      `json:"investor_key"`
	Principal       money.Money `json:"principal"`
	ClaimedInterest money.Money `json:"claimed_interest"`
	LastAccrualAt   time.Time   `json:"last_accrual_at"`
	Version         int         `json:"version"` // For optimistic locking
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// New creates a position for a first investment, starting the accrual
// clock at now.
func New(bondID int64, investorKey string, amount money.Money, now time.Time) *Position {
	return &Position{
		BondID:          bondID,
		InvestorKey:     investorKey,
		Principal:       amount,
		ClaimedInterest: money.Zero,
		LastAccrualAt:   now,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// HasPrincipal reports whether the position still holds principal.
func (p *Position) HasPrincipal() bool {
	return p.Principal.IsPositive()
}

// ElapsedSeconds returns whole seconds since the last accrual point,
// clamped at zero so a caller-supplied now behind the stored clock never
// produces negative accrual.
func (p *Position) ElapsedSeconds(now time.Time) int64 {
	elapsed := int64(now.Sub(p.LastAccrualAt) / time.Second)
	if elapsed < 0 {
		return 0
	}
	return elapsed
}

// Realize folds accrued interest into claimed interest and resets the
// accrual clock to now. Realize must run before any principal change so
// the old principal earns exactly up to now and the new principal earns
// only from now.
func (p *Position) Realize(accrued money.Money, now time.Time) {
	p.ClaimedInterest = p.ClaimedInterest.Add(accrued)
	p.LastAccrualAt = now
	p.touch(now)
}

// AddPrincipal increases principal. Callers realize first.
func (p *Position) AddPrincipal(amount money.Money, now time.Time) {
	p.Principal = p.Principal.Add(amount)
	p.touch(now)
}

// Redeem zeroes the principal and returns the payout (principal only;
// interest is realized separately). The zero principal afterwards is the
// structural double-redeem guard.
func (p *Position) Redeem(now time.Time) money.Money {
	payout := p.Principal
	p.Principal = money.Zero
	p.touch(now)
	return payout
}

func (p *Position) touch(now time.Time) {
	p.UpdatedAt = now
	p.Version++
}
