// Package bond holds the bond aggregate: the instrument terms and the
// lifecycle state machine that decides which ledger operations a bond
// currently allows.
package bond

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fracbond-investment-ledger/internal/domain/money"
)

// Validation and lifecycle errors. ErrInvalidTerms is the base for every
// terms-validation failure so callers can match the whole family with
// errors.Is.
var (
	ErrInvalidTerms           = errors.New("invalid bond terms")
	ErrNotAcceptingInvestment = errors.New("bond is not accepting new investment")
	ErrNotMatured             = errors.New("bond has not matured")
	ErrAlreadyMatured         = errors.New("bond has already matured")
	ErrBelowMinimumInvestment = errors.New("investment amount below bond minimum")
)

// ErrBondNotFound indicates a missing bond
type ErrBondNotFound struct {
	BondID int64
}

func (e ErrBondNotFound) Error() string {
	return "bond not found: " + strconv.FormatInt(e.BondID, 10)
}

// State is the bond lifecycle state. Transitions:
//
//	ACTIVE -> CLOSED_FOR_INVESTMENT  (admin)
//	ACTIVE -> MATURED                (time)
//	CLOSED_FOR_INVESTMENT -> MATURED (time)
//
// MATURED is terminal for new investment; claim and redeem stay valid on
// existing positions until all principal is redeemed.
type State string

const (
	StateActive              State = "ACTIVE"
	StateClosedForInvestment State = "CLOSED_FOR_INVESTMENT"
	StateMatured             State = "MATURED"
)

// Terms are the administrative inputs to bond creation.
type Terms struct {
	Name              string
	Issuer            string
	Description       string
	FaceValue         money.Money
	CouponRateBps     int64
	MaturityAt        time.Time
	MinimumInvestment money.Money
}

// Bond is a fixed-income instrument open to fractional investment.
// TotalRaised is derived state: it always equals the sum of all investor
// principals for this bond, and only the ledger mutates it.
type Bond struct {
	ID                int64       `json:"id"`
	Name              string      `json:"name"`
	Issuer            string      `json:"issuer"`
	Description       string      `json:"description"`
	FaceValue         money.Money `json:"face_value"`
	CouponRateBps     int64       `json:"coupon_rate_bps"`
	IssueAt           time.Time   `json:"issue_at"`
	MaturityAt        time.Time   `json:"maturity_at"`
	MinimumInvestment money.Money `json:"minimum_investment"`
	State             State       `json:"state"`
	TotalRaised       money.Money `json:"total_raised"`
	Version           int         `json:"version"` // For optimistic locking
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// New validates terms and builds an ACTIVE bond issued at now. The ID is
// assigned by the repository on insert.
func New(terms Terms, now time.Time) (*Bond, error) {
	if terms.Name == "" {
		return nil, fmt.Errorf("%w: name cannot be empty", ErrInvalidTerms)
	}
	if terms.Issuer == "" {
		return nil, fmt.Errorf("%w: issuer cannot be empty", ErrInvalidTerms)
	}
	if !terms.FaceValue.IsPositive() {
		return nil, fmt.Errorf("%w: face value must be positive", ErrInvalidTerms)
	}
	if terms.CouponRateBps < 0 || terms.CouponRateBps > 10000 {
		return nil, fmt.Errorf("%w: coupon rate %d out of range [0,10000] bps", ErrInvalidTerms, terms.CouponRateBps)
	}
	if !terms.MaturityAt.After(now) {
		return nil, fmt.Errorf("%w: maturity must be after issue", ErrInvalidTerms)
	}
	if !terms.MinimumInvestment.IsPositive() {
		return nil, fmt.Errorf("%w: minimum investment must be positive", ErrInvalidTerms)
	}

	return &Bond{
		Name:              terms.Name,
		Issuer:            terms.Issuer,
		Description:       terms.Description,
		FaceValue:         terms.FaceValue,
		CouponRateBps:     terms.CouponRateBps,
		IssueAt:           now,
		MaturityAt:        terms.MaturityAt,
		MinimumInvestment: terms.MinimumInvestment,
		State:             StateActive,
		TotalRaised:       money.Zero,
		Version:           1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// AcceptsInvestment reports whether new principal may enter the bond.
func (b *Bond) AcceptsInvestment() bool {
	return b.State == StateActive
}

// CloseForInvestment moves an ACTIVE bond to CLOSED_FOR_INVESTMENT.
// Closing an already-closed bond is a no-op; closing a matured bond is an
// error since maturity already shut the door.
func (b *Bond) CloseForInvestment(now time.Time) error {
	switch b.State {
	case StateClosedForInvestment:
		return nil
	case StateMatured:
		return ErrAlreadyMatured
	}
	b.State = StateClosedForInvestment
	b.touch(now)
	return nil
}

// MatureIfDue transitions the bond to MATURED once now has reached the
// maturity date. There is no background timer: every ledger operation
// calls this with its own now, so maturity takes effect lazily. Returns
// true when a transition happened.
func (b *Bond) MatureIfDue(now time.Time) bool {
	if b.State == StateMatured || now.Before(b.MaturityAt) {
		return false
	}
	b.State = StateMatured
	b.touch(now)
	return true
}

// StateAt returns the lifecycle state as of now without mutating the
// bond. Read paths use this so a due-but-not-yet-persisted maturity is
// still reported correctly.
func (b *Bond) StateAt(now time.Time) State {
	if b.State != StateMatured && !now.Before(b.MaturityAt) {
		return StateMatured
	}
	return b.State
}

// RecordInvestment adds freshly invested principal to the derived total.
func (b *Bond) RecordInvestment(amount money.Money, now time.Time) {
	b.TotalRaised = b.TotalRaised.Add(amount)
	b.touch(now)
}

// RecordRedemption removes redeemed principal from the derived total.
func (b *Bond) RecordRedemption(amount money.Money, now time.Time) {
	b.TotalRaised = b.TotalRaised.Sub(amount)
	b.touch(now)
}

func (b *Bond) touch(now time.Time) {
	b.UpdatedAt = now
	b.Version++
}
