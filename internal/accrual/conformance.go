package accrual

import "github.com/fracbond-investment-ledger/internal/domain/money"

// Vector is a fixed input/output pair for the accrual formula. The
// off-chain ledger and the on-chain contract both have to reproduce these
// outputs exactly; any divergence is a release blocker, not a rounding
// nit.
type Vector struct {
	Principal      money.Money
	CouponRateBps  int64
	ElapsedSeconds int64
	Expected       money.Money
}

// ConformanceVectors are shared with the contract test suite. Amounts are
// minor units (cents).
var ConformanceVectors = []Vector{
	// $1,000 at 4.5% for half a year (182.5 days) -> $22.50 exactly.
	{Principal: 100_000, CouponRateBps: 450, ElapsedSeconds: 15_768_000, Expected: 2250},

	// $1,000 at 4.5% for a full year -> $45.00 exactly.
	{Principal: 100_000, CouponRateBps: 450, ElapsedSeconds: 31_536_000, Expected: 4500},

	// $1,000 at 4.5% for one day truncates 12.328... down to 12 cents.
	{Principal: 100_000, CouponRateBps: 450, ElapsedSeconds: 86_400, Expected: 12},

	// Sub-cent accrual truncates to zero.
	{Principal: 1, CouponRateBps: 1, ElapsedSeconds: 1, Expected: 0},
	{Principal: 33_333, CouponRateBps: 333, ElapsedSeconds: 12_345, Expected: 0},

	// $1M at 100% for 10 years: the product overflows 64 bits, the result
	// does not.
	{Principal: 100_000_000, CouponRateBps: 10_000, ElapsedSeconds: 315_360_000, Expected: 1_000_000_000},

	// Zero rate and zero elapsed both yield zero.
	{Principal: 100_000, CouponRateBps: 0, ElapsedSeconds: 31_536_000, Expected: 0},
	{Principal: 100_000, CouponRateBps: 450, ElapsedSeconds: 0, Expected: 0},
}
