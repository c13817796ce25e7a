// Package accrual implements the interest accrual engine. It is a pure
// function of its inputs with no state and no clock: callers supply the
// elapsed interval.
//
// The same formula runs in two independent ledgers (this service and the
// on-chain mirror) and both must agree bit-for-bit, so the arithmetic is
// pinned down exactly: all multiplications happen before the single
// division, intermediates are arbitrary precision, and the division
// truncates toward zero.
package accrual

import (
	"math/big"

	"github.com/fracbond-investment-ledger/internal/domain/money"
)

const (
	// SecondsPerYear is the fixed year length used for pro-rata accrual.
	SecondsPerYear int64 = 365 * 86400

	// BasisPointScale converts coupon rates in basis points to a fraction
	// (450 bps = 450/10000 = 4.5%).
	BasisPointScale int64 = 10000
)

// denominator = BasisPointScale * SecondsPerYear, precomputed once.
var denominator = new(big.Int).Mul(big.NewInt(BasisPointScale), big.NewInt(SecondsPerYear))

// Accrue returns the interest earned on principal at couponRateBps over
// elapsedSeconds:
//
//	principal * couponRateBps * elapsedSeconds / (10000 * 31536000)
//
// evaluated with arbitrary-precision intermediates and truncating
// division. Callers guarantee principal >= 0, couponRateBps in [0,10000]
// and elapsedSeconds >= 0; non-positive inputs yield zero.
func Accrue(principal money.Money, couponRateBps int64, elapsedSeconds int64) money.Money {
	if principal <= 0 || couponRateBps <= 0 || elapsedSeconds <= 0 {
		return money.Zero
	}

	n := big.NewInt(principal.MinorUnits())
	n.Mul(n, big.NewInt(couponRateBps))
	n.Mul(n, big.NewInt(elapsedSeconds))
	n.Quo(n, denominator) // Quo truncates toward zero

	return money.FromMinorUnits(n.Int64())
}
