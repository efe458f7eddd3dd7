package math

import (
	"math/big"
)

// All monetary values (prices, collateral, notional, payouts) share a single
// canonical fixed-point representation: a big.Int scaled by 10^18 ("wad"),
// regardless of the native precision of any price source. Intermediate
// products are held in big.Int so price*notional can never overflow before
// the division that follows it. Division truncates toward zero.

// WadDecimals is the canonical fractional precision.
const WadDecimals = 18

// BpsDenom is the denominator for basis-point ratios.
const BpsDenom = 10_000

var wadScale = new(big.Int).Exp(big.NewInt(10), big.NewInt(WadDecimals), nil)

// WadScale returns a copy of 10^18.
func WadScale() *big.Int {
	return new(big.Int).Set(wadScale)
}

// Wad converts whole base-currency units to the canonical scale.
func Wad(units int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(units), wadScale)
}

// MulDiv computes a * b / denom with the product widened before the
// division. Truncates toward zero. Panics on denom == 0; callers must
// have validated the denominator.
func MulDiv(a, b, denom *big.Int) *big.Int {
	if denom.Sign() == 0 {
		panic("fixedpoint: division by zero")
	}
	p := new(big.Int).Mul(a, b)
	return p.Quo(p, denom)
}

// MulBps scales v by bps/10000, multiply before divide.
func MulBps(v *big.Int, bps int64) *big.Int {
	p := new(big.Int).Mul(v, big.NewInt(bps))
	return p.Quo(p, big.NewInt(BpsDenom))
}

// MulScalar multiplies v by an integer factor.
func MulScalar(v *big.Int, k int64) *big.Int {
	return new(big.Int).Mul(v, big.NewInt(k))
}

// Clamp bounds v into [lo, hi].
func Clamp(v, lo, hi *big.Int) *big.Int {
	if v.Cmp(lo) < 0 {
		return new(big.Int).Set(lo)
	}
	if v.Cmp(hi) > 0 {
		return new(big.Int).Set(hi)
	}
	return new(big.Int).Set(v)
}

// AbsDiff returns |a - b|.
func AbsDiff(a, b *big.Int) *big.Int {
	d := new(big.Int).Sub(a, b)
	return d.Abs(d)
}

// RatioExceedsBps reports whether num/denom > bps/10000 without dividing:
// num*10000 > bps*denom. Both sides are exact, so no precision is lost.
// denom must be positive.
func RatioExceedsBps(num, denom *big.Int, bps int64) bool {
	lhs := new(big.Int).Mul(num, big.NewInt(BpsDenom))
	rhs := new(big.Int).Mul(denom, big.NewInt(bps))
	return lhs.Cmp(rhs) > 0
}

// RatioAtLeastBps reports whether num/denom >= bps/10000, cross-multiplied.
func RatioAtLeastBps(num, denom *big.Int, bps int64) bool {
	lhs := new(big.Int).Mul(num, big.NewInt(BpsDenom))
	rhs := new(big.Int).Mul(denom, big.NewInt(bps))
	return lhs.Cmp(rhs) >= 0
}
