package oracle

import (
	"math/big"
	"time"
)

// RawQuote is a single price observation as delivered by an external feed.
// Price and Conf are expressed at the feed's native exponent: the real value
// is Price * 10^Expo. Callers fetch quotes out-of-band and attach them to
// each lifecycle call (pull model).
type RawQuote struct {
	Price       int64     `json:"price"`
	Conf        uint64    `json:"conf"`
	Expo        int32     `json:"expo"`
	PublishTime time.Time `json:"publish_time"`
}

// QuoteBundle carries the primary quote and the independent reference quote
// used as a deviation anchor. The reference is never a substitute value.
type QuoteBundle struct {
	Primary   RawQuote `json:"primary"`
	Reference RawQuote `json:"reference"`
}

// ValidatedPrice is the validator's output. It is a value, never persisted;
// every operation that needs a live price recomputes it.
type ValidatedPrice struct {
	Price       *big.Int // wad, always positive
	Conf        *big.Int // wad uncertainty width
	PublishTime time.Time
}

// Normalize rescales a native-exponent value to the canonical 18-decimal
// fixed point. Feeds with more than 18 fractional digits lose the excess by
// truncation; in practice every supported feed publishes coarser.
func Normalize(value int64, expo int32) *big.Int {
	v := big.NewInt(value)
	shift := int64(18 + expo)
	if shift >= 0 {
		mult := new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil)
		return v.Mul(v, mult)
	}
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil)
	return v.Quo(v, div)
}

// NormalizeUint is Normalize for unsigned confidence widths.
func NormalizeUint(value uint64, expo int32) *big.Int {
	v := new(big.Int).SetUint64(value)
	shift := int64(18 + expo)
	if shift >= 0 {
		mult := new(big.Int).Exp(big.NewInt(10), big.NewInt(shift), nil)
		return v.Mul(v, mult)
	}
	div := new(big.Int).Exp(big.NewInt(10), big.NewInt(-shift), nil)
	return v.Quo(v, div)
}
