package math

import (
	"math/big"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/event"
)

// SpreadCase enumerates the four execution situations. The direction the
// price is worsened in always favors the pool: opening a long or closing a
// short buys from the pool (price up); opening a short or closing a long
// sells to it (price down).
type SpreadCase int32

const (
	SpreadLongOpen SpreadCase = iota
	SpreadLongClose
	SpreadShortOpen
	SpreadShortClose
)

// spreadSign maps each case to the sign of the price adjustment.
var spreadSign = map[SpreadCase]int64{
	SpreadLongOpen:   +1,
	SpreadShortClose: +1,
	SpreadLongClose:  -1,
	SpreadShortOpen:  -1,
}

func (c SpreadCase) String() string {
	switch c {
	case SpreadLongOpen:
		return "LongOpen"
	case SpreadLongClose:
		return "LongClose"
	case SpreadShortOpen:
		return "ShortOpen"
	case SpreadShortClose:
		return "ShortClose"
	default:
		return "Unknown"
	}
}

// SpreadCaseFor derives the case from direction and open/close.
func SpreadCaseFor(d event.Direction, opening bool) SpreadCase {
	if d == event.DirectionLong {
		if opening {
			return SpreadLongOpen
		}
		return SpreadLongClose
	}
	if opening {
		return SpreadShortOpen
	}
	return SpreadShortClose
}

// ApplySpread worsens price by spreadBps basis points in the direction given
// by the case table. Pure and deterministic.
func ApplySpread(price *big.Int, c SpreadCase, spreadBps int64) *big.Int {
	factor := big.NewInt(BpsDenom + spreadSign[c]*spreadBps)
	p := new(big.Int).Mul(price, factor)
	return p.Quo(p, big.NewInt(BpsDenom))
}

// Notional is collateral * leverage, the economic size of a position.
func Notional(collateral *big.Int, leverage int64) *big.Int {
	return MulScalar(collateral, leverage)
}

// PnL computes the signed profit or loss of closing at exitPrice a position
// entered at entryPrice. exitValue = exitPrice * notional / entryPrice, with
// the product taken before the division so no precision is lost.
func PnL(collateral *big.Int, leverage int64, entryPrice, exitPrice *big.Int, d event.Direction) *big.Int {
	notional := Notional(collateral, leverage)
	exitValue := MulDiv(exitPrice, notional, entryPrice)

	if d == event.DirectionLong {
		return exitValue.Sub(exitValue, notional)
	}
	return new(big.Int).Sub(notional, exitValue)
}

// Payout clamps collateral + pnl into [0, collateral * maxProfitMultiplier].
// The upper clamp is the pool's hard per-position risk ceiling; the lower
// clamp at zero means a position can never owe more than posted collateral.
func Payout(collateral, pnl *big.Int, maxProfitMultiplier int64) *big.Int {
	gross := new(big.Int).Add(collateral, pnl)
	cap := MulScalar(collateral, maxProfitMultiplier)
	return Clamp(gross, big.NewInt(0), cap)
}

// ValidTakeProfit reports whether tp lies strictly on the profitable side of
// the current price for the direction. A target that would fire immediately
// is invalid.
func ValidTakeProfit(d event.Direction, tp, current *big.Int) bool {
	if d == event.DirectionLong {
		return tp.Cmp(current) > 0
	}
	return tp.Cmp(current) < 0 && tp.Sign() > 0
}

// ValidStopLoss reports whether sl lies strictly on the loss side of the
// current price for the direction.
func ValidStopLoss(d event.Direction, sl, current *big.Int) bool {
	if d == event.DirectionLong {
		return sl.Cmp(current) < 0 && sl.Sign() > 0
	}
	return sl.Cmp(current) > 0
}
