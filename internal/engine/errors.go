package engine

import (
	"errors"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/oracle"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/pool"
)

// Every rejection is fatal to the call with no partial state change. The
// engine never retries on its own; retry policy belongs to the caller.
var (
	// Configuration errors.
	ErrInstrumentNotFound = errors.New("instrument not configured")
	ErrInstrumentInactive = errors.New("instrument inactive")
	ErrLeverageOutOfRange = errors.New("leverage out of range")

	// Economic-state errors. Messages carry the offending values so the
	// caller can decide whether to resubmit with adjusted parameters.
	ErrCollateralTooSmall          = errors.New("collateral below minimum")
	ErrSlippageExceeded            = errors.New("slippage bound exceeded")
	ErrInvalidTakeProfit           = errors.New("take-profit would trigger immediately")
	ErrInvalidStopLoss             = errors.New("stop-loss would trigger immediately")
	ErrPositionNotFound            = errors.New("position not found")
	ErrNotOwner                    = errors.New("caller is not the position owner")
	ErrExposureCapExceeded         = errors.New("instrument exposure cap exceeded")
	ErrInsufficientCollateralFunds = errors.New("caller cannot fund the collateral")
	ErrInsufficientPoolCapital     = errors.New("pool cannot cover the payout")
	ErrNotLiquidatable             = errors.New("loss below liquidation threshold")

	// Malformed request values (nil or non-positive where positive required).
	ErrInvalidArgument = errors.New("invalid argument")
)

// rejectReason maps an error to a stable metrics label.
func rejectReason(err error) string {
	if kind, ok := oracle.KindOf(err); ok {
		return "price_" + kind.String()
	}

	switch {
	case errors.Is(err, ErrInstrumentNotFound):
		return "instrument_not_found"
	case errors.Is(err, ErrInstrumentInactive):
		return "instrument_inactive"
	case errors.Is(err, ErrLeverageOutOfRange):
		return "leverage_out_of_range"
	case errors.Is(err, ErrCollateralTooSmall):
		return "collateral_too_small"
	case errors.Is(err, ErrSlippageExceeded):
		return "slippage_exceeded"
	case errors.Is(err, ErrInvalidTakeProfit):
		return "invalid_take_profit"
	case errors.Is(err, ErrInvalidStopLoss):
		return "invalid_stop_loss"
	case errors.Is(err, ErrPositionNotFound):
		return "position_not_found"
	case errors.Is(err, ErrNotOwner):
		return "not_owner"
	case errors.Is(err, ErrExposureCapExceeded):
		return "exposure_cap"
	case errors.Is(err, ErrInsufficientCollateralFunds), errors.Is(err, pool.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInsufficientPoolCapital), errors.Is(err, pool.ErrInsufficientCapital):
		return "insufficient_pool_capital"
	case errors.Is(err, ErrNotLiquidatable):
		return "not_liquidatable"
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	default:
		return "internal"
	}
}
