package engine

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/event"
	fpmath "github.com/GushALKDev/evm-synthetic-trading-protocol/internal/math"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/observability"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/oracle"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/pool"
)

// LiquidateRequest asks the engine to force-close an underwater position.
// Any account may trigger a liquidation; the caller is the reward recipient,
// not necessarily the owner.
type LiquidateRequest struct {
	PositionID uint64
	Liquidator uuid.UUID
	Quote      oracle.QuoteBundle
}

// LiquidateResult reports the split of the seized collateral.
type LiquidateResult struct {
	MarkPrice    *big.Int
	Loss         *big.Int
	Reward       *big.Int
	PoolReceived *big.Int
}

// Liquidate force-closes a position whose loss has reached the configured
// fraction of its collateral. Eligibility is judged at the validated price
// with no spread applied; the spread is an execution cost for voluntary
// trades, not part of the solvency test. The owner receives nothing; the
// trigger earns a fraction of the remaining value and the pool absorbs the
// rest.
func (e *Engine) Liquidate(req LiquidateRequest) (*LiquidateResult, error) {
	start := e.now()

	res, err := e.liquidate(req)
	e.observe("liquidate", start, err)
	return res, err
}

func (e *Engine) liquidate(req LiquidateRequest) (*LiquidateResult, error) {
	cfg := e.ConfigSnapshot()

	unlockPos := e.posLocks.lock(positionKey(req.PositionID))
	defer unlockPos()

	pos, ok := e.store.Get(req.PositionID)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrPositionNotFound, req.PositionID)
	}

	vp, err := e.prices.Validate(pos.Instrument, req.Quote)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.PricesValidated.Inc()
	}

	pnl := fpmath.PnL(pos.Collateral, pos.Leverage, pos.EntryPrice, vp.Price, pos.Direction)
	if pnl.Sign() >= 0 {
		return nil, fmt.Errorf("%w: position %d has no loss at %s",
			ErrNotLiquidatable, pos.ID, vp.Price)
	}

	loss := new(big.Int).Neg(pnl)
	if !fpmath.RatioAtLeastBps(loss, pos.Collateral, cfg.LiquidationThresholdBps) {
		return nil, fmt.Errorf("%w: position %d loss %s below threshold of collateral %s",
			ErrNotLiquidatable, pos.ID, loss, pos.Collateral)
	}

	// Remaining value after the loss, floored at zero: a loss past 100%
	// leaves nothing to split.
	remaining := new(big.Int).Sub(pos.Collateral, loss)
	if remaining.Sign() < 0 {
		remaining.SetInt64(0)
	}
	reward := fpmath.MulBps(remaining, cfg.LiquidationRewardBps)
	poolShare := new(big.Int).Sub(pos.Collateral, reward)

	liquidatedAt := e.now()

	e.deletePosition(pos)

	// Custody holds exactly the collateral; the reward never exceeds the
	// remaining value, so both transfers are covered.
	if reward.Sign() > 0 {
		e.mustTransfer(pool.AccountCustody, pool.OwnerAccount(req.Liquidator), reward)
	}
	e.mustTransfer(pool.AccountCustody, pool.AccountPool, poolShare)

	if e.metrics != nil {
		e.metrics.Liquidations.WithLabelValues(pos.Instrument).Inc()
		e.metrics.PoolBalance.Set(observability.WadToUnits(e.pool.TotalAvailable()))
	}

	e.emit(event.KindPositionLiquidated, pos.Instrument,
		fmt.Sprintf("liquidate:%d", pos.ID), liquidatedAt,
		&event.PositionLiquidated{
			PositionID:   pos.ID,
			Owner:        pos.Owner,
			Liquidator:   req.Liquidator,
			Instrument:   pos.Instrument,
			Direction:    pos.Direction,
			Collateral:   pos.Collateral,
			EntryPrice:   pos.EntryPrice,
			ExitPrice:    vp.Price,
			Loss:         loss,
			Reward:       reward,
			PoolReceived: poolShare,
			Timestamp:    liquidatedAt,
		})

	e.log.Warn().
		Uint64("position_id", pos.ID).
		Str("instrument", pos.Instrument).
		Str("mark_price", vp.Price.String()).
		Str("loss", loss.String()).
		Str("reward", reward.String()).
		Msg("position liquidated")

	return &LiquidateResult{
		MarkPrice:    vp.Price,
		Loss:         loss,
		Reward:       reward,
		PoolReceived: poolShare,
	}, nil
}
