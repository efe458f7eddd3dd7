package event

import (
	"math/big"
	"time"

	"github.com/google/uuid"
)

// PositionOpened is emitted after a position record is written and the
// collateral has been pulled into custody.
type PositionOpened struct {
	PositionID uint64    `json:"position_id"`
	Owner      uuid.UUID `json:"owner"`
	Instrument string    `json:"instrument"`
	Direction  Direction `json:"direction"`
	Collateral *big.Int  `json:"collateral"` // wad
	Leverage   int64     `json:"leverage"`
	EntryPrice *big.Int  `json:"entry_price"` // wad, spread-adjusted
	TakeProfit *big.Int  `json:"take_profit,omitempty"`
	StopLoss   *big.Int  `json:"stop_loss,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (p *PositionOpened) NotificationKind() Kind   { return KindPositionOpened }
func (p *PositionOpened) InstrumentSymbol() string { return p.Instrument }

// PositionClosed is emitted after the record is deleted and funds settled.
// PnL is signed; PoolDelta is the signed amount the pool gained.
type PositionClosed struct {
	PositionID uint64      `json:"position_id"`
	Owner      uuid.UUID   `json:"owner"`
	Instrument string      `json:"instrument"`
	Direction  Direction   `json:"direction"`
	Collateral *big.Int    `json:"collateral"`
	Leverage   int64       `json:"leverage"`
	EntryPrice *big.Int    `json:"entry_price"`
	ExitPrice  *big.Int    `json:"exit_price"` // wad, spread-adjusted
	PnL        *big.Int    `json:"pnl"`
	Payout     *big.Int    `json:"payout"`
	PoolDelta  *big.Int    `json:"pool_delta"`
	Reason     CloseReason `json:"reason"`
	Timestamp  time.Time   `json:"timestamp"`
}

func (p *PositionClosed) NotificationKind() Kind   { return KindPositionClosed }
func (p *PositionClosed) InstrumentSymbol() string { return p.Instrument }

// TargetsUpdated is emitted when a take-profit or stop-loss is set or cleared.
type TargetsUpdated struct {
	PositionID uint64    `json:"position_id"`
	Owner      uuid.UUID `json:"owner"`
	Instrument string    `json:"instrument"`
	TakeProfit *big.Int  `json:"take_profit,omitempty"`
	StopLoss   *big.Int  `json:"stop_loss,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

func (t *TargetsUpdated) NotificationKind() Kind   { return KindTargetsUpdated }
func (t *TargetsUpdated) InstrumentSymbol() string { return t.Instrument }

// PositionLiquidated is emitted after a forced close. The owner receives
// nothing; the remaining value splits between the liquidator and the pool.
type PositionLiquidated struct {
	PositionID   uint64    `json:"position_id"`
	Owner        uuid.UUID `json:"owner"`
	Liquidator   uuid.UUID `json:"liquidator"`
	Instrument   string    `json:"instrument"`
	Direction    Direction `json:"direction"`
	Collateral   *big.Int  `json:"collateral"`
	EntryPrice   *big.Int  `json:"entry_price"`
	ExitPrice    *big.Int  `json:"exit_price"`
	Loss         *big.Int  `json:"loss"` // non-negative
	Reward       *big.Int  `json:"reward"`
	PoolReceived *big.Int  `json:"pool_received"`
	Timestamp    time.Time `json:"timestamp"`
}

func (p *PositionLiquidated) NotificationKind() Kind   { return KindPositionLiquidated }
func (p *PositionLiquidated) InstrumentSymbol() string { return p.Instrument }
