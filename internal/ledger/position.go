package ledger

import (
	"math/big"
	"time"

	"github.com/google/uuid"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/event"
)

// Position is one open trade against the pool. Identifiers are dense,
// monotonically increasing and never reused; absence of a record at an
// identifier authoritatively means "not open".
type Position struct {
	ID         uint64
	Owner      uuid.UUID
	Instrument string
	Direction  event.Direction
	Collateral *big.Int // wad, > 0
	Leverage   int64    // >= 1, <= instrument cap
	EntryPrice *big.Int // wad, spread-adjusted execution price
	TakeProfit *big.Int // nil = unset
	StopLoss   *big.Int // nil = unset
	OpenedAt   time.Time
}

// Notional is collateral * leverage.
func (p *Position) Notional() *big.Int {
	return new(big.Int).Mul(p.Collateral, big.NewInt(p.Leverage))
}

// Clone returns a deep copy so callers can never mutate store-owned state.
func (p *Position) Clone() *Position {
	cp := *p
	cp.Collateral = new(big.Int).Set(p.Collateral)
	cp.EntryPrice = new(big.Int).Set(p.EntryPrice)
	if p.TakeProfit != nil {
		cp.TakeProfit = new(big.Int).Set(p.TakeProfit)
	}
	if p.StopLoss != nil {
		cp.StopLoss = new(big.Int).Set(p.StopLoss)
	}
	return &cp
}

// CreatePosition holds the fields of a position about to be written; the
// store assigns the identifier.
type CreatePosition struct {
	Owner      uuid.UUID
	Instrument string
	Direction  event.Direction
	Collateral *big.Int
	Leverage   int64
	EntryPrice *big.Int
	TakeProfit *big.Int
	StopLoss   *big.Int
	OpenedAt   time.Time
}
