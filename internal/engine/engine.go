package engine

import (
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/event"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/ledger"
	fpmath "github.com/GushALKDev/evm-synthetic-trading-protocol/internal/math"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/observability"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/oracle"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/pool"
)

// PriceSource yields a validated price for an instrument from a caller-
// supplied quote bundle, or a typed rejection.
type PriceSource interface {
	Validate(instrument string, bundle oracle.QuoteBundle) (*oracle.ValidatedPrice, error)
}

// Config holds the engine's economic parameters. Spread is mutable through
// the administrative surface; the rest is fixed at startup.
type Config struct {
	// MinCollateral is the smallest position the engine will open, wad.
	MinCollateral *big.Int

	// SpreadBps is the execution spread in basis points.
	SpreadBps int64

	// MaxProfitMultiplier caps a single position's payout at this multiple
	// of its collateral.
	MaxProfitMultiplier int64

	// LiquidationThresholdBps: a position is liquidatable once its loss
	// reaches this fraction of collateral, in basis points.
	LiquidationThresholdBps int64

	// LiquidationRewardBps: the fraction of remaining value paid to the
	// liquidation trigger, in basis points.
	LiquidationRewardBps int64
}

// DefaultConfig returns the production parameters: 0.1% spread, 9x profit
// cap, 90% liquidation threshold, 5% trigger reward.
func DefaultConfig() Config {
	return Config{
		MinCollateral:           fpmath.Wad(10),
		SpreadBps:               10,
		MaxProfitMultiplier:     9,
		LiquidationThresholdBps: 9_000,
		LiquidationRewardBps:    500,
	}
}

// Validate checks the parameter ranges.
func (c Config) Validate() error {
	if c.MinCollateral == nil || c.MinCollateral.Sign() <= 0 {
		return fmt.Errorf("min_collateral must be > 0")
	}
	if c.SpreadBps < 0 || c.SpreadBps >= fpmath.BpsDenom {
		return fmt.Errorf("spread_bps must be in [0, %d), got %d", fpmath.BpsDenom, c.SpreadBps)
	}
	if c.MaxProfitMultiplier < 1 {
		return fmt.Errorf("max_profit_multiplier must be >= 1, got %d", c.MaxProfitMultiplier)
	}
	if c.LiquidationThresholdBps <= 0 || c.LiquidationThresholdBps > fpmath.BpsDenom {
		return fmt.Errorf("liquidation_threshold_bps must be in (0, %d], got %d", fpmath.BpsDenom, c.LiquidationThresholdBps)
	}
	if c.LiquidationRewardBps < 0 || c.LiquidationRewardBps >= fpmath.BpsDenom {
		return fmt.Errorf("liquidation_reward_bps must be in [0, %d), got %d", fpmath.BpsDenom, c.LiquidationRewardBps)
	}
	return nil
}

// Engine sequences validator -> pricing math -> ledger -> fund movement for
// every lifecycle operation. Each operation is fail-closed: any rejection
// leaves ledger, custody and pool untouched. State is always mutated before
// value is transferred, so an external callee reached during a transfer can
// never observe or act on a half-updated ledger.
type Engine struct {
	cfgMu sync.RWMutex
	cfg   Config

	store  ledger.Store
	prices PriceSource
	bank   *pool.Bank
	pool   *pool.LiquidityPool

	posLocks  *stripedMutex
	instLocks *stripedMutex

	seq atomic.Int64

	// outbound gets non-blocking sends (drop on full, counted); history gets
	// blocking sends so no settlement record is ever lost.
	outbound chan<- event.Outbound
	history  chan<- event.Outbound

	metrics *observability.Metrics
	log     zerolog.Logger

	now func() time.Time
}

func New(
	cfg Config,
	store ledger.Store,
	prices PriceSource,
	bank *pool.Bank,
	lp *pool.LiquidityPool,
	outbound, history chan<- event.Outbound,
	metrics *observability.Metrics,
	log zerolog.Logger,
) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	return &Engine{
		cfg:       cfg,
		store:     store,
		prices:    prices,
		bank:      bank,
		pool:      lp,
		posLocks:  newStripedMutex(),
		instLocks: newStripedMutex(),
		outbound:  outbound,
		history:   history,
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}, nil
}

// SetClock overrides the wall clock. Tests only.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// SetSpreadBps updates the execution spread. Administrative surface.
func (e *Engine) SetSpreadBps(bps int64) error {
	if bps < 0 || bps >= fpmath.BpsDenom {
		return fmt.Errorf("%w: spread_bps must be in [0, %d), got %d", ErrInvalidArgument, fpmath.BpsDenom, bps)
	}
	e.cfgMu.Lock()
	defer e.cfgMu.Unlock()
	e.cfg.SpreadBps = bps
	return nil
}

// ConfigSnapshot returns the current parameters.
func (e *Engine) ConfigSnapshot() Config {
	e.cfgMu.RLock()
	defer e.cfgMu.RUnlock()
	cfg := e.cfg
	cfg.MinCollateral = new(big.Int).Set(e.cfg.MinCollateral)
	return cfg
}

// OpenRequest carries everything needed to open a position. The quote
// bundle is fetched by the caller out-of-band (pull model).
type OpenRequest struct {
	Owner          uuid.UUID
	Instrument     string
	Direction      event.Direction
	Collateral     *big.Int // wad
	Leverage       int64
	ExpectedPrice  *big.Int // wad, from the caller's quote fetch
	MaxSlippageBps int64
	TakeProfit     *big.Int // nil = unset
	StopLoss       *big.Int // nil = unset
	Quote          oracle.QuoteBundle
}

// OpenResult reports the assigned identifier and the spread-adjusted
// execution price.
type OpenResult struct {
	PositionID     uint64
	ExecutionPrice *big.Int
}

// Open validates, prices and writes a new position, then pulls the
// collateral into custody. The position record and exposure are written
// before the fund movement; if the collateral pull fails the record is
// rolled back so no state survives a failed open.
func (e *Engine) Open(req OpenRequest) (*OpenResult, error) {
	start := e.now()

	res, err := e.open(req)
	e.observe("open", start, err)
	return res, err
}

func (e *Engine) open(req OpenRequest) (*OpenResult, error) {
	cfg := e.ConfigSnapshot()

	inst, ok := e.store.Instrument(req.Instrument)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInstrumentNotFound, req.Instrument)
	}
	if !inst.Active {
		return nil, fmt.Errorf("%w: %s", ErrInstrumentInactive, req.Instrument)
	}
	if !req.Direction.Valid() {
		return nil, fmt.Errorf("%w: unknown direction", ErrInvalidArgument)
	}
	if req.Leverage < 1 || req.Leverage > inst.MaxLeverage {
		return nil, fmt.Errorf("%w: leverage %d outside [1, %d] for %s",
			ErrLeverageOutOfRange, req.Leverage, inst.MaxLeverage, inst.Symbol)
	}
	if req.Collateral == nil || req.Collateral.Sign() <= 0 {
		return nil, fmt.Errorf("%w: collateral must be > 0", ErrInvalidArgument)
	}
	if req.Collateral.Cmp(cfg.MinCollateral) < 0 {
		return nil, fmt.Errorf("%w: collateral %s below minimum %s",
			ErrCollateralTooSmall, req.Collateral, cfg.MinCollateral)
	}

	vp, err := e.prices.Validate(req.Instrument, req.Quote)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.PricesValidated.Inc()
	}

	exec := fpmath.ApplySpread(vp.Price, fpmath.SpreadCaseFor(req.Direction, true), cfg.SpreadBps)

	if err := checkSlippage(exec, req.ExpectedPrice, req.MaxSlippageBps); err != nil {
		return nil, err
	}

	// Exit targets are validated against the unspread validated price: the
	// spread is an execution cost, not a market level.
	if req.TakeProfit != nil && !fpmath.ValidTakeProfit(req.Direction, req.TakeProfit, vp.Price) {
		return nil, fmt.Errorf("%w: tp %s vs price %s (%s)",
			ErrInvalidTakeProfit, req.TakeProfit, vp.Price, req.Direction)
	}
	if req.StopLoss != nil && !fpmath.ValidStopLoss(req.Direction, req.StopLoss, vp.Price) {
		return nil, fmt.Errorf("%w: sl %s vs price %s (%s)",
			ErrInvalidStopLoss, req.StopLoss, vp.Price, req.Direction)
	}

	notional := fpmath.Notional(req.Collateral, req.Leverage)

	// The instrument lock makes the cap check and the exposure increment one
	// atomic step against concurrent opens.
	unlock := e.instLocks.lock(req.Instrument)
	defer unlock()

	projected := new(big.Int).Add(e.store.Exposure(req.Instrument), notional)
	if projected.Cmp(inst.MaxExposure) > 0 {
		return nil, fmt.Errorf("%w: %s exposure would reach %s, cap %s",
			ErrExposureCapExceeded, inst.Symbol, projected, inst.MaxExposure)
	}

	openedAt := e.now()
	id, err := e.store.Create(ledger.CreatePosition{
		Owner:      req.Owner,
		Instrument: req.Instrument,
		Direction:  req.Direction,
		Collateral: req.Collateral,
		Leverage:   req.Leverage,
		EntryPrice: exec,
		TakeProfit: req.TakeProfit,
		StopLoss:   req.StopLoss,
		OpenedAt:   openedAt,
	})
	if err != nil {
		return nil, fmt.Errorf("create position: %w", err)
	}
	if err := e.store.IncreaseExposure(req.Instrument, notional); err != nil {
		e.store.Delete(id)
		return nil, fmt.Errorf("increase exposure: %w", err)
	}

	// Record written, now pull the collateral. On failure, roll the whole
	// open back so no partial state survives a failed open.
	if err := e.bank.Transfer(pool.OwnerAccount(req.Owner), pool.AccountCustody, req.Collateral); err != nil {
		e.store.DecreaseExposure(req.Instrument, notional)
		e.store.Delete(id)
		return nil, fmt.Errorf("%w: %v", ErrInsufficientCollateralFunds, err)
	}

	e.emit(event.KindPositionOpened, req.Instrument,
		fmt.Sprintf("open:%d", id), openedAt,
		&event.PositionOpened{
			PositionID: id,
			Owner:      req.Owner,
			Instrument: req.Instrument,
			Direction:  req.Direction,
			Collateral: new(big.Int).Set(req.Collateral),
			Leverage:   req.Leverage,
			EntryPrice: new(big.Int).Set(exec),
			TakeProfit: cloneOrNil(req.TakeProfit),
			StopLoss:   cloneOrNil(req.StopLoss),
			Timestamp:  openedAt,
		})

	if e.metrics != nil {
		e.metrics.PositionsOpen.Inc()
		e.metrics.InstrumentExposure.WithLabelValues(req.Instrument).
			Set(observability.WadToUnits(e.store.Exposure(req.Instrument)))
	}

	e.log.Info().
		Uint64("position_id", id).
		Str("instrument", req.Instrument).
		Str("direction", req.Direction.String()).
		Str("collateral", req.Collateral.String()).
		Int64("leverage", req.Leverage).
		Str("entry_price", exec.String()).
		Msg("position opened")

	return &OpenResult{PositionID: id, ExecutionPrice: exec}, nil
}

// CloseRequest closes a position at a caller-supplied quote.
type CloseRequest struct {
	PositionID     uint64
	Caller         uuid.UUID
	ExpectedPrice  *big.Int
	MaxSlippageBps int64
	Quote          oracle.QuoteBundle
}

// CloseResult reports the settlement outcome. PoolDelta is signed: positive
// when the pool gained.
type CloseResult struct {
	ExitPrice *big.Int
	PnL       *big.Int
	Payout    *big.Int
	PoolDelta *big.Int
	Reason    event.CloseReason
}

// Close settles and deletes a position. The record is deleted and exposure
// decremented before any funds move; the pool's capital is pre-checked so a
// profitable close either settles in full or rejects before mutation.
func (e *Engine) Close(req CloseRequest) (*CloseResult, error) {
	start := e.now()

	res, err := e.close(req)
	e.observe("close", start, err)
	return res, err
}

func (e *Engine) close(req CloseRequest) (*CloseResult, error) {
	cfg := e.ConfigSnapshot()

	unlockPos := e.posLocks.lock(positionKey(req.PositionID))
	defer unlockPos()

	// Always re-read under the lock; the engine never acts on a position
	// cached across calls.
	pos, ok := e.store.Get(req.PositionID)
	if !ok {
		return nil, fmt.Errorf("%w: id %d", ErrPositionNotFound, req.PositionID)
	}
	if pos.Owner != req.Caller {
		return nil, fmt.Errorf("%w: position %d", ErrNotOwner, req.PositionID)
	}

	vp, err := e.prices.Validate(pos.Instrument, req.Quote)
	if err != nil {
		return nil, err
	}
	if e.metrics != nil {
		e.metrics.PricesValidated.Inc()
	}

	exec := fpmath.ApplySpread(vp.Price, fpmath.SpreadCaseFor(pos.Direction, false), cfg.SpreadBps)

	if err := checkSlippage(exec, req.ExpectedPrice, req.MaxSlippageBps); err != nil {
		return nil, err
	}

	pnl := fpmath.PnL(pos.Collateral, pos.Leverage, pos.EntryPrice, exec, pos.Direction)
	payout := fpmath.Payout(pos.Collateral, pnl, cfg.MaxProfitMultiplier)

	// Reserve the profit delta before any mutation: a profitable close must
	// never delete the record and then discover the pool cannot pay. The
	// reservation also keeps a concurrent close on another position from
	// claiming the same capital between this check and the payout.
	var profitDelta *big.Int
	if payout.Cmp(pos.Collateral) > 0 {
		profitDelta = new(big.Int).Sub(payout, pos.Collateral)
		if err := e.pool.Reserve(profitDelta); err != nil {
			return nil, fmt.Errorf("%w: need %s, pool has %s",
				ErrInsufficientPoolCapital, profitDelta, e.pool.TotalAvailable())
		}
	}

	reason := closeReason(pos, exec)
	closedAt := e.now()

	e.deletePosition(pos)
	e.settleClose(pos, payout, profitDelta)

	poolDelta := new(big.Int).Sub(pos.Collateral, payout)

	e.emit(event.KindPositionClosed, pos.Instrument,
		fmt.Sprintf("close:%d", pos.ID), closedAt,
		&event.PositionClosed{
			PositionID: pos.ID,
			Owner:      pos.Owner,
			Instrument: pos.Instrument,
			Direction:  pos.Direction,
			Collateral: pos.Collateral,
			Leverage:   pos.Leverage,
			EntryPrice: pos.EntryPrice,
			ExitPrice:  exec,
			PnL:        pnl,
			Payout:     payout,
			PoolDelta:  poolDelta,
			Reason:     reason,
			Timestamp:  closedAt,
		})

	if e.metrics != nil {
		e.metrics.PayoutsTotal.Add(observability.WadToUnits(payout))
	}

	e.log.Info().
		Uint64("position_id", pos.ID).
		Str("instrument", pos.Instrument).
		Str("exit_price", exec.String()).
		Str("pnl", pnl.String()).
		Str("payout", payout.String()).
		Str("reason", reason.String()).
		Msg("position closed")

	return &CloseResult{
		ExitPrice: exec,
		PnL:       pnl,
		Payout:    payout,
		PoolDelta: poolDelta,
		Reason:    reason,
	}, nil
}

// deletePosition removes the record and decrements exposure. Both are
// in-memory effects; failures here mean corrupted ledger state and abort.
func (e *Engine) deletePosition(pos *ledger.Position) {
	if err := e.store.Delete(pos.ID); err != nil {
		panic(fmt.Sprintf("FATAL: delete position %d: %v", pos.ID, err))
	}
	if err := e.store.DecreaseExposure(pos.Instrument, pos.Notional()); err != nil {
		panic(fmt.Sprintf("FATAL: decrease exposure for %s: %v", pos.Instrument, err))
	}

	if e.metrics != nil {
		e.metrics.PositionsOpen.Dec()
		e.metrics.InstrumentExposure.WithLabelValues(pos.Instrument).
			Set(observability.WadToUnits(e.store.Exposure(pos.Instrument)))
	}
}

// settleClose executes the three-way conservation split after the ledger
// mutation. Custody holds exactly the position's collateral, and the profit
// delta was reserved from the pool, so a transfer failure here is a
// conservation defect, not a caller error.
func (e *Engine) settleClose(pos *ledger.Position, payout, profitDelta *big.Int) {
	owner := pool.OwnerAccount(pos.Owner)

	switch {
	case payout.Sign() == 0:
		// Full loss: the entire collateral routes to the pool.
		e.mustTransfer(pool.AccountCustody, pool.AccountPool, pos.Collateral)

	case profitDelta == nil:
		// Partial loss (or break-even): payout to the owner, shortfall to
		// the pool.
		e.mustTransfer(pool.AccountCustody, owner, payout)
		shortfall := new(big.Int).Sub(pos.Collateral, payout)
		e.mustTransfer(pool.AccountCustody, pool.AccountPool, shortfall)

	default:
		// Profit: full collateral back from custody, the reserved delta
		// pulled from the pool.
		e.mustTransfer(pool.AccountCustody, owner, pos.Collateral)
		if err := e.pool.PayReserved(owner, profitDelta); err != nil {
			panic(fmt.Sprintf("FATAL: reserved pool payout: %v", err))
		}
	}

	if e.metrics != nil {
		e.metrics.PoolBalance.Set(observability.WadToUnits(e.pool.TotalAvailable()))
	}
}

func (e *Engine) mustTransfer(from, to pool.Account, amount *big.Int) {
	if err := e.bank.Transfer(from, to, amount); err != nil {
		panic(fmt.Sprintf("FATAL: settlement transfer %s -> %s of %s: %v", from, to, amount, err))
	}
}

// UpdateTakeProfit sets or clears a take-profit. A nil value clears the
// target and skips price validation entirely; a concrete value is checked
// against a freshly validated price, not the stored entry.
func (e *Engine) UpdateTakeProfit(positionID uint64, caller uuid.UUID, value *big.Int, quote oracle.QuoteBundle) error {
	start := e.now()
	err := e.updateTarget(positionID, caller, value, quote, true)
	e.observe("update_take_profit", start, err)
	return err
}

// UpdateStopLoss sets or clears a stop-loss, with the directional rule
// inverted relative to take-profit.
func (e *Engine) UpdateStopLoss(positionID uint64, caller uuid.UUID, value *big.Int, quote oracle.QuoteBundle) error {
	start := e.now()
	err := e.updateTarget(positionID, caller, value, quote, false)
	e.observe("update_stop_loss", start, err)
	return err
}

func (e *Engine) updateTarget(positionID uint64, caller uuid.UUID, value *big.Int, quote oracle.QuoteBundle, takeProfit bool) error {
	unlock := e.posLocks.lock(positionKey(positionID))
	defer unlock()

	pos, ok := e.store.Get(positionID)
	if !ok {
		return fmt.Errorf("%w: id %d", ErrPositionNotFound, positionID)
	}
	if pos.Owner != caller {
		return fmt.Errorf("%w: position %d", ErrNotOwner, positionID)
	}

	if value != nil {
		if value.Sign() <= 0 {
			return fmt.Errorf("%w: target must be > 0", ErrInvalidArgument)
		}

		vp, err := e.prices.Validate(pos.Instrument, quote)
		if err != nil {
			return err
		}

		if takeProfit {
			if !fpmath.ValidTakeProfit(pos.Direction, value, vp.Price) {
				return fmt.Errorf("%w: tp %s vs price %s (%s)",
					ErrInvalidTakeProfit, value, vp.Price, pos.Direction)
			}
		} else {
			if !fpmath.ValidStopLoss(pos.Direction, value, vp.Price) {
				return fmt.Errorf("%w: sl %s vs price %s (%s)",
					ErrInvalidStopLoss, value, vp.Price, pos.Direction)
			}
		}
	}

	var err error
	if takeProfit {
		err = e.store.SetTakeProfit(positionID, value)
	} else {
		err = e.store.SetStopLoss(positionID, value)
	}
	if err != nil {
		return fmt.Errorf("set target: %w", err)
	}

	updated, _ := e.store.Get(positionID)
	ts := e.now()
	e.emit(event.KindTargetsUpdated, pos.Instrument,
		fmt.Sprintf("targets:%d", positionID), ts,
		&event.TargetsUpdated{
			PositionID: positionID,
			Owner:      pos.Owner,
			Instrument: pos.Instrument,
			TakeProfit: cloneOrNil(updated.TakeProfit),
			StopLoss:   cloneOrNil(updated.StopLoss),
			Timestamp:  ts,
		})

	return nil
}

// Position returns a copy of an open position.
func (e *Engine) Position(id uint64) (*ledger.Position, bool) {
	return e.store.Get(id)
}

// OwnerPositions lists an owner's open positions.
func (e *Engine) OwnerPositions(owner uuid.UUID) []*ledger.Position {
	return e.store.OwnerPositions(owner)
}

// checkSlippage enforces |exec - expected| / expected <= maxBps. Protects
// the trader against movement between quote fetch and submission.
func checkSlippage(exec, expected *big.Int, maxBps int64) error {
	if expected == nil || expected.Sign() <= 0 {
		return fmt.Errorf("%w: expected price must be > 0", ErrInvalidArgument)
	}
	if maxBps < 0 {
		return fmt.Errorf("%w: max slippage must be >= 0", ErrInvalidArgument)
	}
	if fpmath.RatioExceedsBps(fpmath.AbsDiff(exec, expected), expected, maxBps) {
		return fmt.Errorf("%w: execution %s vs expected %s, bound %d bps",
			ErrSlippageExceeded, exec, expected, maxBps)
	}
	return nil
}

// closeReason reports whether the exit crossed a configured target. The
// engine does not self-trigger limit closes; it only records that the
// submitted close executed at or beyond a target.
func closeReason(pos *ledger.Position, exec *big.Int) event.CloseReason {
	if pos.Direction == event.DirectionLong {
		if pos.TakeProfit != nil && exec.Cmp(pos.TakeProfit) >= 0 {
			return event.CloseReasonAtLimit
		}
		if pos.StopLoss != nil && exec.Cmp(pos.StopLoss) <= 0 {
			return event.CloseReasonAtLimit
		}
	} else {
		if pos.TakeProfit != nil && exec.Cmp(pos.TakeProfit) <= 0 {
			return event.CloseReasonAtLimit
		}
		if pos.StopLoss != nil && exec.Cmp(pos.StopLoss) >= 0 {
			return event.CloseReasonAtLimit
		}
	}
	return event.CloseReasonManual
}

// emit sends the notification to both downstream channels: blocking to the
// history worker (no settlement record may be lost), non-blocking to the
// outbound publisher (drop on full, counted).
func (e *Engine) emit(kind event.Kind, instrument, keySuffix string, ts time.Time, payload event.Notification) {
	// The sequence makes the key unique per mutation (successive target
	// updates on one position in particular); a redelivered emission keeps
	// the key it was assigned, so downstream dedup still collapses it.
	seq := e.seq.Add(1)
	out := event.Outbound{
		Envelope: event.Envelope{
			Sequence:       seq,
			IdempotencyKey: fmt.Sprintf("%s:%s:%d", kind, keySuffix, seq),
			Kind:           kind,
			Instrument:     instrument,
			Timestamp:      ts,
		},
		Payload: payload,
	}

	if e.history != nil {
		e.history <- out
	}

	if e.outbound != nil {
		select {
		case e.outbound <- out:
		default:
			if e.metrics != nil {
				e.metrics.OutboundDrops.Inc()
			}
		}
	}
}

func (e *Engine) observe(op string, start time.Time, err error) {
	if e.metrics == nil {
		return
	}
	if err != nil {
		if kind, ok := oracle.KindOf(err); ok {
			e.metrics.PriceRejections.WithLabelValues(kind.String()).Inc()
		}
		e.metrics.OpsRejected.WithLabelValues(op, rejectReason(err)).Inc()
		return
	}
	e.metrics.OpsApplied.WithLabelValues(op).Inc()
	e.metrics.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func cloneOrNil(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
