// Package server exposes the settlement engine over HTTP. Traders fetch
// oracle quotes out-of-band and attach them to every mutating call.
package server

import (
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/engine"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/oracle"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/pool"
)

// PositionHandler serves the trading surface.
type PositionHandler struct {
	eng *engine.Engine
	lp  *pool.LiquidityPool
}

func NewPositionHandler(eng *engine.Engine, lp *pool.LiquidityPool) *PositionHandler {
	return &PositionHandler{eng: eng, lp: lp}
}

type openRequest struct {
	Owner          string    `json:"owner"`
	Instrument     string    `json:"instrument"`
	Direction      string    `json:"direction"`
	Collateral     string    `json:"collateral"`
	Leverage       int64     `json:"leverage"`
	ExpectedPrice  string    `json:"expected_price"`
	MaxSlippageBps int64     `json:"max_slippage_bps"`
	TakeProfit     string    `json:"take_profit,omitempty"`
	StopLoss       string    `json:"stop_loss,omitempty"`
	Quote          BundleDTO `json:"quote"`
}

// Open creates a position.
// POST /api/positions
func (h *PositionHandler) Open(c echo.Context) error {
	var req openRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "malformed request body")
	}

	owner, err := uuid.Parse(req.Owner)
	if err != nil {
		return BadRequestResponse(c, "invalid owner id")
	}
	direction, err := parseDirection(req.Direction)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}
	collateral, err := ParseWad(req.Collateral)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}
	expected, err := ParseWad(req.ExpectedPrice)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}
	takeProfit, err := parseOptionalWad(req.TakeProfit)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}
	stopLoss, err := parseOptionalWad(req.StopLoss)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	res, err := h.eng.Open(engine.OpenRequest{
		Owner:          owner,
		Instrument:     req.Instrument,
		Direction:      direction,
		Collateral:     collateral,
		Leverage:       req.Leverage,
		ExpectedPrice:  expected,
		MaxSlippageBps: req.MaxSlippageBps,
		TakeProfit:     takeProfit,
		StopLoss:       stopLoss,
		Quote:          req.Quote.toBundle(),
	})
	if err != nil {
		return engineError(c, err)
	}

	return CreatedResponse(c, map[string]interface{}{
		"position_id":     res.PositionID,
		"execution_price": FormatWad(res.ExecutionPrice),
	})
}

type closeRequest struct {
	Caller         string    `json:"caller"`
	ExpectedPrice  string    `json:"expected_price"`
	MaxSlippageBps int64     `json:"max_slippage_bps"`
	Quote          BundleDTO `json:"quote"`
}

// Close settles a position.
// POST /api/positions/:id/close
func (h *PositionHandler) Close(c echo.Context) error {
	id, err := parsePositionID(c)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	var req closeRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "malformed request body")
	}
	caller, err := uuid.Parse(req.Caller)
	if err != nil {
		return BadRequestResponse(c, "invalid caller id")
	}
	expected, err := ParseWad(req.ExpectedPrice)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	res, err := h.eng.Close(engine.CloseRequest{
		PositionID:     id,
		Caller:         caller,
		ExpectedPrice:  expected,
		MaxSlippageBps: req.MaxSlippageBps,
		Quote:          req.Quote.toBundle(),
	})
	if err != nil {
		return engineError(c, err)
	}

	return SuccessResponse(c, map[string]interface{}{
		"exit_price": FormatWad(res.ExitPrice),
		"pnl":        FormatWad(res.PnL),
		"payout":     FormatWad(res.Payout),
		"pool_delta": FormatWad(res.PoolDelta),
		"reason":     res.Reason.String(),
	})
}

type targetRequest struct {
	Caller string    `json:"caller"`
	Value  string    `json:"value,omitempty"` // empty clears the target
	Quote  BundleDTO `json:"quote"`
}

// UpdateTakeProfit sets or clears the take-profit target.
// PUT /api/positions/:id/take-profit
func (h *PositionHandler) UpdateTakeProfit(c echo.Context) error {
	return h.updateTarget(c, true)
}

// UpdateStopLoss sets or clears the stop-loss target.
// PUT /api/positions/:id/stop-loss
func (h *PositionHandler) UpdateStopLoss(c echo.Context) error {
	return h.updateTarget(c, false)
}

func (h *PositionHandler) updateTarget(c echo.Context, takeProfit bool) error {
	id, err := parsePositionID(c)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	var req targetRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "malformed request body")
	}
	caller, err := uuid.Parse(req.Caller)
	if err != nil {
		return BadRequestResponse(c, "invalid caller id")
	}
	value, err := parseOptionalWad(req.Value)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	if takeProfit {
		err = h.eng.UpdateTakeProfit(id, caller, value, req.Quote.toBundle())
	} else {
		err = h.eng.UpdateStopLoss(id, caller, value, req.Quote.toBundle())
	}
	if err != nil {
		return engineError(c, err)
	}

	return SuccessResponse(c, nil)
}

type liquidateRequest struct {
	Liquidator string    `json:"liquidator"`
	Quote      BundleDTO `json:"quote"`
}

// Liquidate force-closes an underwater position.
// POST /api/positions/:id/liquidate
func (h *PositionHandler) Liquidate(c echo.Context) error {
	id, err := parsePositionID(c)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	var req liquidateRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "malformed request body")
	}
	liquidator, err := uuid.Parse(req.Liquidator)
	if err != nil {
		return BadRequestResponse(c, "invalid liquidator id")
	}

	res, err := h.eng.Liquidate(engine.LiquidateRequest{
		PositionID: id,
		Liquidator: liquidator,
		Quote:      req.Quote.toBundle(),
	})
	if err != nil {
		return engineError(c, err)
	}

	return SuccessResponse(c, map[string]interface{}{
		"mark_price":    FormatWad(res.MarkPrice),
		"loss":          FormatWad(res.Loss),
		"reward":        FormatWad(res.Reward),
		"pool_received": FormatWad(res.PoolReceived),
	})
}

// Get returns one open position.
// GET /api/positions/:id
func (h *PositionHandler) Get(c echo.Context) error {
	id, err := parsePositionID(c)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	pos, ok := h.eng.Position(id)
	if !ok {
		return ErrorResponse(c, http.StatusNotFound, "position not found", nil)
	}
	return SuccessResponse(c, positionDTO(pos))
}

// ListByOwner returns an owner's open positions.
// GET /api/owners/:owner/positions
func (h *PositionHandler) ListByOwner(c echo.Context) error {
	owner, err := uuid.Parse(c.Param("owner"))
	if err != nil {
		return BadRequestResponse(c, "invalid owner id")
	}

	positions := h.eng.OwnerPositions(owner)
	dtos := make([]PositionDTO, 0, len(positions))
	for _, p := range positions {
		dtos = append(dtos, positionDTO(p))
	}
	return SuccessResponse(c, dtos)
}

// Pool reports the pool's available capital.
// GET /api/pool
func (h *PositionHandler) Pool(c echo.Context) error {
	return SuccessResponse(c, map[string]interface{}{
		"available": FormatWad(h.lp.TotalAvailable()),
	})
}

func parsePositionID(c echo.Context) (uint64, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		return 0, errors.New("invalid position id")
	}
	return id, nil
}

func parseOptionalWad(s string) (*big.Int, error) {
	if s == "" {
		return nil, nil
	}
	return ParseWad(s)
}

// engineError maps engine and oracle rejections onto HTTP statuses. Every
// price rejection is a 422: the request was well-formed but the market data
// did not pass validation.
func engineError(c echo.Context, err error) error {
	if _, ok := oracle.KindOf(err); ok {
		return ErrorResponse(c, http.StatusUnprocessableEntity, "price rejected", err.Error())
	}

	switch {
	case errors.Is(err, engine.ErrPositionNotFound),
		errors.Is(err, engine.ErrInstrumentNotFound):
		return ErrorResponse(c, http.StatusNotFound, err.Error(), nil)

	case errors.Is(err, engine.ErrNotOwner):
		return ErrorResponse(c, http.StatusForbidden, err.Error(), nil)

	case errors.Is(err, engine.ErrSlippageExceeded),
		errors.Is(err, engine.ErrInsufficientPoolCapital),
		errors.Is(err, engine.ErrInsufficientCollateralFunds),
		errors.Is(err, engine.ErrExposureCapExceeded),
		errors.Is(err, engine.ErrNotLiquidatable):
		return ErrorResponse(c, http.StatusConflict, err.Error(), nil)

	case errors.Is(err, engine.ErrInstrumentInactive),
		errors.Is(err, engine.ErrLeverageOutOfRange),
		errors.Is(err, engine.ErrCollateralTooSmall),
		errors.Is(err, engine.ErrInvalidTakeProfit),
		errors.Is(err, engine.ErrInvalidStopLoss),
		errors.Is(err, engine.ErrInvalidArgument):
		return BadRequestResponse(c, err.Error())

	default:
		return ErrorResponse(c, http.StatusInternalServerError, "internal error", err.Error())
	}
}
