package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/engine"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/ledger"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/oracle"
)

// AdminHandler serves the operator surface: instrument listing, oracle
// parameters and the execution spread.
type AdminHandler struct {
	eng       *engine.Engine
	store     ledger.Store
	validator *oracle.Validator
}

func NewAdminHandler(eng *engine.Engine, store ledger.Store, validator *oracle.Validator) *AdminHandler {
	return &AdminHandler{eng: eng, store: store, validator: validator}
}

// UpsertInstrument creates or replaces an instrument listing.
// POST /api/admin/instruments
func (h *AdminHandler) UpsertInstrument(c echo.Context) error {
	var req InstrumentDTO
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "malformed request body")
	}

	maxExposure, err := ParseWad(req.MaxExposure)
	if err != nil {
		return BadRequestResponse(c, err.Error())
	}

	inst := &ledger.Instrument{
		Symbol:      req.Symbol,
		Name:        req.Name,
		MaxLeverage: req.MaxLeverage,
		MaxExposure: maxExposure,
		Active:      req.Active,
	}
	if err := h.store.UpsertInstrument(inst); err != nil {
		return BadRequestResponse(c, err.Error())
	}

	return CreatedResponse(c, instrumentDTO(inst, nil))
}

// ListInstruments returns all listings with their current exposure.
// GET /api/admin/instruments
func (h *AdminHandler) ListInstruments(c echo.Context) error {
	instruments := h.store.Instruments()
	dtos := make([]InstrumentDTO, 0, len(instruments))
	for _, inst := range instruments {
		dtos = append(dtos, instrumentDTO(inst, h.store.Exposure(inst.Symbol)))
	}
	return SuccessResponse(c, dtos)
}

type feedRequest struct {
	Instrument  string `json:"instrument"`
	PrimaryID   string `json:"primary_id"`
	ReferenceID string `json:"reference_id"`
}

// RegisterFeed binds an instrument to its primary and reference feeds.
// POST /api/admin/feeds
func (h *AdminHandler) RegisterFeed(c echo.Context) error {
	var req feedRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "malformed request body")
	}

	if err := h.validator.RegisterFeed(oracle.Feed{
		Instrument:  req.Instrument,
		PrimaryID:   req.PrimaryID,
		ReferenceID: req.ReferenceID,
	}); err != nil {
		return BadRequestResponse(c, err.Error())
	}
	return CreatedResponse(c, nil)
}

type oracleConfigRequest struct {
	MaxStalenessSeconds int64 `json:"max_staleness_seconds"`
	MaxConfidenceBps    int64 `json:"max_confidence_bps"`
	MaxDeviationBps     int64 `json:"max_deviation_bps"`
}

// SetOracleConfig replaces the validation thresholds.
// PUT /api/admin/oracle/config
func (h *AdminHandler) SetOracleConfig(c echo.Context) error {
	var req oracleConfigRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "malformed request body")
	}

	if err := h.validator.SetConfig(oracle.Config{
		MaxStaleness:     time.Duration(req.MaxStalenessSeconds) * time.Second,
		MaxConfidenceBps: req.MaxConfidenceBps,
		MaxDeviationBps:  req.MaxDeviationBps,
	}); err != nil {
		return BadRequestResponse(c, err.Error())
	}
	return SuccessResponse(c, nil)
}

type spreadRequest struct {
	SpreadBps int64 `json:"spread_bps"`
}

// SetSpread updates the execution spread.
// PUT /api/admin/spread
func (h *AdminHandler) SetSpread(c echo.Context) error {
	var req spreadRequest
	if err := c.Bind(&req); err != nil {
		return BadRequestResponse(c, "malformed request body")
	}

	if err := h.eng.SetSpreadBps(req.SpreadBps); err != nil {
		return BadRequestResponse(c, err.Error())
	}
	return SuccessResponse(c, nil)
}
