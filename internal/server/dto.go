package server

import (
	"fmt"
	"math/big"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/event"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/ledger"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/oracle"
)

// Monetary values cross the API as decimal strings ("1234.5") and are held
// internally as 18-decimal fixed-point integers. ParseWad rejects anything
// finer than 18 decimal places instead of silently rounding.
func ParseWad(s string) (*big.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("parse amount %q: %w", s, err)
	}
	shifted := d.Shift(18)
	if !shifted.IsInteger() {
		return nil, fmt.Errorf("amount %q has more than 18 decimal places", s)
	}
	return shifted.BigInt(), nil
}

// FormatWad renders an 18-decimal fixed-point value as a decimal string.
func FormatWad(v *big.Int) string {
	if v == nil {
		return ""
	}
	return decimal.NewFromBigInt(v, -18).String()
}

// QuoteDTO mirrors a raw oracle quote: integer mantissa with a decimal
// exponent, publish time as a unix timestamp.
type QuoteDTO struct {
	Price       int64  `json:"price"`
	Conf        uint64 `json:"conf"`
	Expo        int32  `json:"expo"`
	PublishTime int64  `json:"publish_time"`
}

func (q QuoteDTO) toRaw() oracle.RawQuote {
	return oracle.RawQuote{
		Price:       q.Price,
		Conf:        q.Conf,
		Expo:        q.Expo,
		PublishTime: time.Unix(q.PublishTime, 0),
	}
}

// BundleDTO carries the primary and reference quotes for one validation.
type BundleDTO struct {
	Primary   QuoteDTO `json:"primary"`
	Reference QuoteDTO `json:"reference"`
}

func (b BundleDTO) toBundle() oracle.QuoteBundle {
	return oracle.QuoteBundle{
		Primary:   b.Primary.toRaw(),
		Reference: b.Reference.toRaw(),
	}
}

// PositionDTO is the outbound representation of an open position.
type PositionDTO struct {
	ID         uint64    `json:"id"`
	Owner      string    `json:"owner"`
	Instrument string    `json:"instrument"`
	Direction  string    `json:"direction"`
	Collateral string    `json:"collateral"`
	Leverage   int64     `json:"leverage"`
	EntryPrice string    `json:"entry_price"`
	Notional   string    `json:"notional"`
	TakeProfit string    `json:"take_profit,omitempty"`
	StopLoss   string    `json:"stop_loss,omitempty"`
	OpenedAt   time.Time `json:"opened_at"`
}

func positionDTO(p *ledger.Position) PositionDTO {
	return PositionDTO{
		ID:         p.ID,
		Owner:      p.Owner.String(),
		Instrument: p.Instrument,
		Direction:  p.Direction.String(),
		Collateral: FormatWad(p.Collateral),
		Leverage:   p.Leverage,
		EntryPrice: FormatWad(p.EntryPrice),
		Notional:   FormatWad(p.Notional()),
		TakeProfit: FormatWad(p.TakeProfit),
		StopLoss:   FormatWad(p.StopLoss),
		OpenedAt:   p.OpenedAt,
	}
}

// InstrumentDTO is the admin representation of a tradable instrument.
type InstrumentDTO struct {
	Symbol      string `json:"symbol"`
	Name        string `json:"name"`
	MaxLeverage int64  `json:"max_leverage"`
	MaxExposure string `json:"max_exposure"`
	Active      bool   `json:"active"`
	Exposure    string `json:"exposure,omitempty"`
}

func instrumentDTO(inst *ledger.Instrument, exposure *big.Int) InstrumentDTO {
	return InstrumentDTO{
		Symbol:      inst.Symbol,
		Name:        inst.Name,
		MaxLeverage: inst.MaxLeverage,
		MaxExposure: FormatWad(inst.MaxExposure),
		Active:      inst.Active,
		Exposure:    FormatWad(exposure),
	}
}

func parseDirection(s string) (event.Direction, error) {
	d, ok := event.ParseDirection(s)
	if !ok {
		return 0, fmt.Errorf("unknown direction %q", s)
	}
	return d, nil
}
