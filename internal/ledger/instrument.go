package ledger

import (
	"fmt"
	"math/big"
)

// Instrument is the per-market configuration, mutated only through the
// administrative surface and read by every lifecycle operation.
type Instrument struct {
	Symbol      string
	Name        string
	MaxLeverage int64
	MaxExposure *big.Int // wad cap on aggregate notional
	Active      bool
}

// ValidateInstrument checks the configuration ranges.
func ValidateInstrument(inst *Instrument) error {
	if inst.Symbol == "" {
		return fmt.Errorf("symbol must not be empty")
	}
	if inst.Name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if inst.MaxLeverage < 1 {
		return fmt.Errorf("max_leverage must be >= 1, got %d", inst.MaxLeverage)
	}
	if inst.MaxExposure == nil || inst.MaxExposure.Sign() <= 0 {
		return fmt.Errorf("max_exposure must be > 0")
	}
	return nil
}

// Clone returns a deep copy.
func (i *Instrument) Clone() *Instrument {
	cp := *i
	cp.MaxExposure = new(big.Int).Set(i.MaxExposure)
	return &cp
}
