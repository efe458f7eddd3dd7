package oracle

import (
	"fmt"
	"sync"
	"time"

	fpmath "github.com/GushALKDev/evm-synthetic-trading-protocol/internal/math"
)

// Config holds the validation thresholds. All three are administrative
// settings, not hardcoded constants.
type Config struct {
	// MaxStaleness bounds now - quote.PublishTime for both sources.
	MaxStaleness time.Duration

	// MaxConfidenceBps bounds conf/price, in basis points.
	MaxConfidenceBps int64

	// MaxDeviationBps bounds |primary - reference| / reference, in basis points.
	MaxDeviationBps int64
}

// DefaultConfig returns the production thresholds: 30s staleness, 2%
// confidence ratio, 3% cross-source deviation.
func DefaultConfig() Config {
	return Config{
		MaxStaleness:     30 * time.Second,
		MaxConfidenceBps: 200,
		MaxDeviationBps:  300,
	}
}

// Validate checks that the thresholds are usable.
func (c Config) Validate() error {
	if c.MaxStaleness <= 0 {
		return fmt.Errorf("max_staleness must be > 0, got %v", c.MaxStaleness)
	}
	if c.MaxConfidenceBps <= 0 || c.MaxConfidenceBps >= fpmath.BpsDenom {
		return fmt.Errorf("max_confidence_bps must be in (0, %d), got %d", fpmath.BpsDenom, c.MaxConfidenceBps)
	}
	if c.MaxDeviationBps <= 0 || c.MaxDeviationBps >= fpmath.BpsDenom {
		return fmt.Errorf("max_deviation_bps must be in (0, %d), got %d", fpmath.BpsDenom, c.MaxDeviationBps)
	}
	return nil
}

// maxExpoMagnitude bounds the native exponent a quote may carry. Supported
// feeds publish between expo -12 and +4; 18 leaves headroom either way.
const maxExpoMagnitude = 18

func expoOutOfRange(expo int32) bool {
	return expo < -maxExpoMagnitude || expo > maxExpoMagnitude
}

// Feed maps an instrument to its primary and reference source identifiers.
// An instrument with no registered feed cannot be priced at all.
type Feed struct {
	Instrument  string
	PrimaryID   string
	ReferenceID string
}

// Validator runs the price validation pipeline. Each stage short-circuits
// on failure with a typed Rejection. There is no fallback source on
// staleness: a slower secondary used as a substitute would let trades
// execute against outdated prices exactly when that is most dangerous.
type Validator struct {
	mu    sync.RWMutex
	cfg   Config
	feeds map[string]Feed

	// now is injectable for deterministic tests.
	now func() time.Time
}

func NewValidator(cfg Config) (*Validator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid oracle config: %w", err)
	}
	return &Validator{
		cfg:   cfg,
		feeds: make(map[string]Feed),
		now:   time.Now,
	}, nil
}

// SetClock overrides the wall clock. Tests only.
func (v *Validator) SetClock(now func() time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.now = now
}

// RegisterFeed installs or replaces the source mapping for an instrument.
func (v *Validator) RegisterFeed(f Feed) error {
	if f.Instrument == "" || f.PrimaryID == "" || f.ReferenceID == "" {
		return fmt.Errorf("feed requires instrument, primary and reference ids")
	}
	if f.PrimaryID == f.ReferenceID {
		return fmt.Errorf("reference source must be independent of primary for %s", f.Instrument)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.feeds[f.Instrument] = f
	return nil
}

// SetConfig replaces the validation thresholds.
func (v *Validator) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid oracle config: %w", err)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cfg = cfg
	return nil
}

// ConfigSnapshot returns the current thresholds.
func (v *Validator) ConfigSnapshot() Config {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cfg
}

// Validate runs the pipeline and yields a single validated price or a typed
// rejection. Stages, in order: feed configured, exponent bounds, primary
// freshness, strictly-positive sign, primary uncertainty, reference
// freshness, cross-source deviation.
func (v *Validator) Validate(instrument string, bundle QuoteBundle) (*ValidatedPrice, error) {
	v.mu.RLock()
	cfg := v.cfg
	_, configured := v.feeds[instrument]
	now := v.now()
	v.mu.RUnlock()

	if !configured {
		return nil, &Rejection{
			Kind:       RejectedNotConfigured,
			Instrument: instrument,
			Detail:     "no registered price feed",
		}
	}

	// Bound the exponents before anything touches Normalize: the shift
	// feeds a power-of-ten big.Int, so an arbitrary caller-supplied expo
	// would allocate without limit. Real feeds publish within a few decimal
	// places of unit scale.
	if expoOutOfRange(bundle.Primary.Expo) || expoOutOfRange(bundle.Reference.Expo) {
		return nil, &Rejection{
			Kind:       RejectedMalformed,
			Instrument: instrument,
			Detail: fmt.Sprintf("quote exponent outside [-%d, %d] (primary %d, reference %d)",
				maxExpoMagnitude, maxExpoMagnitude, bundle.Primary.Expo, bundle.Reference.Expo),
		}
	}

	if age := now.Sub(bundle.Primary.PublishTime); age > cfg.MaxStaleness {
		return nil, &Rejection{
			Kind:       RejectedStale,
			Instrument: instrument,
			Detail:     fmt.Sprintf("primary quote age %v exceeds %v", age, cfg.MaxStaleness),
		}
	}

	price := Normalize(bundle.Primary.Price, bundle.Primary.Expo)
	conf := NormalizeUint(bundle.Primary.Conf, bundle.Primary.Expo)

	if price.Sign() <= 0 {
		return nil, &Rejection{
			Kind:       RejectedNonPositive,
			Instrument: instrument,
			Detail:     fmt.Sprintf("price %s is not strictly positive", price),
		}
	}

	// conf/price <= maxConfidenceBps/10000, cross-multiplied so the ratio
	// itself is never computed.
	if fpmath.RatioExceedsBps(conf, price, cfg.MaxConfidenceBps) {
		return nil, &Rejection{
			Kind:       RejectedTooUncertain,
			Instrument: instrument,
			Detail:     fmt.Sprintf("confidence %s too wide for price %s (limit %d bps)", conf, price, cfg.MaxConfidenceBps),
		}
	}

	// The reference source is only a deviation anchor, never a substitute:
	// its staleness is checked independently and causes rejection, not
	// silent fallback.
	if age := now.Sub(bundle.Reference.PublishTime); age > cfg.MaxStaleness {
		return nil, &Rejection{
			Kind:       RejectedReferenceStale,
			Instrument: instrument,
			Detail:     fmt.Sprintf("reference quote age %v exceeds %v", age, cfg.MaxStaleness),
		}
	}

	reference := Normalize(bundle.Reference.Price, bundle.Reference.Expo)
	if reference.Sign() <= 0 {
		return nil, &Rejection{
			Kind:       RejectedNonPositive,
			Instrument: instrument,
			Detail:     fmt.Sprintf("reference price %s is not strictly positive", reference),
		}
	}

	if fpmath.RatioExceedsBps(fpmath.AbsDiff(price, reference), reference, cfg.MaxDeviationBps) {
		return nil, &Rejection{
			Kind:       RejectedDeviationTooHigh,
			Instrument: instrument,
			Detail:     fmt.Sprintf("primary %s deviates from reference %s beyond %d bps", price, reference, cfg.MaxDeviationBps),
		}
	}

	return &ValidatedPrice{
		Price:       price,
		Conf:        conf,
		PublishTime: bundle.Primary.PublishTime,
	}, nil
}
