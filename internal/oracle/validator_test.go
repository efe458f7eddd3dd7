package oracle_test

import (
	"testing"
	"time"

	fpmath "github.com/GushALKDev/evm-synthetic-trading-protocol/internal/math"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/oracle"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestValidator(t *testing.T) *oracle.Validator {
	t.Helper()

	v, err := oracle.NewValidator(oracle.DefaultConfig())
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}
	v.SetClock(func() time.Time { return testNow })

	if err := v.RegisterFeed(oracle.Feed{
		Instrument:  "BTC-USD",
		PrimaryID:   "pyth:btc-usd",
		ReferenceID: "chainlink:btc-usd",
	}); err != nil {
		t.Fatalf("register feed: %v", err)
	}
	return v
}

// freshBundle builds a bundle with both quotes at price (expo -8) published
// one second ago.
func freshBundle(price int64) oracle.QuoteBundle {
	q := oracle.RawQuote{
		Price:       price,
		Conf:        uint64(price / 1000), // 0.1%
		Expo:        -8,
		PublishTime: testNow.Add(-time.Second),
	}
	return oracle.QuoteBundle{Primary: q, Reference: q}
}

func requireKind(t *testing.T, err error, want oracle.RejectionKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s rejection, got nil", want)
	}
	kind, ok := oracle.KindOf(err)
	if !ok {
		t.Fatalf("expected typed rejection, got %v", err)
	}
	if kind != want {
		t.Fatalf("rejection kind: got %s, want %s", kind, want)
	}
}

func TestValidate_HappyPath(t *testing.T) {
	v := newTestValidator(t)

	vp, err := v.Validate("BTC-USD", freshBundle(50_000_00000000))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if vp.Price.Cmp(fpmath.Wad(50_000)) != 0 {
		t.Errorf("normalized price: got %s, want %s", vp.Price, fpmath.Wad(50_000))
	}
}

func TestValidate_UnconfiguredInstrument(t *testing.T) {
	v := newTestValidator(t)

	_, err := v.Validate("ETH-USD", freshBundle(3_000_00000000))
	requireKind(t, err, oracle.RejectedNotConfigured)
}

// A stale quote must always be rejected regardless of how favorable the
// embedded price is.
func TestValidate_StalePrimary(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	b.Primary.PublishTime = testNow.Add(-31 * time.Second)

	_, err := v.Validate("BTC-USD", b)
	requireKind(t, err, oracle.RejectedStale)
}

func TestValidate_ExactlyAtStalenessBoundAccepted(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	b.Primary.PublishTime = testNow.Add(-30 * time.Second)

	if _, err := v.Validate("BTC-USD", b); err != nil {
		t.Fatalf("quote exactly at the bound should pass: %v", err)
	}
}

func TestValidate_TooUncertain(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	b.Primary.Conf = uint64(b.Primary.Price) / 40 // 2.5% > 2% limit

	_, err := v.Validate("BTC-USD", b)
	requireKind(t, err, oracle.RejectedTooUncertain)
}

func TestValidate_NonPositivePrice(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	b.Primary.Price = 0
	_, err := v.Validate("BTC-USD", b)
	requireKind(t, err, oracle.RejectedNonPositive)

	b.Primary.Price = -1
	_, err = v.Validate("BTC-USD", b)
	requireKind(t, err, oracle.RejectedNonPositive)
}

// The reference source never substitutes for the primary: its own staleness
// rejects the whole bundle.
func TestValidate_StaleReference(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	b.Reference.PublishTime = testNow.Add(-2 * time.Minute)

	_, err := v.Validate("BTC-USD", b)
	requireKind(t, err, oracle.RejectedReferenceStale)
}

func TestValidate_DeviationTooHigh(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	b.Reference.Price = 48_000_00000000 // ~4.2% apart > 3%

	_, err := v.Validate("BTC-USD", b)
	requireKind(t, err, oracle.RejectedDeviationTooHigh)
}

func TestValidate_DeviationWithinBoundAccepted(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	b.Reference.Price = 49_000_00000000 // ~2.04% apart

	if _, err := v.Validate("BTC-USD", b); err != nil {
		t.Fatalf("deviation within bound should pass: %v", err)
	}
}

// Validating an already-rejected bundle twice yields the same rejection kind.
func TestValidate_RejectionIdempotent(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	b.Primary.PublishTime = testNow.Add(-time.Hour)

	_, err1 := v.Validate("BTC-USD", b)
	_, err2 := v.Validate("BTC-USD", b)

	k1, _ := oracle.KindOf(err1)
	k2, _ := oracle.KindOf(err2)
	if k1 != oracle.RejectedStale || k1 != k2 {
		t.Errorf("rejection not idempotent: first %s, second %s", k1, k2)
	}
}

func TestValidate_MixedExponents(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	// Same price published at a coarser exponent by the reference source.
	b.Reference = oracle.RawQuote{
		Price:       50_000_00, // expo -2
		Expo:        -2,
		PublishTime: testNow.Add(-time.Second),
	}

	vp, err := v.Validate("BTC-USD", b)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if vp.Price.Cmp(fpmath.Wad(50_000)) != 0 {
		t.Errorf("price: got %s, want %s", vp.Price, fpmath.Wad(50_000))
	}
}

func TestSetConfig_Validates(t *testing.T) {
	v := newTestValidator(t)

	if err := v.SetConfig(oracle.Config{}); err == nil {
		t.Error("zero config should be rejected")
	}

	cfg := oracle.DefaultConfig()
	cfg.MaxStaleness = 5 * time.Second
	if err := v.SetConfig(cfg); err != nil {
		t.Fatalf("set config: %v", err)
	}

	b := freshBundle(50_000_00000000)
	b.Primary.PublishTime = testNow.Add(-10 * time.Second)
	_, err := v.Validate("BTC-USD", b)
	requireKind(t, err, oracle.RejectedStale)
}

func TestRegisterFeed_RejectsSameSource(t *testing.T) {
	v := newTestValidator(t)

	err := v.RegisterFeed(oracle.Feed{
		Instrument:  "ETH-USD",
		PrimaryID:   "pyth:eth-usd",
		ReferenceID: "pyth:eth-usd",
	})
	if err == nil {
		t.Error("reference identical to primary must be rejected")
	}
}

func TestNormalize(t *testing.T) {
	if got := oracle.Normalize(5_000_000, -2); got.Cmp(fpmath.Wad(50_000)) != 0 {
		t.Errorf("expo -2: got %s", got)
	}
	if got := oracle.Normalize(5, 4); got.Cmp(fpmath.Wad(50_000)) != 0 {
		t.Errorf("expo +4: got %s", got)
	}
}

// A hostile exponent would otherwise size the normalization multiplier,
// allocating without bound before any other stage runs.
func TestValidate_ExponentOutOfRange(t *testing.T) {
	v := newTestValidator(t)

	b := freshBundle(50_000_00000000)
	b.Primary.Expo = 2_000_000_000
	_, err := v.Validate("BTC-USD", b)
	requireKind(t, err, oracle.RejectedMalformed)

	b = freshBundle(50_000_00000000)
	b.Reference.Expo = -2_000_000_000
	_, err = v.Validate("BTC-USD", b)
	requireKind(t, err, oracle.RejectedMalformed)
}

func TestValidate_ExponentAtBoundAccepted(t *testing.T) {
	v := newTestValidator(t)

	q := oracle.RawQuote{
		Price:       5_000_000_000_000_000_000, // 5.0 at expo -18
		Conf:        5_000_000_000_000_000,     // 0.1%
		Expo:        -18,
		PublishTime: testNow.Add(-time.Second),
	}

	vp, err := v.Validate("BTC-USD", oracle.QuoteBundle{Primary: q, Reference: q})
	if err != nil {
		t.Fatalf("quote at the exponent bound should pass: %v", err)
	}
	if vp.Price.Cmp(fpmath.Wad(5)) != 0 {
		t.Errorf("price: got %s, want %s", vp.Price, fpmath.Wad(5))
	}
}
