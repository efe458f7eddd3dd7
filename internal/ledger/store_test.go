package ledger_test

import (
	"math/big"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/event"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/ledger"
	fpmath "github.com/GushALKDev/evm-synthetic-trading-protocol/internal/math"
)

func testFields(owner uuid.UUID) ledger.CreatePosition {
	return ledger.CreatePosition{
		Owner:      owner,
		Instrument: "BTC-USD",
		Direction:  event.DirectionLong,
		Collateral: fpmath.Wad(100),
		Leverage:   10,
		EntryPrice: fpmath.Wad(50_000),
		OpenedAt:   time.Now(),
	}
}

// ============================================================================
// Test: position records
// ============================================================================

func TestCreate_AssignsMonotonicIDs(t *testing.T) {
	s := ledger.NewMemoryStore()
	owner := uuid.New()

	id1, err := s.Create(testFields(owner))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	id2, _ := s.Create(testFields(owner))

	if id2 != id1+1 {
		t.Errorf("ids not dense: %d then %d", id1, id2)
	}
}

func TestCreate_IDsNeverReusedAfterDelete(t *testing.T) {
	s := ledger.NewMemoryStore()
	owner := uuid.New()

	id1, _ := s.Create(testFields(owner))
	if err := s.Delete(id1); err != nil {
		t.Fatalf("delete: %v", err)
	}

	id2, _ := s.Create(testFields(owner))
	if id2 == id1 {
		t.Errorf("id %d was reused after deletion", id1)
	}
}

func TestCreate_RejectsInvalidFields(t *testing.T) {
	s := ledger.NewMemoryStore()
	owner := uuid.New()

	f := testFields(owner)
	f.Collateral = big.NewInt(0)
	if _, err := s.Create(f); err == nil {
		t.Error("zero collateral should be rejected")
	}

	f = testFields(owner)
	f.Leverage = 0
	if _, err := s.Create(f); err == nil {
		t.Error("zero leverage should be rejected")
	}

	f = testFields(owner)
	f.Direction = 0
	if _, err := s.Create(f); err == nil {
		t.Error("unknown direction should be rejected")
	}
}

func TestGet_AbsenceIsAuthoritative(t *testing.T) {
	s := ledger.NewMemoryStore()
	owner := uuid.New()

	id, _ := s.Create(testFields(owner))
	s.Delete(id)

	if _, ok := s.Get(id); ok {
		t.Error("deleted position must not be readable")
	}
	if _, ok := s.Get(9999); ok {
		t.Error("never-created id must not be readable")
	}
}

func TestGet_ReturnsCopy(t *testing.T) {
	s := ledger.NewMemoryStore()
	owner := uuid.New()

	id, _ := s.Create(testFields(owner))
	pos, _ := s.Get(id)
	pos.Collateral.SetInt64(1)

	fresh, _ := s.Get(id)
	if fresh.Collateral.Cmp(fpmath.Wad(100)) != 0 {
		t.Error("mutating a returned position leaked into the store")
	}
}

func TestSetTakeProfit_NilClears(t *testing.T) {
	s := ledger.NewMemoryStore()
	owner := uuid.New()
	id, _ := s.Create(testFields(owner))

	if err := s.SetTakeProfit(id, fpmath.Wad(60_000)); err != nil {
		t.Fatalf("set tp: %v", err)
	}
	pos, _ := s.Get(id)
	if pos.TakeProfit == nil || pos.TakeProfit.Cmp(fpmath.Wad(60_000)) != 0 {
		t.Fatal("take profit not stored")
	}

	if err := s.SetTakeProfit(id, nil); err != nil {
		t.Fatalf("clear tp: %v", err)
	}
	pos, _ = s.Get(id)
	if pos.TakeProfit != nil {
		t.Error("take profit not cleared")
	}
}

func TestOwnerPositions_SortedAndFiltered(t *testing.T) {
	s := ledger.NewMemoryStore()
	a, b := uuid.New(), uuid.New()

	s.Create(testFields(a))
	s.Create(testFields(b))
	s.Create(testFields(a))

	got := s.OwnerPositions(a)
	if len(got) != 2 {
		t.Fatalf("got %d positions, want 2", len(got))
	}
	if got[0].ID > got[1].ID {
		t.Error("positions not ordered by id")
	}
}

// ============================================================================
// Test: aggregate exposure
// ============================================================================

func TestExposure_IncrementDecrement(t *testing.T) {
	s := ledger.NewMemoryStore()

	s.IncreaseExposure("BTC-USD", fpmath.Wad(1000))
	s.IncreaseExposure("BTC-USD", fpmath.Wad(500))
	if err := s.DecreaseExposure("BTC-USD", fpmath.Wad(300)); err != nil {
		t.Fatalf("decrease: %v", err)
	}

	if got := s.Exposure("BTC-USD"); got.Cmp(fpmath.Wad(1200)) != 0 {
		t.Errorf("exposure: got %s, want %s", got, fpmath.Wad(1200))
	}
}

func TestExposure_UnderflowRejected(t *testing.T) {
	s := ledger.NewMemoryStore()

	s.IncreaseExposure("BTC-USD", fpmath.Wad(100))
	if err := s.DecreaseExposure("BTC-USD", fpmath.Wad(200)); err == nil {
		t.Error("decrement below zero must fail")
	}
	if err := s.DecreaseExposure("ETH-USD", fpmath.Wad(1)); err == nil {
		t.Error("decrement on untracked instrument must fail")
	}
}

func TestExposure_UnknownInstrumentIsZero(t *testing.T) {
	s := ledger.NewMemoryStore()
	if got := s.Exposure("SOL-USD"); got.Sign() != 0 {
		t.Errorf("got %s, want 0", got)
	}
}

// ============================================================================
// Test: instrument config
// ============================================================================

func TestUpsertInstrument_Validates(t *testing.T) {
	s := ledger.NewMemoryStore()

	err := s.UpsertInstrument(&ledger.Instrument{Symbol: "BTC-USD", Name: "Bitcoin", MaxLeverage: 0, MaxExposure: fpmath.Wad(1)})
	if err == nil {
		t.Error("max_leverage 0 should be rejected")
	}

	err = s.UpsertInstrument(&ledger.Instrument{Symbol: "BTC-USD", Name: "Bitcoin", MaxLeverage: 50, MaxExposure: fpmath.Wad(1_000_000), Active: true})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}

	inst, ok := s.Instrument("BTC-USD")
	if !ok || !inst.Active || inst.MaxLeverage != 50 {
		t.Error("instrument not stored correctly")
	}
}
