package persistence

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/event"
	fpmath "github.com/GushALKDev/evm-synthetic-trading-protocol/internal/math"
	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/testutil"
)

func sampleOutbound(seq int64) event.Outbound {
	owner := uuid.New()
	ts := time.Unix(1_700_000_000, 0).UTC()
	return event.Outbound{
		Envelope: event.Envelope{
			Sequence:       seq,
			IdempotencyKey: uuid.NewString(),
			Kind:           event.KindPositionClosed,
			Instrument:     "BTC-USD",
			Timestamp:      ts,
		},
		Payload: &event.PositionClosed{
			PositionID: 7,
			Owner:      owner,
			Instrument: "BTC-USD",
			Direction:  event.DirectionLong,
			Collateral: fpmath.Wad(100),
			Leverage:   10,
			EntryPrice: fpmath.Wad(50_000),
			ExitPrice:  fpmath.Wad(55_000),
			PnL:        fpmath.Wad(100),
			Payout:     fpmath.Wad(200),
			PoolDelta:  fpmath.Wad(-100),
			Reason:     event.CloseReasonManual,
			Timestamp:  ts,
		},
	}
}

func TestRowFromOutbound(t *testing.T) {
	out := sampleOutbound(42)

	row, err := RowFromOutbound(out)
	if err != nil {
		t.Fatalf("convert: %v", err)
	}

	if row.Sequence != 42 || row.Kind != "PositionClosed" || row.Instrument != "BTC-USD" {
		t.Errorf("row = %+v", row)
	}
	if row.PositionID != 7 {
		t.Errorf("position id = %d, want 7", row.PositionID)
	}
	if row.Owner != out.Payload.(*event.PositionClosed).Owner {
		t.Error("owner not carried over")
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(row.Payload, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded["reason"] == nil {
		t.Error("payload missing reason field")
	}
}

func TestRowFromOutbound_UnknownPayload(t *testing.T) {
	out := sampleOutbound(1)
	out.Payload = nil
	if _, err := RowFromOutbound(out); err == nil {
		t.Fatal("nil payload accepted, want error")
	}
}

// ============================================================================
// Integration
// ============================================================================

func TestWorker_WritesHistory(t *testing.T) {
	testutil.RequireIntegration(t)
	db, cleanup := testutil.SetupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	if err := NewMigrator(db, "../../migrations", zerolog.Nop()).Up(ctx); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	input := make(chan event.Outbound, 8)
	worker := NewWorker(db, input, 4, 50*time.Millisecond, nil, zerolog.Nop())

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- worker.Run(runCtx) }()

	first := sampleOutbound(1)
	input <- first
	input <- sampleOutbound(2)
	// Re-delivery of the same idempotency key must not duplicate the row.
	input <- first

	time.Sleep(300 * time.Millisecond)
	cancel()
	<-done

	var count int
	if err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM settlement.history`).Scan(&count); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if count != 2 {
		t.Errorf("rows = %d, want 2", count)
	}
}
