// Package persistence batch-writes settlement history to Postgres. The
// history table is the durable record of every lifecycle mutation; the NATS
// notification stream is a best-effort mirror of it.
package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/event"
)

// SettlementRow is a row in settlement.history.
type SettlementRow struct {
	Sequence       int64
	IdempotencyKey string
	Kind           string
	Instrument     string
	PositionID     int64
	Owner          uuid.UUID
	Payload        []byte // JSON-encoded notification payload
	Timestamp      time.Time
}

// RowFromOutbound flattens an engine notification into its history row.
func RowFromOutbound(out event.Outbound) (SettlementRow, error) {
	payload, err := json.Marshal(out.Payload)
	if err != nil {
		return SettlementRow{}, fmt.Errorf("marshal payload seq=%d: %w", out.Envelope.Sequence, err)
	}

	var positionID uint64
	var owner uuid.UUID
	switch p := out.Payload.(type) {
	case *event.PositionOpened:
		positionID, owner = p.PositionID, p.Owner
	case *event.PositionClosed:
		positionID, owner = p.PositionID, p.Owner
	case *event.TargetsUpdated:
		positionID, owner = p.PositionID, p.Owner
	case *event.PositionLiquidated:
		positionID, owner = p.PositionID, p.Owner
	default:
		return SettlementRow{}, fmt.Errorf("unknown payload type %T seq=%d", out.Payload, out.Envelope.Sequence)
	}

	return SettlementRow{
		Sequence:       out.Envelope.Sequence,
		IdempotencyKey: out.Envelope.IdempotencyKey,
		Kind:           out.Envelope.Kind.String(),
		Instrument:     out.Envelope.Instrument,
		PositionID:     int64(positionID),
		Owner:          owner,
		Payload:        payload,
		Timestamp:      out.Envelope.Timestamp,
	}, nil
}

// HistoryWriter writes settlement rows using multi-row INSERT. The
// idempotency key carries the conflict target, so re-delivered rows after a
// crash-restart are silently skipped.
type HistoryWriter struct {
	db *sql.DB
}

func NewHistoryWriter(db *sql.DB) *HistoryWriter {
	return &HistoryWriter{db: db}
}

// WriteBatch inserts the rows inside the given transaction.
func (w *HistoryWriter) WriteBatch(ctx context.Context, tx *sql.Tx, rows []SettlementRow) error {
	if len(rows) == 0 {
		return nil
	}

	query := `INSERT INTO settlement.history
		(sequence, idempotency_key, kind, instrument, position_id, owner, payload, recorded_at)
		VALUES `

	values := make([]string, 0, len(rows))
	args := make([]interface{}, 0, len(rows)*8)

	for i, r := range rows {
		base := i * 8
		values = append(values, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8,
		))
		args = append(args,
			r.Sequence, r.IdempotencyKey, r.Kind, r.Instrument,
			r.PositionID, r.Owner.String(), r.Payload, r.Timestamp,
		)
	}

	query += strings.Join(values, ", ")
	query += " ON CONFLICT (idempotency_key) DO NOTHING"

	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
