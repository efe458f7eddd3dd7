// Package notify publishes settlement notifications to NATS JetStream for
// downstream consumers (risk dashboards, bots, archival).
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog"

	"github.com/GushALKDev/evm-synthetic-trading-protocol/internal/event"
)

// StreamName holds every outbound settlement notification.
const StreamName = "SYNTH_POSITIONS"

// Publisher drains the engine's outbound channel into JetStream. Publishing
// is best-effort: the engine already dropped the event from its hot path,
// and the settlement history table remains the durable record.
type Publisher struct {
	js    jetstream.JetStream
	input <-chan event.Outbound
	log   zerolog.Logger
}

func NewPublisher(js jetstream.JetStream, input <-chan event.Outbound, log zerolog.Logger) *Publisher {
	return &Publisher{js: js, input: input, log: log}
}

// Run consumes the outbound channel until it closes or the context ends.
func (p *Publisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case out, ok := <-p.input:
			if !ok {
				return nil
			}

			if err := p.publish(ctx, out); err != nil {
				// Non-fatal: consumers can replay from the history table.
				p.log.Warn().
					Err(err).
					Int64("sequence", out.Envelope.Sequence).
					Str("kind", out.Envelope.Kind.String()).
					Msg("outbound publish failed")
			}
		}
	}
}

type wireEvent struct {
	Sequence       int64              `json:"sequence"`
	IdempotencyKey string             `json:"idempotency_key"`
	Kind           string             `json:"kind"`
	Instrument     string             `json:"instrument"`
	Timestamp      time.Time          `json:"timestamp"`
	Payload        event.Notification `json:"payload"`
}

func (p *Publisher) publish(ctx context.Context, out event.Outbound) error {
	data, err := json.Marshal(wireEvent{
		Sequence:       out.Envelope.Sequence,
		IdempotencyKey: out.Envelope.IdempotencyKey,
		Kind:           out.Envelope.Kind.String(),
		Instrument:     out.Envelope.Instrument,
		Timestamp:      out.Envelope.Timestamp,
		Payload:        out.Payload,
	})
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	subject := Subject(out.Envelope.Kind, out.Envelope.Instrument)
	if _, err := p.js.Publish(ctx, subject, data,
		jetstream.WithMsgID(out.Envelope.IdempotencyKey)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// Subject builds the per-kind, per-instrument subject, e.g.
// synth.positions.position_closed.BTC-USD.
func Subject(kind event.Kind, instrument string) string {
	return fmt.Sprintf("synth.positions.%s.%s", subjectToken(kind), instrument)
}

func subjectToken(kind event.Kind) string {
	switch kind {
	case event.KindPositionOpened:
		return "position_opened"
	case event.KindPositionClosed:
		return "position_closed"
	case event.KindTargetsUpdated:
		return "targets_updated"
	case event.KindPositionLiquidated:
		return "position_liquidated"
	default:
		return "unknown"
	}
}

// EnsureStream creates or updates the notification stream.
func EnsureStream(ctx context.Context, js jetstream.JetStream, log zerolog.Logger) error {
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      StreamName,
		Subjects:  []string{"synth.positions.>"},
		Storage:   jetstream.FileStorage,
		Retention: jetstream.LimitsPolicy,
		MaxAge:    72 * time.Hour,
		Replicas:  1,
	})
	if err != nil {
		return fmt.Errorf("create stream %s: %w", StreamName, err)
	}
	log.Info().Str("stream", StreamName).Msg("ensured notification stream")
	return nil
}
