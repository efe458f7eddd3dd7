package event

import (
	"time"
)

// Kind discriminator for notification payloads
type Kind int32

const (
	KindUnknown Kind = iota
	KindPositionOpened
	KindPositionClosed
	KindTargetsUpdated
	KindPositionLiquidated
)

// Envelope wraps every outbound notification
type Envelope struct {
	// Global monotonic sequence assigned by the engine
	Sequence int64

	// Stable idempotency key for downstream dedup
	IdempotencyKey string

	// Notification type discriminator
	Kind Kind

	// Instrument context
	Instrument string

	// Engine-side timestamp of the mutation
	Timestamp time.Time
}

// Notification is the interface all outbound payloads implement
type Notification interface {
	// NotificationKind returns the discriminator
	NotificationKind() Kind

	// InstrumentSymbol returns the instrument context
	InstrumentSymbol() string
}

// Outbound pairs an envelope with its typed payload for the notify and
// persistence workers.
type Outbound struct {
	Envelope Envelope
	Payload  Notification
}

func (k Kind) String() string {
	switch k {
	case KindPositionOpened:
		return "PositionOpened"
	case KindPositionClosed:
		return "PositionClosed"
	case KindTargetsUpdated:
		return "TargetsUpdated"
	case KindPositionLiquidated:
		return "PositionLiquidated"
	default:
		return "Unknown"
	}
}
