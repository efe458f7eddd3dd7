package oracle

import (
	"errors"
	"fmt"
)

// RejectionKind classifies why a quote bundle failed validation. Rejections
// are deterministic: validating the same bundle twice yields the same kind.
type RejectionKind int32

const (
	RejectedNotConfigured RejectionKind = iota + 1
	RejectedStale
	RejectedTooUncertain
	RejectedNonPositive
	RejectedReferenceStale
	RejectedDeviationTooHigh
	RejectedMalformed
)

func (k RejectionKind) String() string {
	switch k {
	case RejectedNotConfigured:
		return "NotConfigured"
	case RejectedStale:
		return "Stale"
	case RejectedTooUncertain:
		return "TooUncertain"
	case RejectedNonPositive:
		return "NonPositive"
	case RejectedReferenceStale:
		return "ReferenceStale"
	case RejectedDeviationTooHigh:
		return "DeviationTooHigh"
	case RejectedMalformed:
		return "Malformed"
	default:
		return "Unknown"
	}
}

// Rejection is the typed error returned for every failed validation.
// Market-data rejections are fatal to the call; the caller must fetch a
// fresh quote and resubmit. No fallback value is ever substituted.
type Rejection struct {
	Kind       RejectionKind
	Instrument string
	Detail     string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("price rejected (%s) for %s: %s", r.Kind, r.Instrument, r.Detail)
}

// KindOf extracts the rejection kind from an error chain.
func KindOf(err error) (RejectionKind, bool) {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind, true
	}
	return 0, false
}
