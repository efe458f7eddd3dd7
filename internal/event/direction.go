package event

// Direction represents position direction
type Direction int32

const (
	DirectionLong Direction = iota + 1
	DirectionShort
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "long"
	case DirectionShort:
		return "short"
	default:
		return "unknown"
	}
}

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	return d == DirectionLong || d == DirectionShort
}

// ParseDirection converts the wire representation back to a Direction.
func ParseDirection(s string) (Direction, bool) {
	switch s {
	case "long":
		return DirectionLong, true
	case "short":
		return DirectionShort, true
	default:
		return 0, false
	}
}

// CloseReason records how a position left the book.
// Terminal states only; a closed identifier is never reused.
type CloseReason int32

const (
	CloseReasonManual CloseReason = iota + 1
	CloseReasonAtLimit
	CloseReasonLiquidated
)

func (r CloseReason) String() string {
	switch r {
	case CloseReasonManual:
		return "ClosedManually"
	case CloseReasonAtLimit:
		return "ClosedAtLimit"
	case CloseReasonLiquidated:
		return "Liquidated"
	default:
		return "Unknown"
	}
}
