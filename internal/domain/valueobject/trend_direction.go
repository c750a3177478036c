package valueobject

import "fmt"

// TrendDirection describes where a candidate's risk is heading.
type TrendDirection struct {
	value string
}

var (
	TrendImproving = TrendDirection{value: "improving"}
	TrendStable    = TrendDirection{value: "stable"}
	TrendWorsening = TrendDirection{value: "worsening"}
)

// TrendDirectionFromString reconstructs a TrendDirection from its string representation.
func TrendDirectionFromString(s string) (TrendDirection, error) {
	switch s {
	case "improving":
		return TrendImproving, nil
	case "stable":
		return TrendStable, nil
	case "worsening":
		return TrendWorsening, nil
	default:
		return TrendDirection{}, fmt.Errorf("invalid trend direction: %s", s)
	}
}

// String returns the string representation.
func (d TrendDirection) String() string {
	return d.value
}

// IsZero returns true if the TrendDirection has not been set.
func (d TrendDirection) IsZero() bool {
	return d.value == ""
}

// Equal checks equality with another TrendDirection.
func (d TrendDirection) Equal(other TrendDirection) bool {
	return d.value == other.value
}

// MarshalText implements encoding.TextMarshaler.
func (d TrendDirection) MarshalText() ([]byte, error) {
	return []byte(d.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *TrendDirection) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = TrendDirection{}
		return nil
	}
	parsed, err := TrendDirectionFromString(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
