package valueobject

import "fmt"

// Tier is an immutable value object for the discretized predictive risk band.
type Tier struct {
	value string
}

var (
	TierLow      = Tier{value: "low"}
	TierMedium   = Tier{value: "medium"}
	TierHigh     = Tier{value: "high"}
	TierCritical = Tier{value: "critical"}
)

// TierFromString reconstructs a Tier from its string representation.
func TierFromString(s string) (Tier, error) {
	switch s {
	case "low":
		return TierLow, nil
	case "medium":
		return TierMedium, nil
	case "high":
		return TierHigh, nil
	case "critical":
		return TierCritical, nil
	default:
		return Tier{}, fmt.Errorf("invalid tier: %s", s)
	}
}

// TierFromIndex resolves the tier for a 0-100 index. Boundaries are checked
// from critical down to medium; anything below medium is low.
func TierFromIndex(index, critical, high, medium float64) Tier {
	switch {
	case index >= critical:
		return TierCritical
	case index >= high:
		return TierHigh
	case index >= medium:
		return TierMedium
	default:
		return TierLow
	}
}

// String returns the string representation.
func (t Tier) String() string {
	return t.value
}

// Rank orders tiers from low (1) to critical (4). The zero Tier ranks 0.
func (t Tier) Rank() int {
	switch t.value {
	case "low":
		return 1
	case "medium":
		return 2
	case "high":
		return 3
	case "critical":
		return 4
	default:
		return 0
	}
}

// IsZero returns true if the Tier has not been set.
func (t Tier) IsZero() bool {
	return t.value == ""
}

// Equal checks equality with another Tier.
func (t Tier) Equal(other Tier) bool {
	return t.value == other.value
}

// MarshalText implements encoding.TextMarshaler.
func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Tier) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*t = Tier{}
		return nil
	}
	parsed, err := TierFromString(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
