package valueobject

import "fmt"

// EstimatedImpact ranks what-if remediation actions.
type EstimatedImpact struct {
	value string
}

var (
	ImpactHigh   = EstimatedImpact{value: "high"}
	ImpactMedium = EstimatedImpact{value: "medium"}
	ImpactLow    = EstimatedImpact{value: "low"}
)

// EstimatedImpactFromString reconstructs an EstimatedImpact from its string representation.
func EstimatedImpactFromString(s string) (EstimatedImpact, error) {
	switch s {
	case "high":
		return ImpactHigh, nil
	case "medium":
		return ImpactMedium, nil
	case "low":
		return ImpactLow, nil
	default:
		return EstimatedImpact{}, fmt.Errorf("invalid estimated impact: %s", s)
	}
}

// Priority sorts high first: high=0, medium=1, low=2.
func (e EstimatedImpact) Priority() int {
	switch e.value {
	case "high":
		return 0
	case "medium":
		return 1
	default:
		return 2
	}
}

func (e EstimatedImpact) String() string               { return e.value }
func (e EstimatedImpact) IsZero() bool                 { return e.value == "" }
func (e EstimatedImpact) Equal(o EstimatedImpact) bool { return e.value == o.value }

// MarshalText implements encoding.TextMarshaler.
func (e EstimatedImpact) MarshalText() ([]byte, error) {
	return []byte(e.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *EstimatedImpact) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*e = EstimatedImpact{}
		return nil
	}
	parsed, err := EstimatedImpactFromString(string(b))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
