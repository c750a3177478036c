package valueobject

import "fmt"

// PolicyImpact is the advisory action attached to a predictive result.
// The set of values is closed: there is no rejection value and none can be
// parsed, so no caller can construct one.
type PolicyImpact struct {
	value string
}

var (
	PolicyImpactNone                = PolicyImpact{value: "none"}
	PolicyImpactReview              = PolicyImpact{value: "review"}
	PolicyImpactRequireConfirmation = PolicyImpact{value: "require_confirmation"}
)

// PolicyImpactFromString reconstructs a PolicyImpact from its string representation.
func PolicyImpactFromString(s string) (PolicyImpact, error) {
	switch s {
	case "none":
		return PolicyImpactNone, nil
	case "review":
		return PolicyImpactReview, nil
	case "require_confirmation":
		return PolicyImpactRequireConfirmation, nil
	default:
		return PolicyImpact{}, fmt.Errorf("invalid policy impact: %s", s)
	}
}

// PolicyImpactFromIndex maps an index onto the advisory ladder.
func PolicyImpactFromIndex(index, confirmThreshold, reviewThreshold float64) PolicyImpact {
	switch {
	case index >= confirmThreshold:
		return PolicyImpactRequireConfirmation
	case index >= reviewThreshold:
		return PolicyImpactReview
	default:
		return PolicyImpactNone
	}
}

// String returns the string representation.
func (p PolicyImpact) String() string {
	return p.value
}

// RequiresHumanAction is true for review and require_confirmation.
func (p PolicyImpact) RequiresHumanAction() bool {
	return p.value == "review" || p.value == "require_confirmation"
}

// IsZero returns true if the PolicyImpact has not been set.
func (p PolicyImpact) IsZero() bool {
	return p.value == ""
}

// Equal checks equality with another PolicyImpact.
func (p PolicyImpact) Equal(other PolicyImpact) bool {
	return p.value == other.value
}

// MarshalText implements encoding.TextMarshaler.
func (p PolicyImpact) MarshalText() ([]byte, error) {
	return []byte(p.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *PolicyImpact) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*p = PolicyImpact{}
		return nil
	}
	parsed, err := PolicyImpactFromString(string(b))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
