package valueobject

import "fmt"

// Severity of a cross-engine correlation flag.
type Severity struct {
	value string
}

var (
	SeverityInfo    = Severity{value: "info"}
	SeverityWarning = Severity{value: "warning"}
)

// SeverityFromString reconstructs a Severity from its string representation.
func SeverityFromString(s string) (Severity, error) {
	switch s {
	case "info":
		return SeverityInfo, nil
	case "warning":
		return SeverityWarning, nil
	default:
		return Severity{}, fmt.Errorf("invalid severity: %s", s)
	}
}

// DecisionImpact maps warning to review and info to note.
func (s Severity) DecisionImpact() DecisionImpact {
	switch s.value {
	case "warning":
		return DecisionImpactReview
	case "info":
		return DecisionImpactNote
	default:
		return DecisionImpactNone
	}
}

func (s Severity) String() string        { return s.value }
func (s Severity) IsZero() bool          { return s.value == "" }
func (s Severity) Equal(o Severity) bool { return s.value == o.value }

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = Severity{}
		return nil
	}
	parsed, err := SeverityFromString(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// DecisionImpact is the reviewer-facing consequence of correlation flags.
// Like PolicyImpact it has no rejection value.
type DecisionImpact struct {
	value string
}

var (
	DecisionImpactNone   = DecisionImpact{value: "none"}
	DecisionImpactNote   = DecisionImpact{value: "note"}
	DecisionImpactReview = DecisionImpact{value: "review"}
)

// DecisionImpactFromString reconstructs a DecisionImpact from its string representation.
func DecisionImpactFromString(s string) (DecisionImpact, error) {
	switch s {
	case "none":
		return DecisionImpactNone, nil
	case "note":
		return DecisionImpactNote, nil
	case "review":
		return DecisionImpactReview, nil
	default:
		return DecisionImpact{}, fmt.Errorf("invalid decision impact: %s", s)
	}
}

// Rank orders impacts none (0) < note (1) < review (2).
func (d DecisionImpact) Rank() int {
	switch d.value {
	case "note":
		return 1
	case "review":
		return 2
	default:
		return 0
	}
}

func (d DecisionImpact) String() string              { return d.value }
func (d DecisionImpact) IsZero() bool                { return d.value == "" }
func (d DecisionImpact) Equal(o DecisionImpact) bool { return d.value == o.value }

// MarshalText implements encoding.TextMarshaler.
func (d DecisionImpact) MarshalText() ([]byte, error) {
	return []byte(d.value), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *DecisionImpact) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = DecisionImpact{}
		return nil
	}
	parsed, err := DecisionImpactFromString(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
