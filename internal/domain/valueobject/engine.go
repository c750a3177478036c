package valueobject

// Engine names a rationale source. The declaration order of RationaleOrder
// is the rendering order consumers rely on.
type Engine string

const (
	EngineVerification   Engine = "verification"
	EngineTechnical      Engine = "technical"
	EngineStability      Engine = "stability"
	EngineCompliance     Engine = "compliance"
	EngineCompetency     Engine = "competency"
	EngineCorrelation    Engine = "correlation"
	EnginePredictiveRisk Engine = "predictive_risk"
)

// RationaleOrder is the fixed rationale sequence.
var RationaleOrder = []Engine{
	EngineVerification,
	EngineTechnical,
	EngineStability,
	EngineCompliance,
	EngineCompetency,
	EngineCorrelation,
	EnginePredictiveRisk,
}

// Label returns the human-readable engine name.
func (e Engine) Label() string {
	switch e {
	case EngineVerification:
		return "Vessel & Behavioral Verification"
	case EngineTechnical:
		return "Technical / STCW"
	case EngineStability:
		return "Career Stability"
	case EngineCompliance:
		return "Compliance"
	case EngineCompetency:
		return "Competency"
	case EngineCorrelation:
		return "Cross-Engine Correlation"
	case EnginePredictiveRisk:
		return "Predictive Risk"
	default:
		return string(e)
	}
}
