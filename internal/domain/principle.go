package domain

import "encoding/json"

// Direction says which way a suggested parameter adjustment points.
type Direction string

const (
	DirectionIncrease Direction = "increase"
	DirectionDecrease Direction = "decrease"
)

// Scope narrows a parameter type to a concrete part of the economy.
// All fields are optional; an empty scope matches anything.
type Scope struct {
	System   string   `json:"system,omitempty"`
	Currency string   `json:"currency,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

// IsZero reports whether the scope carries no constraints.
func (s *Scope) IsZero() bool {
	return s == nil || (s.System == "" && s.Currency == "" && len(s.Tags) == 0)
}

// Canonical renders the scope as a stable string, used as part of
// cooldown keys. Tag order is preserved as given by the principle.
func (s *Scope) Canonical() string {
	if s.IsZero() {
		return ""
	}
	key := "sys=" + s.System + "|cur=" + s.Currency
	for _, t := range s.Tags {
		key += "|tag=" + t
	}
	return key
}

// SuggestedAction is a principle's proposed correction. ResolvedParameter is
// set at most once, by the Planner, after registry resolution.
type SuggestedAction struct {
	ParameterType     string    `json:"parameterType"`
	Direction         Direction `json:"direction"`
	Magnitude         float64   `json:"magnitude"`
	Reasoning         string    `json:"reasoning"`
	Scope             *Scope    `json:"scope,omitempty"`
	ResolvedParameter string    `json:"resolvedParameter,omitempty"`
}

// suggestedActionJSON mirrors SuggestedAction plus the legacy "parameter"
// field some older hosts still send. It is canonicalized to ParameterType.
type suggestedActionJSON struct {
	ParameterType     string    `json:"parameterType"`
	Parameter         string    `json:"parameter"`
	Direction         Direction `json:"direction"`
	Magnitude         float64   `json:"magnitude"`
	Reasoning         string    `json:"reasoning"`
	Scope             *Scope    `json:"scope,omitempty"`
	ResolvedParameter string    `json:"resolvedParameter,omitempty"`
}

// UnmarshalJSON accepts both "parameterType" and the legacy "parameter"
// spelling, preferring the former when both are present.
func (a *SuggestedAction) UnmarshalJSON(data []byte) error {
	var raw suggestedActionJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	a.ParameterType = raw.ParameterType
	if a.ParameterType == "" {
		a.ParameterType = raw.Parameter
	}
	a.Direction = raw.Direction
	a.Magnitude = raw.Magnitude
	a.Reasoning = raw.Reasoning
	a.Scope = raw.Scope
	a.ResolvedParameter = raw.ResolvedParameter
	return nil
}

// PrincipleResult is the outcome of one principle check. A non-violated
// result carries no other information.
type PrincipleResult struct {
	Violated        bool             `json:"violated"`
	Severity        float64          `json:"severity,omitempty"`   // [1, 10]
	Confidence      float64          `json:"confidence,omitempty"` // [0, 1]
	EstimatedLag    int              `json:"estimatedLag,omitempty"`
	Evidence        map[string]any   `json:"evidence,omitempty"`
	SuggestedAction *SuggestedAction `json:"suggestedAction,omitempty"`
}

// OK is the shared non-violation result.
func OK() PrincipleResult {
	return PrincipleResult{Violated: false}
}

// CheckFunc evaluates metrics against thresholds. Implementations must be
// deterministic and side-effect free.
type CheckFunc func(m *EconomyMetrics, th *Thresholds) PrincipleResult

// Principle is one economic rule registered with the Diagnoser.
type Principle struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Check       CheckFunc `json:"-" msgpack:"-"`
}

// Principle categories. Each built-in category holds 2-8 principles.
const (
	CategorySupplyChain           = "supply_chain"
	CategoryIncentive             = "incentive"
	CategoryPopulation            = "population"
	CategoryCurrency              = "currency"
	CategoryBootstrap             = "bootstrap"
	CategoryFeedback              = "feedback"
	CategoryRegulator             = "regulator"
	CategoryMarketDynamics        = "market_dynamics"
	CategoryMeasurement           = "measurement"
	CategoryStatistical           = "statistical"
	CategorySystemDynamics        = "system_dynamics"
	CategoryResource              = "resource"
	CategoryParticipantExperience = "participant_experience"
	CategoryOpenEconomy           = "open_economy"
	CategoryOperations            = "operations"
)

// Diagnosis pairs a fired principle with its violation at a tick.
type Diagnosis struct {
	Principle Principle       `json:"principle"`
	Violation PrincipleResult `json:"violation"`
	Tick      int             `json:"tick"`
}
