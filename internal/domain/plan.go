package domain

import "time"

// FlowImpact classifies how a parameter moves currency when adjusted.
type FlowImpact string

const (
	FlowSink           FlowImpact = "sink"
	FlowFaucet         FlowImpact = "faucet"
	FlowNeutral        FlowImpact = "neutral"
	FlowMixed          FlowImpact = "mixed"
	FlowFriction       FlowImpact = "friction"
	FlowRedistribution FlowImpact = "redistribution"
)

// RegisteredParameter describes one concrete host parameter the engine may
// adjust. CurrentValue is updated after each successful apply.
type RegisteredParameter struct {
	Key          string     `json:"key"`
	Type         string     `json:"type"`
	FlowImpact   FlowImpact `json:"flowImpact,omitempty"`
	Scope        *Scope     `json:"scope,omitempty"`
	CurrentValue *float64   `json:"currentValue,omitempty"`
	Priority     int        `json:"priority,omitempty"`
	Description  string     `json:"description,omitempty"`
	Label        string     `json:"label,omitempty"`
}

// RollbackDirection says which side of the threshold triggers a rollback.
type RollbackDirection string

const (
	RollbackAbove RollbackDirection = "above"
	RollbackBelow RollbackDirection = "below"
)

// RollbackCondition watches one dotted metric path after a plan is applied.
type RollbackCondition struct {
	Metric         string            `json:"metric"`
	Direction      RollbackDirection `json:"direction"`
	Threshold      float64           `json:"threshold"`
	CheckAfterTick int               `json:"checkAfterTick"`
}

// SimulationOutcomes aggregates projected end states across iterations.
type SimulationOutcomes struct {
	P10  *EconomyMetrics `json:"p10"`
	P50  *EconomyMetrics `json:"p50"`
	P90  *EconomyMetrics `json:"p90"`
	Mean *EconomyMetrics `json:"mean"`
}

// SimulationResult is the Monte-Carlo verdict on a proposed action.
type SimulationResult struct {
	ProposedAction      SuggestedAction    `json:"proposedAction"`
	Iterations          int                `json:"iterations"`
	ForwardTicks        int                `json:"forwardTicks"`
	Outcomes            SimulationOutcomes `json:"outcomes"`
	NetImprovement      bool               `json:"netImprovement"`
	NoNewProblems       bool               `json:"noNewProblems"`
	ConfidenceInterval  [2]float64         `json:"confidenceInterval"`
	EstimatedEffectTick int                `json:"estimatedEffectTick"`
	OvershootRisk       float64            `json:"overshootRisk"`
}

// ActionPlan is one accepted parameter adjustment awaiting application,
// settlement or rollback. AppliedAt is nil until the Executor applies it.
type ActionPlan struct {
	ID               string            `json:"id"`
	Diagnosis        Diagnosis         `json:"diagnosis"`
	Parameter        string            `json:"parameter"`
	Scope            *Scope            `json:"scope,omitempty"`
	CurrentValue     float64           `json:"currentValue"`
	TargetValue      float64           `json:"targetValue"`
	MaxChangePercent float64           `json:"maxChangePercent"`
	CooldownTicks    int               `json:"cooldownTicks"`
	Rollback         RollbackCondition `json:"rollbackCondition"`
	Simulation       *SimulationResult `json:"simulationResult,omitempty"`
	EstimatedLag     int               `json:"estimatedLag"`
	AppliedAt        *int              `json:"appliedAt,omitempty"`
}

// DecisionResult is the terminal outcome of one pipeline cycle.
// Skip results carry their reason as a suffix (skipped_cooldown, ...).
type DecisionResult string

const (
	ResultApplied            DecisionResult = "applied"
	ResultRolledBack         DecisionResult = "rolled_back"
	ResultSettled            DecisionResult = "settled"
	ResultSkippedGracePeriod DecisionResult = "skipped_grace_period"
	ResultSkippedAdvisor     DecisionResult = "skipped_advisor_mode"
	ResultSkippedUnresolved  DecisionResult = "skipped_unresolved"
	ResultSkippedLocked      DecisionResult = "skipped_locked"
	ResultSkippedCooldown    DecisionResult = "skipped_cooldown"
	ResultSkippedBudget      DecisionResult = "skipped_budget"
	ResultSkippedSimulation  DecisionResult = "skipped_simulation"
	ResultSkippedTimeout     DecisionResult = "skipped_timeout"
	ResultApplyFailed        DecisionResult = "apply_failed"
)

// DecisionEntry is one immutable record in the decision log.
type DecisionEntry struct {
	ID              string          `json:"id"`
	Tick            int             `json:"tick"`
	Timestamp       time.Time       `json:"timestamp"`
	Diagnosis       *Diagnosis      `json:"diagnosis,omitempty"`
	Plan            *ActionPlan     `json:"plan,omitempty"`
	Result          DecisionResult  `json:"result"`
	Reasoning       string          `json:"reasoning"`
	MetricsSnapshot *EconomyMetrics `json:"metricsSnapshot,omitempty"`
}

// Adjustment is one parameter change emitted to the host in a tick result.
type Adjustment struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
	Scope *Scope  `json:"scope,omitempty"`
}

// Alert is the host-facing view of a diagnosis.
type Alert struct {
	PrincipleID   string         `json:"principleId"`
	PrincipleName string         `json:"principleName"`
	Severity      float64        `json:"severity"`
	Evidence      map[string]any `json:"evidence,omitempty"`
	Reasoning     string         `json:"reasoning"`
}

// Adapter is the host-side surface the engine drives. GetState pulls the
// current snapshot in pull-mode deployments; SetParam writes one parameter.
// SetParam must be idempotent from the host's perspective - rollback
// re-issues it with the original value.
type Adapter interface {
	GetState() (*EconomyState, error)
	SetParam(key string, value float64, scope *Scope) error
}

// EngineMode selects whether accepted plans are executed or only reported.
type EngineMode string

const (
	ModeAutonomous EngineMode = "autonomous"
	ModeAdvisor    EngineMode = "advisor"
)
