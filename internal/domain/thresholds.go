package domain

// Thresholds is the flat record of tunable numeric bounds the principles and
// the control pipeline consult. It is engine-owned and constant for the
// lifetime of a run unless reconfigured.
type Thresholds struct {
	// Wealth distribution.
	GiniWarning             float64 `json:"giniWarning"`
	GiniRed                 float64 `json:"giniRed"`
	Top10ShareMax           float64 `json:"top10ShareMax"`
	MeanMedianDivergenceMax float64 `json:"meanMedianDivergenceMax"`

	// Currency flow.
	NetFlowWarn      float64 `json:"netFlowWarn"`
	InflationWarn    float64 `json:"inflationWarn"`
	VelocityMin      float64 `json:"velocityMin"`
	VelocityMax      float64 `json:"velocityMax"`
	TapSinkRatioMin  float64 `json:"tapSinkRatioMin"`
	TapSinkRatioMax  float64 `json:"tapSinkRatioMax"`
	AnchorDriftWarn  float64 `json:"anchorDriftWarn"`
	PriceIndexDrift  float64 `json:"priceIndexDrift"`
	ExtractionMax    float64 `json:"extractionMax"`
	NewUserDependMax float64 `json:"newUserDependMax"`

	// Market dynamics.
	ArbitrageIndexWarning  float64 `json:"arbitrageIndexWarning"`
	ArbitrageIndexCritical float64 `json:"arbitrageIndexCritical"`
	GiftTradeRatioMax      float64 `json:"giftTradeRatioMax"`
	DisposalTradeRatioMax  float64 `json:"disposalTradeRatioMax"`

	// Pools.
	PoolCapPercent    float64 `json:"poolCapPercent"`
	PoolOperatorShare float64 `json:"poolOperatorShare"`
	PoolWinRate       float64 `json:"poolWinRate"`

	// Participants.
	SatisfactionFloor      float64 `json:"satisfactionFloor"`
	SatisfactionWarn       float64 `json:"satisfactionWarn"`
	ChurnRateWarn          float64 `json:"churnRateWarn"`
	BlockedAgentRatioMax   float64 `json:"blockedAgentRatioMax"`
	EventCompletionRateMin float64 `json:"eventCompletionRateMin"`
	ContentDropAgeMax      float64 `json:"contentDropAgeMax"`

	// Production.
	CapacityUsageMax          float64 `json:"capacityUsageMax"`
	ProductionIndexMin        float64 `json:"productionIndexMin"`
	ReplacementRateMultiplier float64 `json:"replacementRateMultiplier"`

	// Control pipeline.
	GracePeriod             int     `json:"gracePeriod"`
	CooldownTicks           int     `json:"cooldownTicks"`
	MaxAdjustmentPercent    float64 `json:"maxAdjustmentPercent"`
	ComplexityBudgetMax     int     `json:"complexityBudgetMax"`
	SimulationMinIterations int     `json:"simulationMinIterations"`
	SimulationForwardTicks  int     `json:"simulationForwardTicks"`
	DivergenceThreshold     float64 `json:"divergenceThreshold"`

	// DominantRoles marks the roles whose population drives faucet-style
	// flow in the simulator's projection model.
	DominantRoles []string `json:"dominantRoles,omitempty"`
}

// DefaultThresholds returns the built-in tuning. The health-score bounds
// (satisfaction 65/50, gini 0.45/0.60, net flow 10/20, churn 0.05) reuse the
// same values the warn thresholds carry here.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GiniWarning:             0.45,
		GiniRed:                 0.60,
		Top10ShareMax:           0.55,
		MeanMedianDivergenceMax: 1.5,

		NetFlowWarn:      10,
		InflationWarn:    0.05,
		VelocityMin:      0.05,
		VelocityMax:      5.0,
		TapSinkRatioMin:  0.8,
		TapSinkRatioMax:  1.3,
		AnchorDriftWarn:  0.15,
		PriceIndexDrift:  0.25,
		ExtractionMax:    0.4,
		NewUserDependMax: 0.5,

		ArbitrageIndexWarning:  0.3,
		ArbitrageIndexCritical: 0.6,
		GiftTradeRatioMax:      0.3,
		DisposalTradeRatioMax:  0.35,

		PoolCapPercent:    0.30,
		PoolOperatorShare: 0.50,
		PoolWinRate:       0.25,

		SatisfactionFloor:      50,
		SatisfactionWarn:       65,
		ChurnRateWarn:          0.05,
		BlockedAgentRatioMax:   0.10,
		EventCompletionRateMin: 0.6,
		ContentDropAgeMax:      90,

		CapacityUsageMax:          0.9,
		ProductionIndexMin:        0.5,
		ReplacementRateMultiplier: 2.0,

		GracePeriod:             50,
		CooldownTicks:           15,
		MaxAdjustmentPercent:    0.25,
		ComplexityBudgetMax:     3,
		SimulationMinIterations: 100,
		SimulationForwardTicks:  20,
		DivergenceThreshold:     20,
	}
}
