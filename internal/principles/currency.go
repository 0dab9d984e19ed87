package principles

import (
	"math"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// bootstrapPrinciples cover the cold-start phase of an economy.
func bootstrapPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P10",
			Name:        "Cold-start scarcity",
			Category:    domain.CategoryBootstrap,
			Description: "Early participants cannot act when mean balances are near zero while sinks already drain the economy.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.TotalAgents == 0 || m.MeanBalance >= 1 || m.SinkVolume <= 0 {
					return domain.OK()
				}
				return violated(6, 0.7, 5,
					map[string]any{"meanBalance": m.MeanBalance, "sinkVolume": m.SinkVolume},
					act("reward", domain.DirectionIncrease, 0.2,
						"mean balance near zero while sinks are active; boost onboarding rewards", nil))
			},
		},
		{
			ID:          "P11",
			Name:        "Onboarding dependency",
			Category:    domain.CategoryBootstrap,
			Description: "The faucet mix leans too heavily on new-user entry bonuses; growth stalls turn into supply stalls.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.NewUserDependency <= th.NewUserDependMax || m.FaucetVolume <= 0 {
					return domain.OK()
				}
				return violated(5, 0.75, 15,
					map[string]any{"newUserDependency": m.NewUserDependency},
					act("reward", domain.DirectionIncrease, 0.1,
						"entry bonuses dominate the faucet mix; raise in-game earning rewards instead", nil))
			},
		},
	}
}

// currencyPrinciples watch per-currency flow health. They prefer the
// per-currency maps and fall back to aggregates for single-currency hosts.
func currencyPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P12",
			Name:        "Inflationary net flow",
			Category:    domain.CategoryCurrency,
			Description: "Faucets outpace sinks: sustained positive net flow debases the currency.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, netFlow, found := worstAbove(m.NetFlowByCurrency, th.NetFlowWarn)
				if !found {
					return domain.OK()
				}
				severity := 5.0
				if netFlow > 2*th.NetFlowWarn {
					severity = 7
				}
				return violated(severity, 0.8, 10,
					map[string]any{"currency": currency, "netFlow": netFlow, "threshold": th.NetFlowWarn},
					act("cost", domain.DirectionIncrease, 0.15,
						"net flow exceeds the warn threshold; strengthen sinks by raising costs",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P13",
			Name:        "Deflationary net flow",
			Category:    domain.CategoryCurrency,
			Description: "Sinks outpace faucets: sustained negative net flow starves participants of currency.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, netFlow, found := worstBelow(m.NetFlowByCurrency, -th.NetFlowWarn)
				if !found {
					return domain.OK()
				}
				severity := 5.0
				if netFlow < -2*th.NetFlowWarn {
					severity = 7
				}
				return violated(severity, 0.8, 10,
					map[string]any{"currency": currency, "netFlow": netFlow, "threshold": -th.NetFlowWarn},
					act("cost", domain.DirectionDecrease, 0.15,
						"net flow is below the deflation threshold; ease sinks by lowering costs",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P14",
			Name:        "Supply inflation rate",
			Category:    domain.CategoryCurrency,
			Description: "Tick-over-tick supply growth beyond the inflation bound.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, rate, found := worstAbove(m.InflationRateByCurrency, th.InflationWarn)
				if !found {
					return domain.OK()
				}
				return violated(6, 0.7, 12,
					map[string]any{"currency": currency, "inflationRate": rate},
					act("reward", domain.DirectionDecrease, 0.1,
						"supply is growing faster than the inflation bound; damp faucet rewards",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P15",
			Name:        "Overheated velocity",
			Category:    domain.CategoryCurrency,
			Description: "Currency changes hands so fast that prices cannot anchor (hot-potato economy).",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, velocity, found := worstAbove(m.VelocityByCurrency, th.VelocityMax)
				if !found {
					return domain.OK()
				}
				return violated(4, 0.6, 8,
					map[string]any{"currency": currency, "velocity": velocity},
					act("fee", domain.DirectionIncrease, 0.1,
						"velocity above the stability band; introduce friction via transaction fees",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P16",
			Name:        "Stagnant velocity",
			Category:    domain.CategoryCurrency,
			Description: "Currency barely circulates; the economy is hoarding instead of trading.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.TotalSupply <= 0 {
					return domain.OK()
				}
				currency, velocity, found := worstBelow(m.VelocityByCurrency, th.VelocityMin)
				if !found {
					return domain.OK()
				}
				return violated(4, 0.55, 15,
					map[string]any{"currency": currency, "velocity": velocity},
					act("fee", domain.DirectionDecrease, 0.1,
						"velocity below the activity floor; reduce trading friction",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P17",
			Name:        "Faucet dominance",
			Category:    domain.CategoryCurrency,
			Description: "The tap-to-sink ratio shows faucets structurally outweighing sinks.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, ratio, found := worstAbove(m.TapSinkRatioByCurrency, th.TapSinkRatioMax)
				if !found {
					return domain.OK()
				}
				return violated(5, 0.7, 10,
					map[string]any{"currency": currency, "tapSinkRatio": ratio},
					act("cost", domain.DirectionIncrease, 0.1,
						"tap/sink ratio above the sustainable band; raise sink pricing",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P18",
			Name:        "Anchor ratio drift",
			Category:    domain.CategoryCurrency,
			Description: "The effort-to-currency anchor has drifted from its baseline, signalling hidden inflation.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.AnchorRatioDrift <= th.AnchorDriftWarn {
					return domain.OK()
				}
				return violated(5, 0.6, 20,
					map[string]any{"anchorRatioDrift": m.AnchorRatioDrift},
					act("multiplier", domain.DirectionDecrease, 0.1,
						"price anchor drifted beyond tolerance; re-tighten earning multipliers", nil))
			},
		},
		{
			ID:          "P19",
			Name:        "Price index drift",
			Category:    domain.CategoryCurrency,
			Description: "The composite price index moved beyond the configured drift band within the coarse window.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.AnchorRatioDrift <= th.PriceIndexDrift || m.PriceIndex <= 0 {
					return domain.OK()
				}
				return violated(6, 0.65, 20,
					map[string]any{"priceIndex": m.PriceIndex, "drift": m.AnchorRatioDrift},
					act("cost", domain.DirectionIncrease, 0.1,
						"price level ran away from its baseline; drain excess supply through sinks", nil))
			},
		},
	}
}

// feedbackPrinciples watch self-reinforcing loops that compound faster
// than any single-tick metric suggests.
func feedbackPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P24",
			Name:        "Rich-get-richer loop",
			Category:    domain.CategoryFeedback,
			Description: "Wealth concentration combined with supply growth compounds into runaway stratification.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.Top10PctShare <= th.Top10ShareMax || m.InflationRate <= 0 {
					return domain.OK()
				}
				return violated(7, 0.7, 25,
					map[string]any{"top10PctShare": m.Top10PctShare, "inflationRate": m.InflationRate},
					act("fee", domain.DirectionIncrease, 0.1,
						"top decile captures new supply; add progressive friction", nil))
			},
		},
		{
			ID:          "P25",
			Name:        "Accelerating inflation",
			Category:    domain.CategoryFeedback,
			Description: "Inflation at a multiple of the warn bound indicates a compounding faucet loop, not noise.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.InflationRate <= 2*th.InflationWarn {
					return domain.OK()
				}
				return violated(8, 0.75, 8,
					map[string]any{"inflationRate": m.InflationRate},
					act("reward", domain.DirectionDecrease, 0.2,
						"inflation is compounding; cut faucet rewards before prices unanchor", nil))
			},
		},
		{
			ID:          "P26",
			Name:        "Death spiral",
			Category:    domain.CategoryFeedback,
			Description: "Falling satisfaction and rising churn feed each other until the population collapses.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.AvgSatisfaction >= th.SatisfactionFloor || m.ChurnRate <= th.ChurnRateWarn {
					return domain.OK()
				}
				return violated(9, 0.8, 5,
					map[string]any{"avgSatisfaction": m.AvgSatisfaction, "churnRate": m.ChurnRate},
					act("reward", domain.DirectionIncrease, 0.2,
						"satisfaction and retention are collapsing together; inject rewards immediately", nil))
			},
		},
		{
			ID:          "P27",
			Name:        "Runaway faucet",
			Category:    domain.CategoryFeedback,
			Description: "Faucet volume exceeds sink volume by more than the replacement-rate multiplier.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.SinkVolume <= 0 || m.FaucetVolume <= th.ReplacementRateMultiplier*m.SinkVolume {
					return domain.OK()
				}
				ratio := m.FaucetVolume / math.Max(1, m.SinkVolume)
				return violated(7, 0.75, 10,
					map[string]any{"faucetVolume": m.FaucetVolume, "sinkVolume": m.SinkVolume, "ratio": ratio},
					act("reward", domain.DirectionDecrease, 0.15,
						"faucets emit beyond replacement rate; throttle reward output", nil))
			},
		},
	}
}
