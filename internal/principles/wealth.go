package principles

import (
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// statisticalPrinciples watch the shape of the wealth distribution.
func statisticalPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P33",
			Name:        "Critical inequality",
			Category:    domain.CategoryStatistical,
			Description: "A currency's Gini coefficient crossed the red line; the distribution is pathologically concentrated.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, g, found := worstAbove(m.GiniCoefficientByCurrency, th.GiniRed)
				if !found {
					// Single-currency legacy callers may only fill the aggregate.
					if len(m.GiniCoefficientByCurrency) == 0 && m.GiniCoefficient > th.GiniRed {
						return violated(8, 0.8, 20,
							map[string]any{"gini": m.GiniCoefficient},
							act("fee", domain.DirectionIncrease, 0.15,
								"wealth concentration past the red line; add progressive fees", nil))
					}
					return domain.OK()
				}
				return violated(8, 0.8, 20,
					map[string]any{"currency": currency, "gini": g},
					act("fee", domain.DirectionIncrease, 0.15,
						"wealth concentration past the red line; add progressive fees",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P38",
			Name:        "Elevated inequality",
			Category:    domain.CategoryStatistical,
			Description: "Gini above the warning band but below the red line; worth correcting before it compounds.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, g, found := worstAbove(m.GiniCoefficientByCurrency, th.GiniWarning)
				if !found || g > th.GiniRed {
					return domain.OK()
				}
				return violated(5, 0.65, 30,
					map[string]any{"currency": currency, "gini": g},
					act("fee", domain.DirectionIncrease, 0.08,
						"inequality trending up; apply gentle progressive friction",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P39",
			Name:        "Top-decile concentration",
			Category:    domain.CategoryStatistical,
			Description: "The top tenth of holders controls more supply than the configured ceiling.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, share, found := worstAbove(m.Top10PctShareByCurrency, th.Top10ShareMax)
				if !found {
					return domain.OK()
				}
				return violated(6, 0.7, 25,
					map[string]any{"currency": currency, "top10PctShare": share},
					act("fee", domain.DirectionIncrease, 0.1,
						"top decile exceeds its supply ceiling; tax large holdings",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P40",
			Name:        "Mean-median divergence",
			Category:    domain.CategoryStatistical,
			Description: "Mean balance far above the median: a whale-skewed distribution even when Gini looks tame.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, div, found := worstAbove(m.MeanMedianDivergenceByCurrency, th.MeanMedianDivergenceMax)
				if !found {
					return domain.OK()
				}
				return violated(4, 0.55, 30,
					map[string]any{"currency": currency, "divergence": div},
					act("reward", domain.DirectionIncrease, 0.1,
						"median participants lag the mean badly; lift baseline rewards",
						currencyScope(currency)))
			},
		},
	}
}

// populationPrinciples watch the composition of the participant base.
func populationPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P20",
			Name:        "Churn spike",
			Category:    domain.CategoryPopulation,
			Description: "Participants leave faster than the churn tolerance.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.ChurnRate <= th.ChurnRateWarn {
					return domain.OK()
				}
				return violated(7, 0.75, 5,
					map[string]any{"churnRate": m.ChurnRate},
					act("reward", domain.DirectionIncrease, 0.15,
						"churn above tolerance; improve retention through rewards", nil))
			},
		},
		{
			ID:          "P21",
			Name:        "Role concentration",
			Category:    domain.CategoryPopulation,
			Description: "A single role holds a supermajority of the population; complementary roles are starving.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				for role, share := range m.RoleShares {
					if share > 0.6 && len(m.RoleShares) > 1 {
						return violated(5, 0.6, 25,
							map[string]any{"role": role, "share": share},
							act("reward", domain.DirectionIncrease, 0.1,
								"one role dominates; raise rewards for the starved roles", nil))
					}
				}
				return domain.OK()
			},
		},
		{
			ID:          "P22",
			Name:        "Dominant role absent",
			Category:    domain.CategoryPopulation,
			Description: "A role the economy depends on has no population at all.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if len(th.DominantRoles) == 0 || len(m.PopulationByRole) == 0 {
					return domain.OK()
				}
				for _, role := range th.DominantRoles {
					if m.PopulationByRole[role] <= 0 {
						return violated(7, 0.7, 15,
							map[string]any{"role": role},
							act("reward", domain.DirectionIncrease, 0.2,
								"a load-bearing role has emptied out; incentivize re-entry", nil))
					}
				}
				return domain.OK()
			},
		},
		{
			ID:          "P23",
			Name:        "Blocked participants",
			Category:    domain.CategoryPopulation,
			Description: "Too many agents hold zero balance in every currency and cannot participate.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.TotalAgents <= 0 {
					return domain.OK()
				}
				ratio := m.BlockedAgentCount / m.TotalAgents
				if ratio <= th.BlockedAgentRatioMax {
					return domain.OK()
				}
				return violated(6, 0.7, 8,
					map[string]any{"blockedAgentCount": m.BlockedAgentCount, "ratio": ratio},
					act("reward", domain.DirectionIncrease, 0.15,
						"a large cohort is locked out with zero balance; open a faucet for them", nil))
			},
		},
	}
}

// experiencePrinciples watch how the economy feels from the inside.
func experiencePrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P50",
			Name:        "Satisfaction warning",
			Category:    domain.CategoryParticipantExperience,
			Description: "Average satisfaction slid under the warning band.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.AvgSatisfaction <= 0 || m.AvgSatisfaction >= th.SatisfactionWarn {
					return domain.OK()
				}
				if m.AvgSatisfaction < th.SatisfactionFloor {
					return domain.OK() // P52 takes over below the floor.
				}
				return violated(4, 0.6, 10,
					map[string]any{"avgSatisfaction": m.AvgSatisfaction},
					act("reward", domain.DirectionIncrease, 0.1,
						"satisfaction below the comfort band; sweeten rewards", nil))
			},
		},
		{
			ID:          "P52",
			Name:        "Satisfaction floor breach",
			Category:    domain.CategoryParticipantExperience,
			Description: "Average satisfaction fell through the floor; churn usually follows within a few ticks.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.AvgSatisfaction <= 0 || m.AvgSatisfaction >= th.SatisfactionFloor {
					return domain.OK()
				}
				return violated(8, 0.8, 5,
					map[string]any{"avgSatisfaction": m.AvgSatisfaction},
					act("reward", domain.DirectionIncrease, 0.2,
						"satisfaction through the floor; intervene before churn spikes", nil))
			},
		},
		{
			ID:          "P55",
			Name:        "Frustration churn",
			Category:    domain.CategoryParticipantExperience,
			Description: "Satisfaction below the warning band with churn already elevated - the leading edge of a death spiral.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.AvgSatisfaction <= 0 || m.AvgSatisfaction >= th.SatisfactionWarn {
					return domain.OK()
				}
				if m.ChurnRate <= th.ChurnRateWarn/2 {
					return domain.OK()
				}
				return violated(6, 0.65, 6,
					map[string]any{"avgSatisfaction": m.AvgSatisfaction, "churnRate": m.ChurnRate},
					act("cost", domain.DirectionDecrease, 0.1,
						"frustrated participants are starting to leave; ease costs", nil))
			},
		},
		{
			ID:          "P56",
			Name:        "Whale crowding",
			Category:    domain.CategoryParticipantExperience,
			Description: "Concentration plus a rock-bottom median balance: ordinary participants experience an empty economy.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.Top10PctShare <= th.Top10ShareMax || m.MedianBalance > 1 {
					return domain.OK()
				}
				return violated(6, 0.65, 15,
					map[string]any{"top10PctShare": m.Top10PctShare, "medianBalance": m.MedianBalance},
					act("reward", domain.DirectionIncrease, 0.15,
						"whales hold the supply and the median is broke; lift the floor", nil))
			},
		},
	}
}

// openEconomyPrinciples watch value crossing the economy's boundary.
func openEconomyPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P57",
			Name:        "Extraction surge",
			Category:    domain.CategoryOpenEconomy,
			Description: "Top-decile holders move most of the event volume - classic value-extraction (RMT/bot) signature.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.ExtractionRatio <= th.ExtractionMax {
					return domain.OK()
				}
				return violated(7, 0.65, 10,
					map[string]any{"extractionRatio": m.ExtractionRatio},
					act("fee", domain.DirectionIncrease, 0.15,
						"whales dominate value movement; raise high-volume transfer fees", nil))
			},
		},
		{
			ID:          "P58",
			Name:        "Onboarding farm",
			Category:    domain.CategoryOpenEconomy,
			Description: "Faucets lean on entry bonuses while churn is elevated: accounts are being farmed for their bonus.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.NewUserDependency <= th.NewUserDependMax || m.ChurnRate <= th.ChurnRateWarn {
					return domain.OK()
				}
				return violated(7, 0.7, 8,
					map[string]any{"newUserDependency": m.NewUserDependency, "churnRate": m.ChurnRate},
					act("reward", domain.DirectionDecrease, 0.2,
						"entry bonuses plus churn look like bonus farming; cut entry rewards", nil))
			},
		},
	}
}
