package principles

import (
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// supplyChainPrinciples watch the production side of the economy.
func supplyChainPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P1",
			Name:        "Production deficit",
			Category:    domain.CategorySupplyChain,
			Description: "Consumption outpaces production; resource stocks will run dry.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.ProductionIndex >= th.ProductionIndexMin || m.SinkVolume <= 0 {
					return domain.OK()
				}
				return violated(6, 0.7, 12,
					map[string]any{"productionIndex": m.ProductionIndex},
					act("reward", domain.DirectionIncrease, 0.15,
						"production lags consumption; raise producer rewards", nil))
			},
		},
		{
			ID:          "P2",
			Name:        "Overproduction",
			Category:    domain.CategorySupplyChain,
			Description: "Production exceeds consumption by the replacement multiplier; stockpiles depress prices.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.ProductionIndex <= th.ReplacementRateMultiplier {
					return domain.OK()
				}
				return violated(4, 0.6, 20,
					map[string]any{"productionIndex": m.ProductionIndex},
					act("cost", domain.DirectionIncrease, 0.1,
						"production far outpaces demand; raise production costs", nil))
			},
		},
		{
			ID:          "P3",
			Name:        "Capacity saturation",
			Category:    domain.CategorySupplyChain,
			Description: "Nearly every participant is already active; growth must come from throughput, not headcount.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.CapacityUsage <= th.CapacityUsageMax {
					return domain.OK()
				}
				return violated(3, 0.55, 30,
					map[string]any{"capacityUsage": m.CapacityUsage},
					act("cap", domain.DirectionIncrease, 0.1,
						"participation is saturated; widen activity caps", nil))
			},
		},
		{
			ID:          "P4",
			Name:        "Content drought",
			Category:    domain.CategorySupplyChain,
			Description: "No fresh content has entered the economy for longer than the drop-age bound.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.ContentDropAge <= th.ContentDropAgeMax {
					return domain.OK()
				}
				return violated(4, 0.6, 40,
					map[string]any{"contentDropAge": m.ContentDropAge},
					act("reward", domain.DirectionIncrease, 0.1,
						"content is stale; sweeten production rewards to refresh supply", nil))
			},
		},
		{
			ID:          "P5",
			Name:        "Disposal glut",
			Category:    domain.CategorySupplyChain,
			Description: "A large share of market activity is participants dumping unwanted goods into sinks.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.DisposalTradeRatio <= th.DisposalTradeRatioMax {
					return domain.OK()
				}
				return violated(4, 0.6, 15,
					map[string]any{"disposalTradeRatio": m.DisposalTradeRatio},
					act("yield", domain.DirectionDecrease, 0.1,
						"disposal dominates trade; lower drop yields so goods retain value", nil))
			},
		},
	}
}

// incentivePrinciples watch whether reward structures still point the
// population at the intended behaviour.
func incentivePrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P6",
			Name:        "Reward dilution",
			Category:    domain.CategoryIncentive,
			Description: "Per-capita faucet output is so high that rewards stop differentiating effort.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.TotalAgents <= 0 {
					return domain.OK()
				}
				perCapita := m.FaucetVolume / m.TotalAgents
				if perCapita <= 5 {
					return domain.OK()
				}
				return violated(4, 0.55, 20,
					map[string]any{"faucetPerCapita": perCapita},
					act("reward", domain.DirectionDecrease, 0.1,
						"per-capita faucet output dilutes reward meaning; trim rewards", nil))
			},
		},
		{
			ID:          "P7",
			Name:        "Oversinking",
			Category:    domain.CategoryIncentive,
			Description: "Sinks absorb so much that earning feels pointless; the tap/sink ratio sits below the floor.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.SinkVolume <= 0 || m.TapSinkRatio >= th.TapSinkRatioMin {
					return domain.OK()
				}
				return violated(5, 0.7, 10,
					map[string]any{"tapSinkRatio": m.TapSinkRatio},
					act("cost", domain.DirectionDecrease, 0.1,
						"sinks dominate faucets; ease costs so earning stays worthwhile", nil))
			},
		},
		{
			ID:          "P8",
			Name:        "Hoarding incentive gap",
			Category:    domain.CategoryIncentive,
			Description: "Wealth sits idle: balances are high while circulation is minimal, so holding beats using.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.Velocity >= th.VelocityMin || m.MeanBalance <= 10 {
					return domain.OK()
				}
				return violated(4, 0.5, 25,
					map[string]any{"velocity": m.Velocity, "meanBalance": m.MeanBalance},
					act("yield", domain.DirectionIncrease, 0.1,
						"wealth is parked; raise spending yields to reward circulation", nil))
			},
		},
		{
			ID:          "P9",
			Name:        "Gift economy takeover",
			Category:    domain.CategoryIncentive,
			Description: "Free transfers crowd out priced trade; the market no longer discovers value.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.GiftTradeRatio <= th.GiftTradeRatioMax {
					return domain.OK()
				}
				return violated(4, 0.6, 20,
					map[string]any{"giftTradeRatio": m.GiftTradeRatio},
					act("fee", domain.DirectionIncrease, 0.1,
						"transfers crowd out trade; add a transfer fee", nil))
			},
		},
	}
}

// resourcePrinciples watch individual resource stocks.
func resourcePrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P47",
			Name:        "Resource scarcity",
			Category:    domain.CategoryResource,
			Description: "A tracked resource has vanished from every inventory.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				for resource, supply := range m.SupplyByResource {
					if supply <= 0 {
						return violated(6, 0.75, 10,
							map[string]any{"resource": resource},
							act("yield", domain.DirectionIncrease, 0.15,
								"a resource ran dry; raise its production yield",
								&domain.Scope{Tags: []string{resource}}))
					}
				}
				return domain.OK()
			},
		},
		{
			ID:          "P48",
			Name:        "Resource concentration",
			Category:    domain.CategoryResource,
			Description: "One resource dominates total inventory; the goods economy has collapsed to a monoculture.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if len(m.SupplyByResource) < 2 {
					return domain.OK()
				}
				var total, largest float64
				largestName := ""
				for resource, supply := range m.SupplyByResource {
					total += supply
					if supply > largest {
						largest, largestName = supply, resource
					}
				}
				if total <= 0 || largest/total <= 0.8 {
					return domain.OK()
				}
				return violated(3, 0.5, 30,
					map[string]any{"resource": largestName, "share": largest / total},
					act("yield", domain.DirectionDecrease, 0.1,
						"one resource dominates inventories; damp its yield",
						&domain.Scope{Tags: []string{largestName}}))
			},
		},
		{
			ID:          "P49",
			Name:        "Production stall",
			Category:    domain.CategoryResource,
			Description: "Consumption continues with zero production; stocks are being eaten with no replacement.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.ProductionIndex > 0 || m.SinkVolume <= 0 {
					return domain.OK()
				}
				return violated(7, 0.8, 8,
					map[string]any{"productionIndex": m.ProductionIndex, "sinkVolume": m.SinkVolume},
					act("reward", domain.DirectionIncrease, 0.2,
						"production has stopped entirely while consumption continues", nil))
			},
		},
	}
}
