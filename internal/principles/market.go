package principles

import (
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// marketPrinciples watch price formation and trading structure.
func marketPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P32",
			Name:        "Arbitrage dispersion",
			Category:    domain.CategoryMarketDynamics,
			Description: "Price dispersion across listings allows risk-free round trips at the warning level.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, idx, found := worstAbove(m.ArbitrageIndexByCurrency, th.ArbitrageIndexWarning)
				if !found || idx > th.ArbitrageIndexCritical {
					return domain.OK()
				}
				return violated(4, 0.6, 10,
					map[string]any{"currency": currency, "arbitrageIndex": idx},
					act("fee", domain.DirectionIncrease, 0.05,
						"price dispersion invites arbitrage; add light market friction",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P34",
			Name:        "Critical arbitrage",
			Category:    domain.CategoryMarketDynamics,
			Description: "Price dispersion past the critical bound; bots can drain the market faster than players trade.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				currency, idx, found := worstAbove(m.ArbitrageIndexByCurrency, th.ArbitrageIndexCritical)
				if !found {
					return domain.OK()
				}
				return violated(8, 0.8, 5,
					map[string]any{"currency": currency, "arbitrageIndex": idx},
					act("fee", domain.DirectionIncrease, 0.2,
						"critical arbitrage dispersion; raise transaction fees hard",
						currencyScope(currency)))
			},
		},
		{
			ID:          "P35",
			Name:        "Illiquid market",
			Category:    domain.CategoryMarketDynamics,
			Description: "Prices exist but nothing trades; the market has stopped clearing.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if len(m.Prices) == 0 || m.Velocity > 0 || m.TotalSupply <= 0 {
					return domain.OK()
				}
				return violated(5, 0.6, 15,
					map[string]any{"priceCount": len(m.Prices)},
					act("fee", domain.DirectionDecrease, 0.15,
						"listed market with zero trade volume; cut trading friction", nil))
			},
		},
		{
			ID:          "P36",
			Name:        "Cross-currency dispersion",
			Category:    domain.CategoryMarketDynamics,
			Description: "The same resources price wildly differently across currencies, opening conversion loops.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if len(m.ArbitrageIndexByCurrency) < 2 {
					return domain.OK()
				}
				high := 0
				for _, idx := range m.ArbitrageIndexByCurrency {
					if idx > th.ArbitrageIndexWarning {
						high++
					}
				}
				if high < 2 {
					return domain.OK()
				}
				return violated(6, 0.65, 12,
					map[string]any{"currenciesAffected": high},
					act("multiplier", domain.DirectionDecrease, 0.1,
						"multiple currencies show dispersed pricing; tighten exchange multipliers", nil))
			},
		},
		{
			ID:          "P37",
			Name:        "Price level collapse",
			Category:    domain.CategoryMarketDynamics,
			Description: "The price index dropped to zero while supply remains; goods have become worthless.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.PriceIndex > 0 || m.TotalSupply <= 0 || len(m.SupplyByResource) == 0 {
					return domain.OK()
				}
				return violated(6, 0.6, 15,
					map[string]any{"priceIndex": m.PriceIndex},
					act("cost", domain.DirectionIncrease, 0.1,
						"goods price at zero; introduce scarcity through production costs", nil))
			},
		},
	}
}

// regulatorPrinciples watch the pools that hold currency outside
// participant balances (prize pots, reserves, staking pools).
func regulatorPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P28",
			Name:        "Pool cap breach",
			Category:    domain.CategoryRegulator,
			Description: "A single pool holds more than the capped share of its currency's supply.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				for currency, pools := range m.PoolSizesByCurrency {
					supply := m.TotalSupplyByCurrency[currency]
					if supply <= 0 {
						continue
					}
					for name, size := range pools {
						if size > th.PoolCapPercent*supply {
							return violated(6, 0.75, 10,
								map[string]any{"currency": currency, "pool": name, "share": size / supply},
								act("cap", domain.DirectionDecrease, 0.15,
									"a pool exceeds its supply-share cap; lower its intake cap",
									currencyScope(currency)))
						}
					}
				}
				return domain.OK()
			},
		},
		{
			ID:          "P29",
			Name:        "Operator pool share",
			Category:    domain.CategoryRegulator,
			Description: "Operator-owned pools hold more than the allowed share of all pooled currency.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				for currency, pools := range m.PoolSizesByCurrency {
					var total, operator float64
					for name, size := range pools {
						total += size
						if name == "operator" || name == "house" {
							operator += size
						}
					}
					if total > 0 && operator/total > th.PoolOperatorShare {
						return violated(5, 0.7, 15,
							map[string]any{"currency": currency, "operatorShare": operator / total},
							act("multiplier", domain.DirectionDecrease, 0.1,
								"operator pools dominate; lower the house take",
								currencyScope(currency)))
					}
				}
				return domain.OK()
			},
		},
		{
			ID:          "P30",
			Name:        "Prize pool sustainability",
			Category:    domain.CategoryRegulator,
			Description: "Prize pools are thin relative to faucet volume; promised payouts outrun funding.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.FaucetVolume <= 0 || len(m.PoolSizesByCurrency) == 0 {
					return domain.OK()
				}
				var largest float64
				for _, pools := range m.PoolSizesByCurrency {
					for _, size := range pools {
						if size > largest {
							largest = size
						}
					}
				}
				if largest/m.FaucetVolume >= th.PoolWinRate {
					return domain.OK()
				}
				return violated(4, 0.55, 20,
					map[string]any{"largestPool": largest, "faucetVolume": m.FaucetVolume},
					act("reward", domain.DirectionDecrease, 0.1,
						"prize funding trails payout promises; slow reward emission", nil))
			},
		},
		{
			ID:          "P31",
			Name:        "Missing sinks",
			Category:    domain.CategoryRegulator,
			Description: "Faucets run with zero sink volume; the economy has no regulator at all.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.FaucetVolume <= 0 || m.SinkVolume > 0 {
					return domain.OK()
				}
				return violated(7, 0.8, 8,
					map[string]any{"faucetVolume": m.FaucetVolume},
					act("cost", domain.DirectionIncrease, 0.2,
						"currency enters but never leaves; introduce or raise sinks", nil))
			},
		},
	}
}
