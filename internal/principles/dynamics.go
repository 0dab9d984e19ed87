package principles

import (
	"math"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
)

// measurementPrinciples watch the telemetry itself. A blind controller is
// worse than no controller, so gaps in instrumentation surface as findings.
func measurementPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P41",
			Name:        "Event completion shortfall",
			Category:    domain.CategoryMeasurement,
			Description: "Participants start flows they never finish; the reported completion rate sits under the floor.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if !valid(m.EventCompletionRate) {
					return domain.OK()
				}
				if m.EventCompletionRate >= th.EventCompletionRateMin {
					return domain.OK()
				}
				return violated(5, 0.6, 10,
					map[string]any{"eventCompletionRate": m.EventCompletionRate},
					act("cost", domain.DirectionDecrease, 0.1,
						"flows are abandoned mid-way; lower mid-flow costs", nil))
			},
		},
		{
			ID:          "P42",
			Name:        "Satisfaction telemetry missing",
			Category:    domain.CategoryMeasurement,
			Description: "The host reports agents but no satisfaction signal; experience principles are flying blind.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.TotalAgents <= 0 || m.AvgSatisfaction > 0 {
					return domain.OK()
				}
				return violated(2, 0.9, 0,
					map[string]any{"totalAgents": m.TotalAgents},
					nil)
			},
		},
		{
			ID:          "P43",
			Name:        "Price telemetry missing",
			Category:    domain.CategoryMeasurement,
			Description: "Trades happen but no market prices are reported; price-level principles cannot fire.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.Velocity <= 0 || len(m.PricesByCurrency) > 0 {
					return domain.OK()
				}
				return violated(2, 0.9, 0,
					map[string]any{"velocity": m.Velocity},
					nil)
			},
		},
	}
}

// systemDynamicsPrinciples watch cross-system structure and the long-period
// oscillations picked out of the smoothed engagement series.
func systemDynamicsPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P44",
			Name:        "Flow concentration",
			Category:    domain.CategorySystemDynamics,
			Description: "A single system carries nearly all currency flow; the rest of the economy is decorative.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if len(m.FlowBySystem) < 2 {
					return domain.OK()
				}
				var total float64
				for _, f := range m.FlowBySystem {
					total += math.Abs(f)
				}
				if total <= 0 {
					return domain.OK()
				}
				system, flow, found := worstAbsAbove(m.FlowBySystem, 0.8*total)
				if !found {
					return domain.OK()
				}
				return violated(4, 0.6, 25,
					map[string]any{"system": system, "share": math.Abs(flow) / total},
					act("reward", domain.DirectionIncrease, 0.1,
						"one system carries the economy; boost rewards elsewhere",
						&domain.Scope{System: system}))
			},
		},
		{
			ID:          "P45",
			Name:        "Participation monoculture",
			Category:    domain.CategorySystemDynamics,
			Description: "Several systems exist but participants cluster in one; content breadth is going to waste.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if len(m.ParticipantsBySystem) < 2 || m.TotalAgents <= 0 {
					return domain.OK()
				}
				for system, n := range m.ParticipantsBySystem {
					if n/m.TotalAgents > 0.9 {
						return violated(3, 0.55, 30,
							map[string]any{"system": system, "participantShare": n / m.TotalAgents},
							act("reward", domain.DirectionIncrease, 0.1,
								"participation collapsed onto one system; sweeten the others",
								&domain.Scope{System: system}))
					}
				}
				return domain.OK()
			},
		},
		{
			ID:          "P46",
			Name:        "Engagement collapse",
			Category:    domain.CategorySystemDynamics,
			Description: "Smoothed engagement fell off a cliff relative to its last peak.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				n := len(m.CyclicalPeaks)
				if n == 0 {
					return domain.OK()
				}
				lastPeak := m.CyclicalPeaks[n-1]
				current := m.Velocity * m.TotalAgents
				if lastPeak <= 0 || current >= 0.3*lastPeak {
					return domain.OK()
				}
				return violated(7, 0.65, 10,
					map[string]any{"lastPeak": lastPeak, "currentEngagement": current},
					act("reward", domain.DirectionIncrease, 0.2,
						"engagement dropped far below its last peak; re-energize activity", nil))
			},
		},
		{
			ID:          "P51",
			Name:        "Shark-tooth peak decay",
			Category:    domain.CategorySystemDynamics,
			Description: "Each engagement peak lands lower than the last; the content cycle is losing its pull.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				n := len(m.CyclicalPeaks)
				if n < 2 {
					return domain.OK()
				}
				prev, last := m.CyclicalPeaks[n-2], m.CyclicalPeaks[n-1]
				if prev <= 0 || last >= 0.7*prev {
					return domain.OK()
				}
				return violated(6, 0.6, 40,
					map[string]any{"previousPeak": prev, "lastPeak": last, "decay": 1 - last/prev},
					act("reward", domain.DirectionIncrease, 0.15,
						"successive engagement peaks are decaying; strengthen cycle rewards", nil))
			},
		},
		{
			ID:          "P53",
			Name:        "Valley deepening",
			Category:    domain.CategorySystemDynamics,
			Description: "The troughs between engagement peaks are getting deeper; off-cycle retention is failing.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				n := len(m.CyclicalValleys)
				if n < 2 {
					return domain.OK()
				}
				prev, last := m.CyclicalValleys[n-2], m.CyclicalValleys[n-1]
				if prev <= 0 || last >= 0.7*prev {
					return domain.OK()
				}
				return violated(5, 0.55, 40,
					map[string]any{"previousValley": prev, "lastValley": last},
					act("reward", domain.DirectionIncrease, 0.1,
						"off-cycle troughs keep deepening; add baseline rewards between cycles", nil))
			},
		},
		{
			ID:          "P54",
			Name:        "Amplitude collapse",
			Category:    domain.CategorySystemDynamics,
			Description: "Peaks and valleys have converged; the engagement cycle has flatlined at a low level.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				np, nv := len(m.CyclicalPeaks), len(m.CyclicalValleys)
				if np == 0 || nv == 0 {
					return domain.OK()
				}
				peak, valley := m.CyclicalPeaks[np-1], m.CyclicalValleys[nv-1]
				if peak <= 0 || (peak-valley)/peak > 0.1 {
					return domain.OK()
				}
				return violated(4, 0.5, 50,
					map[string]any{"lastPeak": peak, "lastValley": valley},
					act("multiplier", domain.DirectionIncrease, 0.1,
						"the engagement cycle has gone flat; amplify cycle incentives", nil))
			},
		},
	}
}

// operationsPrinciples watch aggregate operational health.
func operationsPrinciples() []domain.Principle {
	return []domain.Principle{
		{
			ID:          "P59",
			Name:        "Empty economy",
			Category:    domain.CategoryOperations,
			Description: "Currency supply exists but no participants remain to hold it.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.TotalAgents > 0 || m.TotalSupply <= 0 {
					return domain.OK()
				}
				return violated(9, 0.9, 0,
					map[string]any{"totalSupply": m.TotalSupply},
					nil)
			},
		},
		{
			ID:          "P60",
			Name:        "Silent economy",
			Category:    domain.CategoryOperations,
			Description: "Participants are present but no events arrive at all; either everything stopped or instrumentation broke.",
			Check: func(m *domain.EconomyMetrics, th *domain.Thresholds) domain.PrincipleResult {
				if m.TotalAgents <= 0 {
					return domain.OK()
				}
				if m.FaucetVolume > 0 || m.SinkVolume > 0 || m.Velocity > 0 || m.ChurnRate > 0 {
					return domain.OK()
				}
				return violated(3, 0.5, 5,
					map[string]any{"totalAgents": m.TotalAgents},
					nil)
			},
		},
	}
}
