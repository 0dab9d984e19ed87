// Package simulator projects a proposed parameter adjustment forward with
// a Monte-Carlo flow-impact model before the Planner will accept it.
package simulator

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/metrics"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/registry"
)

// Per-tick impact coefficients of the flow model.
const (
	sinkCoeff           = 0.2
	faucetCoeff         = 0.3
	mixedCoeff          = 0.15
	neutralCoeff        = 0.5
	neutralDamping      = 0.1
	frictionCoeff       = 0.05
	redistributionCoeff = 0.01
	noiseFraction       = 0.05
)

// minAcceptedIterations is the floor under deadline preemption. Fewer
// completed iterations than this and the run is rejected outright.
const minAcceptedIterations = 10

// ErrPreempted is returned when the tick deadline expired before enough
// iterations completed to trust the aggregates.
var ErrPreempted = errors.New("simulation preempted before minimum iterations")

// Simulator owns the forward projection. The registry may be empty; flow
// impacts then fall back to parameter-type inference.
type Simulator struct {
	registry *registry.Registry
	rng      *rand.Rand
	log      zerolog.Logger
}

// New builds a Simulator. The seed feeds the noise source; production
// callers pass time-derived entropy, tests pass a constant.
func New(reg *registry.Registry, seed int64, log zerolog.Logger) *Simulator {
	return &Simulator{
		registry: reg,
		rng:      rand.New(rand.NewSource(seed)),
		log:      log.With().Str("component", "simulator").Logger(),
	}
}

// Simulate runs the Monte-Carlo projection for one suggested action.
// estimatedLag is the diagnosing principle's lag estimate in ticks. The
// context carries the tick deadline; on expiry the run is truncated at an
// iteration boundary and accepted if enough iterations finished.
func (s *Simulator) Simulate(ctx context.Context, action domain.SuggestedAction, baseline *domain.EconomyMetrics, th *domain.Thresholds, startTick, estimatedLag int) (*domain.SimulationResult, error) {
	impact := s.resolveImpact(action)
	forwardTicks := th.SimulationForwardTicks
	if forwardTicks <= 0 {
		forwardTicks = 20
	}
	wantIterations := th.SimulationMinIterations
	if wantIterations <= 0 {
		wantIterations = 100
	}
	if estimatedLag <= 0 || estimatedLag > forwardTicks {
		estimatedLag = forwardTicks
	}

	target := targetMetric(impact)
	baseTarget := baseline.MetricValue(target)

	var (
		endpoints []*domain.EconomyMetrics
		atLag     []float64
		overshoot int
	)
	for i := 0; i < wantIterations; i++ {
		if err := ctx.Err(); err != nil {
			break
		}
		final, lagValue, crossed := s.iterate(action, impact, baseline, th, forwardTicks, estimatedLag, baseTarget)
		endpoints = append(endpoints, final)
		atLag = append(atLag, lagValue)
		if crossed {
			overshoot++
		}
	}
	if len(endpoints) < minAcceptedIterations {
		return nil, ErrPreempted
	}
	if len(endpoints) < wantIterations {
		s.log.Warn().
			Int("completed", len(endpoints)).
			Int("wanted", wantIterations).
			Msg("simulation truncated at deadline")
	}

	outcomes := aggregateEndpoints(baseline, endpoints)
	sort.Float64s(atLag)

	result := &domain.SimulationResult{
		ProposedAction:      action,
		Iterations:          len(endpoints),
		ForwardTicks:        forwardTicks,
		Outcomes:            outcomes,
		NetImprovement:      metrics.HealthScore(outcomes.P50) > metrics.HealthScore(baseline),
		NoNewProblems:       noNewProblems(baseline, outcomes.P50, th),
		ConfidenceInterval:  [2]float64{quantile(atLag, 0.10), quantile(atLag, 0.90)},
		EstimatedEffectTick: startTick + estimatedLag,
		OvershootRisk:       float64(overshoot) / float64(len(endpoints)),
	}
	return result, nil
}

// resolveImpact finds the flow impact for the action, in order: resolved
// parameter key, scope resolution, then type inference.
func (s *Simulator) resolveImpact(action domain.SuggestedAction) domain.FlowImpact {
	if s.registry != nil {
		if action.ResolvedParameter != "" {
			if fi, ok := s.registry.GetFlowImpact(action.ResolvedParameter); ok && fi != "" {
				return fi
			}
		}
		if !action.Scope.IsZero() {
			if p := s.registry.Resolve(action.ParameterType, action.Scope); p != nil && p.FlowImpact != "" {
				return p.FlowImpact
			}
		}
	}
	return InferFlowImpact(action.ParameterType)
}

// InferFlowImpact maps a parameter type to a flow impact when the registry
// cannot answer. Unknown types are treated as neutral.
func InferFlowImpact(parameterType string) domain.FlowImpact {
	switch parameterType {
	case "cost", "fee", "penalty":
		return domain.FlowSink
	case "reward":
		return domain.FlowFaucet
	case "yield":
		return domain.FlowMixed
	case "cap", "multiplier":
		return domain.FlowNeutral
	default:
		return domain.FlowNeutral
	}
}

// targetMetric names the dotted metric the action is expected to move.
func targetMetric(impact domain.FlowImpact) string {
	switch impact {
	case domain.FlowFriction:
		return "velocity"
	case domain.FlowRedistribution:
		return "giniCoefficient"
	default:
		return "netFlow"
	}
}

// iterate runs one projection and returns the endpoint, the targeted
// metric's value at the lag tick, and whether the target overshot
// (crossed zero or reversed sign relative to baseline).
func (s *Simulator) iterate(action domain.SuggestedAction, impact domain.FlowImpact, baseline *domain.EconomyMetrics, th *domain.Thresholds, forwardTicks, estimatedLag int, baseTarget float64) (*domain.EconomyMetrics, float64, bool) {
	m := baseline.Clone()
	target := targetMetric(impact)

	sign := 1.0
	if action.Direction == domain.DirectionIncrease {
		sign = -1
	}
	mag := action.Magnitude
	roleCount := s.dominantRoleCount(m, th)

	lagValue := baseTarget
	crossed := false
	for tick := 1; tick <= forwardTicks; tick++ {
		s.step(m, action, impact, sign, mag, roleCount)
		current := m.MetricValue(target)
		if tick == estimatedLag {
			lagValue = current
		}
		if baseTarget != 0 && current != 0 && math.Signbit(current) != math.Signbit(baseTarget) {
			crossed = true
		}
	}
	return m, lagValue, crossed
}

// step applies one tick of the flow model plus noise.
func (s *Simulator) step(m *domain.EconomyMetrics, action domain.SuggestedAction, impact domain.FlowImpact, sign, mag, roleCount float64) {
	currencies := s.targetCurrencies(m, action)

	switch impact {
	case domain.FlowSink:
		for _, c := range currencies {
			s.adjustNetFlow(m, c, sign*s.netFlow(m, c)*sinkCoeff*mag)
		}
	case domain.FlowFaucet:
		for _, c := range currencies {
			s.adjustNetFlow(m, c, -sign*roleCount*faucetCoeff*mag)
		}
	case domain.FlowMixed:
		for _, c := range currencies {
			s.adjustNetFlow(m, c, sign*s.faucetVolume(m, c)*mixedCoeff*mag)
		}
	case domain.FlowNeutral:
		for _, c := range currencies {
			s.adjustNetFlow(m, c, sign*roleCount*neutralCoeff*mag*neutralDamping)
		}
	case domain.FlowFriction:
		m.Velocity = math.Max(0, m.Velocity-frictionCoeff*mag)
		for _, c := range currencies {
			if _, ok := m.VelocityByCurrency[c]; ok {
				m.VelocityByCurrency[c] = math.Max(0, m.VelocityByCurrency[c]-frictionCoeff*mag)
			}
		}
	case domain.FlowRedistribution:
		m.GiniCoefficient = clamp01(m.GiniCoefficient - redistributionCoeff*mag)
		for c := range m.GiniCoefficientByCurrency {
			m.GiniCoefficientByCurrency[c] = clamp01(m.GiniCoefficientByCurrency[c] - redistributionCoeff*mag)
		}
	}

	// Supply integrates net flow; noise rides on both.
	for c, nf := range m.NetFlowByCurrency {
		m.NetFlowByCurrency[c] = nf + s.noise(nf)
		if m.TotalSupplyByCurrency != nil {
			m.TotalSupplyByCurrency[c] = math.Max(0, m.TotalSupplyByCurrency[c]+m.NetFlowByCurrency[c])
		}
	}
	m.NetFlow += s.noise(m.NetFlow)
	m.TotalSupply = math.Max(0, m.TotalSupply+m.NetFlow)
	m.Velocity = math.Max(0, m.Velocity+s.noise(m.Velocity))
	m.AvgSatisfaction = math.Min(100, math.Max(0, m.AvgSatisfaction+s.noise(m.AvgSatisfaction)))
	m.GiniCoefficient = clamp01(m.GiniCoefficient + s.noise(m.GiniCoefficient)*0.1)
}

// targetCurrencies returns the currencies the action touches: the scoped
// currency when present, otherwise every currency with a net-flow record,
// otherwise a single sentinel for aggregate-only hosts.
func (s *Simulator) targetCurrencies(m *domain.EconomyMetrics, action domain.SuggestedAction) []string {
	if action.Scope != nil && action.Scope.Currency != "" {
		return []string{action.Scope.Currency}
	}
	if len(m.NetFlowByCurrency) > 0 {
		out := make([]string, 0, len(m.NetFlowByCurrency))
		for c := range m.NetFlowByCurrency {
			out = append(out, c)
		}
		sort.Strings(out)
		return out
	}
	return []string{""}
}

func (s *Simulator) netFlow(m *domain.EconomyMetrics, currency string) float64 {
	if currency == "" {
		return m.NetFlow
	}
	if v, ok := m.NetFlowByCurrency[currency]; ok {
		return v
	}
	return m.NetFlow
}

func (s *Simulator) faucetVolume(m *domain.EconomyMetrics, currency string) float64 {
	if currency != "" {
		if v, ok := m.FaucetVolumeByCurrency[currency]; ok {
			return v
		}
	}
	return m.FaucetVolume
}

func (s *Simulator) adjustNetFlow(m *domain.EconomyMetrics, currency string, delta float64) {
	if currency == "" {
		m.NetFlow += delta
		return
	}
	if m.NetFlowByCurrency == nil {
		m.NetFlowByCurrency = map[string]float64{}
	}
	m.NetFlowByCurrency[currency] += delta
	m.NetFlow += delta
}

// dominantRoleCount is the population in the configured dominant roles,
// falling back to total agents, floored at 1.
func (s *Simulator) dominantRoleCount(m *domain.EconomyMetrics, th *domain.Thresholds) float64 {
	var count float64
	for _, role := range th.DominantRoles {
		count += m.PopulationByRole[role]
	}
	if count <= 0 {
		count = m.TotalAgents
	}
	return math.Max(1, count)
}

// noise returns a Gaussian perturbation with sigma proportional to the
// value's magnitude.
func (s *Simulator) noise(value float64) float64 {
	sigma := math.Abs(value) * noiseFraction
	if sigma == 0 {
		return 0
	}
	return s.rng.NormFloat64() * sigma
}

// noNewProblems reports whether the p50 projection crosses any critical
// bound the baseline did not already cross.
func noNewProblems(baseline, p50 *domain.EconomyMetrics, th *domain.Thresholds) bool {
	checks := []struct {
		name string
		bad  func(m *domain.EconomyMetrics) bool
	}{
		{"gini_red", func(m *domain.EconomyMetrics) bool { return m.GiniCoefficient > th.GiniRed }},
		{"satisfaction_floor", func(m *domain.EconomyMetrics) bool {
			return m.AvgSatisfaction > 0 && m.AvgSatisfaction < th.SatisfactionFloor
		}},
		{"churn", func(m *domain.EconomyMetrics) bool { return m.ChurnRate > th.ChurnRateWarn }},
		{"net_flow", func(m *domain.EconomyMetrics) bool { return math.Abs(m.NetFlow) > 2*th.NetFlowWarn }},
		{"inflation", func(m *domain.EconomyMetrics) bool { return m.InflationRate > 2*th.InflationWarn }},
	}
	for _, c := range checks {
		if c.bad(p50) && !c.bad(baseline) {
			return false
		}
	}
	return true
}

func clamp01(v float64) float64 {
	return math.Min(1, math.Max(0, v))
}

// quantile reads one quantile off an already sorted sample.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	return stat.Quantile(q, stat.Empirical, sorted, nil)
}
