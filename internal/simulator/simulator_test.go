package simulator

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/registry"
	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
)

func testSim(t *testing.T, reg *registry.Registry) *Simulator {
	t.Helper()
	return New(reg, 42, logger.New(logger.Config{Level: "error"}))
}

func inflatedBaseline() *domain.EconomyMetrics {
	return &domain.EconomyMetrics{
		Tick:                  100,
		Currencies:            []string{"gold"},
		TotalSupply:           1000,
		NetFlow:               15,
		Velocity:              0.5,
		AvgSatisfaction:       80,
		TotalAgents:           20,
		FaucetVolume:          50,
		SinkVolume:            35,
		GiniCoefficient:       0.4,
		NetFlowByCurrency:     map[string]float64{"gold": 15},
		TotalSupplyByCurrency: map[string]float64{"gold": 1000},
		VelocityByCurrency:    map[string]float64{"gold": 0.5},
	}
}

func sinkAction() domain.SuggestedAction {
	return domain.SuggestedAction{
		ParameterType: "cost",
		Direction:     domain.DirectionIncrease,
		Magnitude:     0.15,
		Scope:         &domain.Scope{Currency: "gold"},
	}
}

func TestSinkIncreaseShrinksNetFlow(t *testing.T) {
	reg := registry.New(logger.New(logger.Config{Level: "error"}))
	require.NoError(t, reg.Register(domain.RegisteredParameter{
		Key: "craftingCost", Type: "cost", FlowImpact: domain.FlowSink,
	}))

	sim := testSim(t, reg)
	baseline := inflatedBaseline()
	th := defaultTh()

	res, err := sim.Simulate(context.Background(), sinkAction(), baseline, th, 100, 10)
	require.NoError(t, err)
	assert.Equal(t, th.SimulationMinIterations, res.Iterations)
	assert.Equal(t, th.SimulationForwardTicks, res.ForwardTicks)
	assert.Equal(t, 110, res.EstimatedEffectTick)

	// Raising a sink-impact cost decays positive net flow geometrically.
	require.NotNil(t, res.Outcomes.P50)
	assert.Less(t, res.Outcomes.P50.NetFlowByCurrency["gold"], baseline.NetFlowByCurrency["gold"])
	assert.True(t, res.NetImprovement)
	assert.LessOrEqual(t, res.OvershootRisk, 1.0)
	assert.GreaterOrEqual(t, res.OvershootRisk, 0.0)
	assert.LessOrEqual(t, res.ConfidenceInterval[0], res.ConfidenceInterval[1])

	// Baseline must not be touched by the projection.
	assert.Equal(t, 15.0, baseline.NetFlowByCurrency["gold"])
	assert.Equal(t, 1000.0, baseline.TotalSupply)
}

func TestPercentilesAreOrdered(t *testing.T) {
	sim := testSim(t, nil)
	res, err := sim.Simulate(context.Background(), sinkAction(), inflatedBaseline(), defaultTh(), 100, 10)
	require.NoError(t, err)

	p10 := res.Outcomes.P10.NetFlowByCurrency["gold"]
	p50 := res.Outcomes.P50.NetFlowByCurrency["gold"]
	p90 := res.Outcomes.P90.NetFlowByCurrency["gold"]
	assert.LessOrEqual(t, p10, p50)
	assert.LessOrEqual(t, p50, p90)
}

func TestFaucetDecreaseShrinksNetFlow(t *testing.T) {
	sim := testSim(t, nil)
	baseline := inflatedBaseline()
	action := domain.SuggestedAction{
		ParameterType: "reward",
		Direction:     domain.DirectionDecrease,
		Magnitude:     0.2,
	}
	res, err := sim.Simulate(context.Background(), action, baseline, defaultTh(), 100, 10)
	require.NoError(t, err)
	assert.Less(t, res.Outcomes.P50.NetFlow, baseline.NetFlow)
}

func TestFrictionReducesVelocity(t *testing.T) {
	reg := registry.New(logger.New(logger.Config{Level: "error"}))
	require.NoError(t, reg.Register(domain.RegisteredParameter{
		Key: "tradeTax", Type: "fee", FlowImpact: domain.FlowFriction,
	}))

	sim := testSim(t, reg)
	baseline := inflatedBaseline()
	action := domain.SuggestedAction{
		ParameterType:     "fee",
		Direction:         domain.DirectionIncrease,
		Magnitude:         0.1,
		ResolvedParameter: "tradeTax",
	}
	res, err := sim.Simulate(context.Background(), action, baseline, defaultTh(), 100, 5)
	require.NoError(t, err)
	assert.Less(t, res.Outcomes.P50.Velocity, baseline.Velocity)
	// Friction never drives net-flow supply effects on its own.
	assert.InDelta(t, baseline.TotalSupplyByCurrency["gold"]+20*baseline.NetFlowByCurrency["gold"],
		res.Outcomes.Mean.TotalSupplyByCurrency["gold"],
		0.25*res.Outcomes.Mean.TotalSupplyByCurrency["gold"])
}

func TestRedistributionShrinksGini(t *testing.T) {
	reg := registry.New(logger.New(logger.Config{Level: "error"}))
	require.NoError(t, reg.Register(domain.RegisteredParameter{
		Key: "wealthTax", Type: "fee", FlowImpact: domain.FlowRedistribution,
	}))

	sim := testSim(t, reg)
	baseline := inflatedBaseline()
	baseline.GiniCoefficient = 0.7
	action := domain.SuggestedAction{
		ParameterType:     "fee",
		Direction:         domain.DirectionIncrease,
		Magnitude:         1.0,
		ResolvedParameter: "wealthTax",
	}
	res, err := sim.Simulate(context.Background(), action, baseline, defaultTh(), 100, 10)
	require.NoError(t, err)
	assert.Less(t, res.Outcomes.P50.GiniCoefficient, baseline.GiniCoefficient)
}

func TestInferFlowImpact(t *testing.T) {
	cases := map[string]domain.FlowImpact{
		"cost":       domain.FlowSink,
		"fee":        domain.FlowSink,
		"penalty":    domain.FlowSink,
		"reward":     domain.FlowFaucet,
		"yield":      domain.FlowMixed,
		"cap":        domain.FlowNeutral,
		"multiplier": domain.FlowNeutral,
		"mystery":    domain.FlowNeutral,
	}
	for paramType, want := range cases {
		assert.Equal(t, want, InferFlowImpact(paramType), paramType)
	}
}

func TestEmptyRegistryFallsBackToInference(t *testing.T) {
	// Works with a nil registry entirely through type inference.
	sim := testSim(t, nil)
	res, err := sim.Simulate(context.Background(), sinkAction(), inflatedBaseline(), defaultTh(), 0, 10)
	require.NoError(t, err)
	assert.Less(t, res.Outcomes.P50.NetFlowByCurrency["gold"], 15.0)
}

func TestCanceledContextPreempts(t *testing.T) {
	sim := testSim(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.Simulate(ctx, sinkAction(), inflatedBaseline(), defaultTh(), 100, 10)
	assert.ErrorIs(t, err, ErrPreempted)
}

func TestSameSeedSameOutcome(t *testing.T) {
	a := New(nil, 7, logger.New(logger.Config{Level: "error"}))
	b := New(nil, 7, logger.New(logger.Config{Level: "error"}))

	ra, err := a.Simulate(context.Background(), sinkAction(), inflatedBaseline(), defaultTh(), 100, 10)
	require.NoError(t, err)
	rb, err := b.Simulate(context.Background(), sinkAction(), inflatedBaseline(), defaultTh(), 100, 10)
	require.NoError(t, err)

	assert.Equal(t, ra.Outcomes.P50.NetFlowByCurrency["gold"], rb.Outcomes.P50.NetFlowByCurrency["gold"])
	assert.Equal(t, ra.OvershootRisk, rb.OvershootRisk)
}

func defaultTh() *domain.Thresholds {
	th := domain.DefaultThresholds()
	return &th
}
