package executor

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/domain"
	"github.com/GameDesignerMohamed/Agent-E-sub001/internal/registry"
	"github.com/GameDesignerMohamed/Agent-E-sub001/pkg/logger"
)

// fakeAdapter records SetParam calls and can be told to fail.
type fakeAdapter struct {
	calls []paramCall
	fail  bool
}

type paramCall struct {
	key   string
	value float64
	scope *domain.Scope
}

func (f *fakeAdapter) GetState() (*domain.EconomyState, error) {
	return &domain.EconomyState{}, nil
}

func (f *fakeAdapter) SetParam(key string, value float64, scope *domain.Scope) error {
	if f.fail {
		return errors.New("host rejected write")
	}
	f.calls = append(f.calls, paramCall{key: key, value: value, scope: scope})
	return nil
}

func newTestExecutor(adapter domain.Adapter, reg *registry.Registry) *Executor {
	return New(adapter, reg, logger.New(logger.Config{Level: "error"}))
}

func testPlan(checkAfter int) *domain.ActionPlan {
	return &domain.ActionPlan{
		ID:           "plan-1",
		Parameter:    "craftingCost",
		Scope:        &domain.Scope{Currency: "gold"},
		CurrentValue: 100,
		TargetValue:  115,
		Rollback: domain.RollbackCondition{
			Metric:         "avgSatisfaction",
			Direction:      domain.RollbackBelow,
			Threshold:      50,
			CheckAfterTick: checkAfter,
		},
	}
}

func metricsWith(sat float64) *domain.EconomyMetrics {
	return &domain.EconomyMetrics{AvgSatisfaction: sat, TotalAgents: 10}
}

func TestApplyRecordsPlanAndUpdatesRegistry(t *testing.T) {
	adapter := &fakeAdapter{}
	reg := registry.New(logger.New(logger.Config{Level: "error"}))
	current := 100.0
	require.NoError(t, reg.Register(domain.RegisteredParameter{
		Key: "craftingCost", Type: "cost", CurrentValue: &current,
	}))
	e := newTestExecutor(adapter, reg)

	plan := testPlan(110)
	require.NoError(t, e.Apply(plan, 100))

	require.Len(t, adapter.calls, 1)
	assert.Equal(t, "craftingCost", adapter.calls[0].key)
	assert.Equal(t, 115.0, adapter.calls[0].value)
	require.NotNil(t, plan.AppliedAt)
	assert.Equal(t, 100, *plan.AppliedAt)
	assert.Equal(t, 1, e.ActiveCount())

	v, ok := reg.CurrentValue("craftingCost")
	require.True(t, ok)
	assert.Equal(t, 115.0, v)
}

func TestApplyFailureKeepsNothing(t *testing.T) {
	adapter := &fakeAdapter{fail: true}
	e := newTestExecutor(adapter, nil)

	err := e.Apply(testPlan(110), 100)
	require.Error(t, err)
	assert.Equal(t, 0, e.ActiveCount())
}

func TestRollbackWhenMetricCrossesThreshold(t *testing.T) {
	adapter := &fakeAdapter{}
	e := newTestExecutor(adapter, nil)
	require.NoError(t, e.Apply(testPlan(110), 100))

	// Before checkAfterTick nothing happens even with a sick metric.
	outcomes := e.CheckRollbacks(metricsWith(20), 105)
	assert.Empty(t, outcomes)
	assert.Equal(t, 1, e.ActiveCount())

	// At checkAfterTick the breach triggers a rollback to the original.
	outcomes = e.CheckRollbacks(metricsWith(20), 110)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.ResultRolledBack, outcomes[0].Result)
	assert.True(t, outcomes[0].RolledBack)
	assert.Equal(t, 0, e.ActiveCount())

	require.Len(t, adapter.calls, 2)
	assert.Equal(t, 100.0, adapter.calls[1].value, "rollback restores the original value")
}

func TestSettleAfterGraceWindow(t *testing.T) {
	adapter := &fakeAdapter{}
	e := newTestExecutor(adapter, nil)
	require.NoError(t, e.Apply(testPlan(110), 100))

	// Healthy metric inside the window: still watching.
	outcomes := e.CheckRollbacks(metricsWith(80), 115)
	assert.Empty(t, outcomes)

	// Past checkAfterTick+10 the plan settles.
	outcomes = e.CheckRollbacks(metricsWith(80), 121)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.ResultSettled, outcomes[0].Result)
	assert.False(t, outcomes[0].RolledBack)
	assert.Len(t, adapter.calls, 1, "settling never writes to the host")
}

func TestUnresolvableMetricFailsSafe(t *testing.T) {
	adapter := &fakeAdapter{}
	e := newTestExecutor(adapter, nil)
	plan := testPlan(110)
	plan.Rollback.Metric = "noSuchMetric.path"
	require.NoError(t, e.Apply(plan, 100))

	outcomes := e.CheckRollbacks(metricsWith(80), 110)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.ResultRolledBack, outcomes[0].Result)
	assert.Contains(t, outcomes[0].Reasoning, "unresolvable")
}

func TestHardTTLSettlesPlan(t *testing.T) {
	adapter := &fakeAdapter{}
	e := newTestExecutor(adapter, nil)
	plan := testPlan(100_000) // rollback check never comes due
	require.NoError(t, e.Apply(plan, 100))

	outcomes := e.CheckRollbacks(metricsWith(80), 301)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.ResultSettled, outcomes[0].Result)
	assert.Contains(t, outcomes[0].Reasoning, "TTL")
}

func TestRollbackAboveDirection(t *testing.T) {
	adapter := &fakeAdapter{}
	e := newTestExecutor(adapter, nil)
	plan := testPlan(110)
	plan.Rollback = domain.RollbackCondition{
		Metric:         "giniCoefficient",
		Direction:      domain.RollbackAbove,
		Threshold:      0.6,
		CheckAfterTick: 110,
	}
	require.NoError(t, e.Apply(plan, 100))

	m := metricsWith(80)
	m.GiniCoefficient = 0.7
	outcomes := e.CheckRollbacks(m, 110)
	require.Len(t, outcomes, 1)
	assert.Equal(t, domain.ResultRolledBack, outcomes[0].Result)
}

func TestMultiplePlansResolveIndependently(t *testing.T) {
	adapter := &fakeAdapter{}
	e := newTestExecutor(adapter, nil)

	healthy := testPlan(110)
	healthy.ID = "healthy"
	sick := testPlan(110)
	sick.ID = "sick"
	sick.Parameter = "dropRate"
	sick.Rollback.Metric = "giniCoefficient"
	sick.Rollback.Direction = domain.RollbackAbove
	sick.Rollback.Threshold = 0.6

	require.NoError(t, e.Apply(healthy, 100))
	require.NoError(t, e.Apply(sick, 100))
	require.Equal(t, 2, e.ActiveCount())

	m := metricsWith(80)
	m.GiniCoefficient = 0.9
	outcomes := e.CheckRollbacks(m, 110)
	require.Len(t, outcomes, 1)
	assert.Equal(t, "sick", outcomes[0].Plan.ID)
	assert.Equal(t, 1, e.ActiveCount())
}
